package life

import (
	"fmt"
	"strings"
)

// Mode selects which kernel produces the next generation.
type Mode int

const (
	Accelerator Mode = iota
	CPU
)

func (m Mode) String() string {
	switch m {
	case Accelerator:
		return "gpu"
	case CPU:
		return "cpu"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "gpu" or "cpu" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpu":
		return Accelerator, nil
	case "cpu":
		return CPU, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrMode, s)
	}
}
