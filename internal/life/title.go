package life

import (
	"fmt"
	"time"
)

// Title formats the status line shown in window titles.
func Title(s *Simulation) string {
	return fmt.Sprintf("lifesim | Mode: %s | Update Time: %s | %d Cells",
		modeLabel(s), formatDuration(s.LastStep()), s.Cells())
}

func modeLabel(s *Simulation) string {
	if s.Mode() == CPU {
		return "CPU (goroutines)"
	}
	return fmt.Sprintf("GPU (%s)", s.dev.Name())
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	}
}
