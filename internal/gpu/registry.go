package gpu

import (
	"fmt"
	"sort"
)

// Opener creates a device.
type Opener func() (Device, error)

var devices = map[string]Opener{}

// Register adds a device opener under name.
func Register(name string, o Opener) {
	if name == "" || o == nil {
		return
	}
	devices[name] = o
}

// Open creates the device registered under name.
func Open(name string) (Device, error) {
	o, ok := devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrNoDevice, name, Names())
	}
	dev, err := o()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return dev, nil
}

// Names lists registered devices in sorted order.
func Names() []string {
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
