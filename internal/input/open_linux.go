//go:build linux

package input

import "fmt"

// Open returns the GPIO source when lines are configured, otherwise an evdev
// source for the configured or first detected pointer. The second return value
// describes the source for the startup log.
func Open(cfg Config) (Source, string, error) {
	if len(cfg.GPIOLines) > 0 {
		g, err := NewGPIO(cfg.GPIOChip, cfg.GPIOLines)
		if err != nil {
			return nil, "", err
		}
		return g, fmt.Sprintf("gpio %s [%s]", g.chipName, cfg.GPIOLines), nil
	}

	path, err := FindPointer(cfg.Device)
	if err != nil {
		return nil, "", err
	}
	e, err := NewEvdev(path, cfg.Clock)
	if err != nil {
		return nil, "", err
	}
	return e, fmt.Sprintf("evdev %s (%s)", path, e.Name()), nil
}
