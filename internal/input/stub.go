//go:build !linux && !windows

package input

import "fmt"

// ListDevices is not available on this platform.
func ListDevices() ([]DeviceInfo, error) {
	return nil, fmt.Errorf("%w: input interception is not supported on this platform", ErrRegistration)
}

// Open is not available on this platform.
func Open(cfg Config) (Source, string, error) {
	return nil, "", fmt.Errorf("%w: input interception is not supported on this platform (requires Linux or Windows)", ErrRegistration)
}
