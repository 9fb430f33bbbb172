package audio

import (
	"fmt"
	"strings"
)

// Opener acquires a fresh capture device each time a recording starts.
// The caller owns the returned device and must Stop and Close it.
type Opener struct {
	Ctx    Context
	Device *DeviceInfo
	Config CaptureConfig
}

func (o *Opener) Open() (CaptureDevice, error) {
	if o == nil || o.Ctx == nil {
		return nil, ErrDeviceUnavailable
	}
	if err := o.Probe(); err != nil {
		return nil, err
	}
	dev, err := o.Ctx.NewCapture(o.Device, o.Config)
	if err != nil {
		return nil, Classify(err)
	}
	return dev, nil
}

// Probe checks that at least one input exists and, when a device was
// selected, that it is still attached.
func (o *Opener) Probe() error {
	if o == nil || o.Ctx == nil {
		return ErrDeviceUnavailable
	}
	devices, err := o.Ctx.Devices()
	if err != nil {
		return Classify(err)
	}
	if len(devices) == 0 {
		return ErrDeviceNotFound
	}
	if o.Device == nil {
		return nil
	}
	for _, d := range devices {
		if d.ID == o.Device.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDeviceNotFound, o.Device.Name)
}

// FindDevice resolves a device by exact ID or case-insensitive name substring.
func FindDevice(ctx Context, query string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, Classify(err)
	}
	q := strings.ToLower(query)
	for i, d := range devices {
		if d.ID == query {
			return &devices[i], nil
		}
	}
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), q) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, query)
}
