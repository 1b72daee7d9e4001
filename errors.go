package alsaout

import "errors"

var (
	// ErrConfiguration is returned for stream parameters or options the sink cannot use.
	ErrConfiguration = errors.New("configuration error")
	// ErrDevice is returned when the device cannot be opened, negotiated or queried.
	ErrDevice = errors.New("device error")
	// ErrHardwareFault is returned when a failed write cannot be recovered. The stream is aborted.
	ErrHardwareFault = errors.New("hardware fault")
	// ErrNotOpen is returned by stream operations on a sink that is not open.
	ErrNotOpen = errors.New("sink is not open")
)
