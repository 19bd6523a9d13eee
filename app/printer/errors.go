package printer

import (
	"errors"
	"fmt"

	"PosPrint/app/models"
)

// ErrBusy is returned when a delivery is attempted while another one is in
// flight or inside its grace period. The job is dropped, not queued.
var ErrBusy = errors.New("printer busy, job dropped")

// ConfigError reports a delivery that could not start because the target is
// not configured. No socket is opened.
type ConfigError struct {
	Role   models.PrinterRole
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("printer %s not configured: %s", e.Role, e.Reason)
}

// TimeoutError reports a connect that did not complete within the safety window
type TimeoutError struct {
	Role models.PrinterRole
	IP   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("printer %s (%s): connect timed out", e.Role, e.IP)
}

// Timeout lets callers treat it like a net.Error
func (e *TimeoutError) Timeout() bool { return true }

// IOError wraps a socket failure during dial, write or close
type IOError struct {
	Role models.PrinterRole
	IP   string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("printer %s (%s): %s: %v", e.Role, e.IP, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
