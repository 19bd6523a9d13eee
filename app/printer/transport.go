// Package printer delivers ESC/POS byte streams to network thermal printers
// over raw TCP (port 9100).
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"PosPrint/app/models"
)

// Defaults for the delivery timings. They are tuning values for cheap LAN
// printers, not protocol constants.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultSettleDelay    = 100 * time.Millisecond
	DefaultDrainDelay     = 2 * time.Second
	DefaultGracePeriod    = 1 * time.Second
)

// Dialer opens the TCP connection to a printer. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Logger is the subset of the application logger the transport uses
type Logger interface {
	LogInfo(message string, details ...string)
	LogWarning(message string, details ...string)
	LogError(message string, err error, details ...string)
}

type nopLogger struct{}

func (nopLogger) LogInfo(string, ...string)         {}
func (nopLogger) LogWarning(string, ...string)      {}
func (nopLogger) LogError(string, error, ...string) {}

// Transport sends one byte stream at a time to a printer. A single busy flag
// covers every target: while a delivery is in flight, and for a grace period
// after it ends, other deliveries are rejected with ErrBusy.
type Transport struct {
	dialer         Dialer
	connectTimeout time.Duration
	settleDelay    time.Duration
	drainDelay     time.Duration
	gracePeriod    time.Duration
	logger         Logger

	mu   sync.Mutex
	busy bool
}

// Option configures a Transport
type Option func(*Transport)

// WithDialer replaces the default net.Dialer
func WithDialer(d Dialer) Option {
	return func(t *Transport) { t.dialer = d }
}

// WithConnectTimeout bounds the connect handshake
func WithConnectTimeout(d time.Duration) Option {
	return func(t *Transport) { t.connectTimeout = d }
}

// WithSettleDelay sets the wait between connect and write
func WithSettleDelay(d time.Duration) Option {
	return func(t *Transport) { t.settleDelay = d }
}

// WithDrainDelay sets the wait between write and close
func WithDrainDelay(d time.Duration) Option {
	return func(t *Transport) { t.drainDelay = d }
}

// WithGracePeriod sets how long the busy flag stays up after a delivery ends
func WithGracePeriod(d time.Duration) Option {
	return func(t *Transport) { t.gracePeriod = d }
}

// WithLogger sets the logger
func WithLogger(l Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTransport creates a transport with the default timings
func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		dialer:         &net.Dialer{},
		connectTimeout: DefaultConnectTimeout,
		settleDelay:    DefaultSettleDelay,
		drainDelay:     DefaultDrainDelay,
		gracePeriod:    DefaultGracePeriod,
		logger:         nopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Busy reports whether a delivery would currently be rejected
func (t *Transport) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

func (t *Transport) acquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return false
	}
	t.busy = true
	return true
}

// release clears the busy flag once the grace period has elapsed
func (t *Transport) release() {
	free := func() {
		t.mu.Lock()
		t.busy = false
		t.mu.Unlock()
	}
	if t.gracePeriod <= 0 {
		free()
		return
	}
	time.AfterFunc(t.gracePeriod, free)
}

// Deliver connects to target, waits the settle delay, writes payload in one
// call, waits the drain delay and closes. No reply is read. The connection is
// closed on every exit path.
func (t *Transport) Deliver(ctx context.Context, target models.PrinterTarget, payload []byte) error {
	if target.IP == "" {
		return &ConfigError{Role: target.Role, Reason: "no IP address assigned"}
	}
	if !t.acquire() {
		t.logger.LogWarning("Print job dropped, printer busy", fmt.Sprintf("role=%s ip=%s", target.Role, target.IP))
		return ErrBusy
	}
	defer t.release()

	addr := target.Addr()
	t.logger.LogInfo("Connecting to printer", fmt.Sprintf("role=%s addr=%s bytes=%d", target.Role, addr, len(payload)))

	conn, err := t.dial(ctx, target, addr)
	if err != nil {
		t.logger.LogError("Printer connect failed", err, "role="+string(target.Role))
		return err
	}
	defer conn.Close()

	if err := sleep(ctx, t.settleDelay); err != nil {
		return &IOError{Role: target.Role, IP: target.IP, Op: "settle", Err: err}
	}

	// A printer that accepts but stops reading must not hold the busy flag
	if err := conn.SetWriteDeadline(time.Now().Add(t.connectTimeout + t.drainDelay)); err != nil {
		return &IOError{Role: target.Role, IP: target.IP, Op: "write", Err: err}
	}
	if _, err := conn.Write(payload); err != nil {
		t.logger.LogError("Printer write failed", err, "role="+string(target.Role))
		return &IOError{Role: target.Role, IP: target.IP, Op: "write", Err: err}
	}

	if err := sleep(ctx, t.drainDelay); err != nil {
		return &IOError{Role: target.Role, IP: target.IP, Op: "drain", Err: err}
	}

	t.logger.LogInfo("Print job delivered", fmt.Sprintf("role=%s addr=%s", target.Role, addr))
	return nil
}

// dial arms the safety timer for the connect handshake. The timer is the
// context deadline, so it is disarmed by cancel on every outcome.
func (t *Transport) dial(ctx context.Context, target models.PrinterTarget, addr string) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, t.connectTimeout)
	defer cancel()

	conn, err := t.dialer.DialContext(dialCtx, "tcp", addr)
	if err == nil {
		return conn, nil
	}
	if isTimeout(err) || (errors.Is(dialCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil) {
		return nil, &TimeoutError{Role: target.Role, IP: target.IP}
	}
	return nil, &IOError{Role: target.Role, IP: target.IP, Op: "dial", Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
