package printer

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PosPrint/app/models"
)

// hangingDialer never completes a connect until the context gives up
type hangingDialer struct{}

func (hangingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// refusingDialer fails immediately
type refusingDialer struct{ err error }

func (d refusingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	return nil, d.err
}

// recordingDialer counts dial attempts
type recordingDialer struct {
	mu    sync.Mutex
	calls int
}

func (d *recordingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return nil, errors.New("unexpected dial")
}

func fastTransport(opts ...Option) *Transport {
	base := []Option{
		WithConnectTimeout(200 * time.Millisecond),
		WithSettleDelay(5 * time.Millisecond),
		WithDrainDelay(5 * time.Millisecond),
		WithGracePeriod(20 * time.Millisecond),
	}
	return NewTransport(append(base, opts...)...)
}

// listen starts a loopback printer that reports everything it receives
func listen(t *testing.T) (models.PrinterTarget, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return models.PrinterTarget{Role: models.RoleKitchen, IP: host, Port: port}, received
}

func TestDeliverWritesPayload(t *testing.T) {
	target, received := listen(t)
	tr := fastTransport(WithGracePeriod(300 * time.Millisecond))
	payload := []byte("\x1b@hello\n\x1dVB\x00")

	require.NoError(t, tr.Deliver(context.Background(), target, payload))

	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("printer never received the payload")
	}

	assert.True(t, tr.Busy(), "busy flag is held through the grace period")
	require.Eventually(t, func() bool { return !tr.Busy() }, time.Second, 5*time.Millisecond)
}

func TestDeliverWithoutIP(t *testing.T) {
	dialer := &recordingDialer{}
	tr := fastTransport(WithDialer(dialer))

	err := tr.Deliver(context.Background(), models.PrinterTarget{Role: models.RolePayment}, []byte("x"))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, models.RolePayment, cfgErr.Role)
	assert.Zero(t, dialer.calls)
	assert.False(t, tr.Busy())
}

func TestDeliverTimesOutAndClearsBusy(t *testing.T) {
	tr := fastTransport(WithDialer(hangingDialer{}))
	target := models.PrinterTarget{Role: models.RoleKitchen, IP: "10.255.255.1", Port: 9100}

	start := time.Now()
	err := tr.Deliver(context.Background(), target, []byte("ticket"))
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "10.255.255.1", timeoutErr.IP)
	assert.Contains(t, err.Error(), "kitchen")
	assert.Less(t, elapsed, time.Second)

	require.Eventually(t, func() bool { return !tr.Busy() }, time.Second, 5*time.Millisecond)

	// The next attempt gets through the guard and reaches the dialer again
	err = tr.Deliver(context.Background(), target, []byte("ticket"))
	require.ErrorAs(t, err, &timeoutErr)
}

func TestDeliverDropsWhileBusy(t *testing.T) {
	tr := fastTransport(WithDialer(hangingDialer{}), WithConnectTimeout(300*time.Millisecond), WithGracePeriod(500*time.Millisecond))
	target := models.PrinterTarget{Role: models.RoleKitchen, IP: "10.0.0.9"}

	done := make(chan error, 1)
	go func() {
		done <- tr.Deliver(context.Background(), target, []byte("first"))
	}()
	require.Eventually(t, tr.Busy, time.Second, time.Millisecond)

	err := tr.Deliver(context.Background(), target, []byte("second"))
	assert.ErrorIs(t, err, ErrBusy)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, <-done, &timeoutErr)

	// Still inside the grace period
	assert.ErrorIs(t, tr.Deliver(context.Background(), target, []byte("third")), ErrBusy)
}

// stalledDialer hands out connections whose far end never reads
type stalledDialer struct {
	mu    sync.Mutex
	peers []net.Conn
}

func (d *stalledDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	client, server := net.Pipe()
	d.mu.Lock()
	d.peers = append(d.peers, server)
	d.mu.Unlock()
	return client, nil
}

func (d *stalledDialer) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.peers {
		c.Close()
	}
}

func TestDeliverBoundsStalledWrite(t *testing.T) {
	dialer := &stalledDialer{}
	defer dialer.close()
	tr := fastTransport(WithDialer(dialer))
	target := models.PrinterTarget{Role: models.RoleKitchen, IP: "10.0.0.9"}

	start := time.Now()
	err := tr.Deliver(context.Background(), target, []byte("ticket"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Eventually(t, func() bool { return !tr.Busy() }, time.Second, 10*time.Millisecond)
}

func TestDeliverReportsDialFailure(t *testing.T) {
	refused := errors.New("connection refused")
	tr := fastTransport(WithDialer(refusingDialer{err: refused}))
	target := models.PrinterTarget{Role: models.RolePayment, IP: "192.168.1.201"}

	err := tr.Deliver(context.Background(), target, []byte("receipt"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "dial", ioErr.Op)
	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "192.168.1.201")
	require.Eventually(t, func() bool { return !tr.Busy() }, time.Second, 5*time.Millisecond)
}

func TestDeliverHonoursCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := fastTransport(WithDialer(hangingDialer{}), WithGracePeriod(0))

	err := tr.Deliver(ctx, models.PrinterTarget{Role: models.RoleKitchen, IP: "10.0.0.9"}, []byte("x"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, tr.Busy())
}

func TestTargetAddrDefaultsPort(t *testing.T) {
	assert.Equal(t, "192.168.1.200:9100", models.PrinterTarget{IP: "192.168.1.200"}.Addr())
	assert.Equal(t, "192.168.1.200:9200", models.PrinterTarget{IP: "192.168.1.200", Port: 9200}.Addr())
}
