package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PosPrint/app/config"
	"PosPrint/app/models"
	"PosPrint/app/printer"
	"PosPrint/app/services"
	"PosPrint/app/vietqr"
)

type fakeAPI struct {
	kitchenErr error
	paymentErr error
	lastRole   models.PrinterRole
	lastReq    services.KitchenRequest
	qrErr      error
}

func (f *fakeAPI) DispatchKitchen(_ context.Context, req services.KitchenRequest) (services.KitchenResult, error) {
	f.lastReq = req
	delta := services.DiffOrder(req.Cart, req.Sent)
	return services.KitchenResult{JobID: "job-1", Delta: delta, Status: services.StatusFor(f.kitchenErr)}, f.kitchenErr
}

func (f *fakeAPI) PrintPaymentReceipt(context.Context, services.PaymentRequest) services.PrintResult {
	return services.PrintResult{
		JobID:        "job-2",
		Printed:      f.paymentErr == nil,
		Status:       services.StatusFor(f.paymentErr),
		Calculations: models.Calculations{Subtotal: 100000, VATAmount: 8000, FinalTotal: 108000},
		Err:          f.paymentErr,
	}
}

func (f *fakeAPI) TestPrinter(_ context.Context, role models.PrinterRole) (services.PrintResult, error) {
	f.lastRole = role
	if !role.Valid() {
		err := &printer.ConfigError{Role: role, Reason: "unknown printer role"}
		return services.PrintResult{Err: err}, err
	}
	return services.PrintResult{JobID: "job-3", Printed: true, Status: models.PrintStatusSent}, nil
}

func (f *fakeAPI) PaymentQR(_ context.Context, amount int64, note string) (string, error) {
	if f.qrErr != nil {
		return "", f.qrErr
	}
	return vietqr.Build(vietqr.Request{BankID: "MB", AccountNo: "0123456789", Amount: amount, Note: note})
}

func (f *fakeAPI) RecentLogs(context.Context, int) ([]models.PrintLog, error) {
	return []models.PrintLog{{ID: 2, JobID: "job-2", Status: models.PrintStatusSent}}, nil
}

type fixedBusy bool

func (b fixedBusy) Busy() bool { return bool(b) }

func newTestServer(t *testing.T, api PrintAPI) (*Server, *Hub) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(config.ServerConfig{Addr: "127.0.0.1:0"}, api, hub, fixedBusy(true), nil), hub
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})
	w := do(t, srv.Handler(), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["printer_busy"])
}

func TestPrintKitchen(t *testing.T) {
	api := &fakeAPI{}
	srv, _ := newTestServer(t, api)

	w := do(t, srv.Handler(), http.MethodPost, "/api/print/kitchen",
		`{"table":"Bàn 4","cart":{"1":2,"3":1},"sent":{"1":1,"9":2},"reason":"het mon"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Bàn 4", api.lastReq.TableLabel)
	assert.Equal(t, models.CartState{1: 2, 3: 1}, api.lastReq.Cart)

	var result services.KitchenResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, map[int64]int{1: 1, 3: 1}, result.Delta.Additions)
	assert.Equal(t, map[int64]int{9: 2}, result.Delta.Cancellations)
}

func TestPrintKitchenRejectsBadBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})
	w := do(t, srv.Handler(), http.MethodPost, "/api/print/kitchen", `{"table":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv.Handler(), http.MethodPost, "/api/print/kitchen", `{"tabel":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintKitchenErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"busy", printer.ErrBusy, http.StatusConflict},
		{"config", &printer.ConfigError{Role: models.RoleKitchen, Reason: "printer1 has no IP address"}, http.StatusUnprocessableEntity},
		{"timeout", &printer.TimeoutError{Role: models.RoleKitchen, IP: "10.0.0.5"}, http.StatusGatewayTimeout},
		{"io", &printer.IOError{Role: models.RoleKitchen, IP: "10.0.0.5", Op: "write", Err: errors.New("reset")}, http.StatusBadGateway},
		{"quantity", fmt.Errorf("%w: cart item 1 has quantity -1", models.ErrInvalidQuantity), http.StatusBadRequest},
		{"other", errors.New("menu unavailable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeAPI{kitchenErr: tt.err})
			w := do(t, srv.Handler(), http.MethodPost, "/api/print/kitchen", `{"table":"1","cart":{"1":1}}`)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.err.Error())
		})
	}
}

func TestPrintRoutesRejectNegativeQuantities(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"kitchen cart", "/api/print/kitchen", `{"table":"1","cart":{"1":-3}}`},
		{"kitchen sent", "/api/print/kitchen", `{"table":"1","cart":{"1":1},"sent":{"1":-2}}`},
		{"payment cart", "/api/print/payment", `{"table":"1","cart":{"1":2,"2":-1}}`},
		{"diff preview", "/api/orders/diff", `{"cart":{"1":-1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			srv, _ := newTestServer(t, api)

			w := do(t, srv.Handler(), http.MethodPost, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), models.ErrInvalidQuantity.Error())
			assert.Nil(t, api.lastReq.Cart, "request must not reach the print service")
		})
	}
}

func TestPrintPaymentFailureKeepsTotals(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{paymentErr: &printer.TimeoutError{Role: models.RolePayment, IP: "10.0.0.6"}})

	w := do(t, srv.Handler(), http.MethodPost, "/api/print/payment", `{"table":"2","cart":{"1":1},"discount":0}`)
	require.Equal(t, http.StatusGatewayTimeout, w.Code)

	var body struct {
		Error  string               `json:"error"`
		Result services.PrintResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "10.0.0.6")
	assert.False(t, body.Result.Printed)
	assert.Equal(t, int64(108000), body.Result.Calculations.FinalTotal)
}

func TestPrintTestRoute(t *testing.T) {
	api := &fakeAPI{}
	srv, _ := newTestServer(t, api)

	w := do(t, srv.Handler(), http.MethodPost, "/api/print/test/payment", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RolePayment, api.lastRole)

	w = do(t, srv.Handler(), http.MethodPost, "/api/print/test/bar", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPrintLogs(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})
	w := do(t, srv.Handler(), http.MethodGet, "/api/print/logs?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "job-2")

	w = do(t, srv.Handler(), http.MethodGet, "/api/print/logs?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentQR(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})

	w := do(t, srv.Handler(), http.MethodGet, "/api/payment-qr?amount=108000&note=Ban+4", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Payload string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NoError(t, vietqr.Verify(body.Payload))
	assert.Contains(t, body.Payload, "5406108000")

	w = do(t, srv.Handler(), http.MethodGet, "/api/payment-qr?amount=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentQRWithoutBank(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{qrErr: services.ErrNoBankProfile})
	w := do(t, srv.Handler(), http.MethodGet, "/api/payment-qr", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPaymentQRImage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})

	w := do(t, srv.Handler(), http.MethodGet, "/api/payment-qr.png?amount=50000&size=256", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, srv.Handler(), http.MethodGet, "/api/payment-qr.png?size=9999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderDiffPreview(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})

	w := do(t, srv.Handler(), http.MethodPost, "/api/orders/diff", `{"cart":{"1":1},"sent":{"1":3}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Additions     map[int64]int `json:"additions"`
		Cancellations map[int64]int `json:"cancellations"`
		Empty         bool          `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Additions)
	assert.Equal(t, map[int64]int{1: 2}, body.Cancellations)
	assert.False(t, body.Empty)
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketReceivesPrintEvents(t *testing.T) {
	srv, hub := newTestServer(t, &fakeAPI{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?role=payment"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readMessage(t, conn)
	assert.Equal(t, TypeConnected, welcome.Type)
	assert.NotEmpty(t, welcome.ClientID)
	assert.Contains(t, string(welcome.Data), `"role":"payment"`)

	kitchen, _ := json.Marshal(services.PrintEvent{JobID: "k", Role: models.RoleKitchen, Status: models.PrintStatusSent})
	payment, _ := json.Marshal(services.PrintEvent{JobID: "p", Role: models.RolePayment, Status: models.PrintStatusFailed})
	require.NoError(t, hub.Publish(context.Background(), services.DefaultEventSubject, kitchen))
	require.NoError(t, hub.Publish(context.Background(), services.DefaultEventSubject, payment))

	msg := readMessage(t, conn)
	assert.Equal(t, TypePrintJob, msg.Type)
	assert.Equal(t, services.DefaultEventSubject, msg.Subject)

	var event services.PrintEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, "p", event.JobID)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestWebSocketRejectsUnknownRole(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})
	w := do(t, srv.Handler(), http.MethodGet, "/ws?role=bar", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHubPublishRejectsGarbage(t *testing.T) {
	hub := NewHub(nil)
	assert.Error(t, hub.Publish(context.Background(), "x", []byte("not json")))
}

func TestServeAndStop(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, time.Second, 5*time.Millisecond)
	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, <-done)
}
