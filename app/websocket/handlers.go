package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"PosPrint/app/models"
	"PosPrint/app/printer"
	"PosPrint/app/services"
	"PosPrint/app/vietqr"
)

const (
	maxBodyBytes     = 1 << 20
	defaultQRSize    = 512
	maxQRSize        = 2048
	defaultLogsLimit = 50
)

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), errorResponse{Error: err.Error(), Status: services.StatusFor(err)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func validateOrder(cart models.CartState, sent models.SentState) error {
	if err := cart.Validate(); err != nil {
		return err
	}
	return sent.Validate()
}

// StatusCode maps print errors to HTTP status codes
func StatusCode(err error) int {
	var (
		cfgErr     *printer.ConfigError
		timeoutErr *printer.TimeoutError
		ioErr      *printer.IOError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, printer.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &cfgErr),
		errors.Is(err, services.ErrNoBankProfile),
		errors.Is(err, vietqr.ErrUnsupportedBank),
		errors.Is(err, vietqr.ErrMissingAccount),
		errors.Is(err, vietqr.ErrFieldTooLong):
		return http.StatusUnprocessableEntity
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &ioErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth handles health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
		"time":    time.Now(),
	}
	if s.busy != nil {
		response["printer_busy"] = s.busy.Busy()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePrintKitchen(w http.ResponseWriter, r *http.Request) {
	var req services.KitchenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := validateOrder(req.Cart, req.Sent); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.api.DispatchKitchen(r.Context(), req)
	if err != nil {
		writeJSON(w, StatusCode(err), map[string]interface{}{
			"error":  err.Error(),
			"result": result,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrintPayment(w http.ResponseWriter, r *http.Request) {
	var req services.PaymentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Cart.Validate(); err != nil {
		writeError(w, err)
		return
	}

	result := s.api.PrintPaymentReceipt(r.Context(), req)
	if result.Err != nil {
		// The totals are still returned so the app can settle without a receipt
		writeJSON(w, StatusCode(result.Err), map[string]interface{}{
			"error":  result.Err.Error(),
			"result": result,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrintTest(w http.ResponseWriter, r *http.Request) {
	role := models.PrinterRole(chi.URLParam(r, "role"))
	result, err := s.api.TestPrinter(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrintLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	logs, err := s.api.RecentLogs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// qrQuery reads ?amount and ?note
func qrQuery(r *http.Request) (int64, string, error) {
	var amount int64
	if v := r.URL.Query().Get("amount"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, "", errors.New("amount must be a non-negative integer")
		}
		amount = n
	}
	return amount, r.URL.Query().Get("note"), nil
}

func (s *Server) handlePaymentQR(w http.ResponseWriter, r *http.Request) {
	amount, note, err := qrQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	payload, err := s.api.PaymentQR(r.Context(), amount, note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payload": payload,
		"amount":  amount,
	})
}

// handlePaymentQRImage renders the amount-bound QR as a PNG for sharing
func (s *Server) handlePaymentQRImage(w http.ResponseWriter, r *http.Request) {
	amount, note, err := qrQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	size := defaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > maxQRSize {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "size must be between 64 and 2048"})
			return
		}
		size = n
	}

	payload, err := s.api.PaymentQR(r.Context(), amount, note)
	if err != nil {
		writeError(w, err)
		return
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

type diffRequest struct {
	Cart models.CartState `json:"cart"`
	Sent models.SentState `json:"sent"`
}

// handleOrderDiff previews what a kitchen dispatch would print
func (s *Server) handleOrderDiff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := validateOrder(req.Cart, req.Sent); err != nil {
		writeError(w, err)
		return
	}
	delta := services.DiffOrder(req.Cart, req.Sent)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"additions":     delta.Additions,
		"cancellations": delta.Cancellations,
		"empty":         delta.IsEmpty(),
	})
}
