// Package websocket serves the print API and streams print events to
// connected clients.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grandcat/zeroconf"

	"PosPrint/app/config"
	"PosPrint/app/models"
	"PosPrint/app/services"
)

// mDNS service type announced on the LAN so the mobile app can find the server
const mdnsServiceType = "_posprint._tcp"

// PrintAPI is the print workflow the HTTP handlers drive
type PrintAPI interface {
	DispatchKitchen(ctx context.Context, req services.KitchenRequest) (services.KitchenResult, error)
	PrintPaymentReceipt(ctx context.Context, req services.PaymentRequest) services.PrintResult
	TestPrinter(ctx context.Context, role models.PrinterRole) (services.PrintResult, error)
	PaymentQR(ctx context.Context, amount int64, note string) (string, error)
	RecentLogs(ctx context.Context, limit int) ([]models.PrintLog, error)
}

// BusyReporter exposes the printer busy flag on /health
type BusyReporter interface {
	Busy() bool
}

// Server represents the HTTP and WebSocket server
type Server struct {
	cfg          config.ServerConfig
	api          PrintAPI
	hub          *Hub
	busy         BusyReporter
	logger       *services.LoggerService
	router       chi.Router
	mdnsShutdown chan struct{}

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewServer creates a new server. busy may be nil.
func NewServer(cfg config.ServerConfig, api PrintAPI, hub *Hub, busy BusyReporter, logger *services.LoggerService) *Server {
	if logger == nil {
		logger = services.NewNopLogger()
	}
	s := &Server{
		cfg:          cfg,
		api:          api,
		hub:          hub,
		busy:         busy,
		logger:       logger,
		mdnsShutdown: make(chan struct{}),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/ws", s.hub)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/print", func(r chi.Router) {
			r.Post("/kitchen", s.handlePrintKitchen)
			r.Post("/payment", s.handlePrintPayment)
			r.Post("/test/{role}", s.handlePrintTest)
			r.Get("/logs", s.handlePrintLogs)
		})
		r.Get("/payment-qr", s.handlePaymentQR)
		r.Get("/payment-qr.png", s.handlePaymentQRImage)
		r.Post("/orders/diff", s.handleOrderDiff)
	})
	return r
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until Stop
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until Stop
func (s *Server) Serve(ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	if s.cfg.EnableMDNS {
		if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
			go s.startMDNS(tcpAddr.Port)
		}
	}

	s.logger.LogInfo("Print server starting", "addr="+ln.Addr().String())
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// startMDNS announces the print server via mDNS/Zeroconf
func (s *Server) startMDNS(port int) {
	defer s.logger.RecoverPanic()

	name := s.cfg.ServiceName
	if name == "" {
		name = "PosPrint"
	}

	server, err := zeroconf.Register(
		name,                    // Service instance name
		mdnsServiceType,         // Service type
		"local.",                // Domain
		port,                    // Port
		[]string{"version=1.0"}, // TXT records
		nil,                     // Network interfaces (nil = all)
	)
	if err != nil {
		s.logger.LogError("mDNS: Failed to register service", err)
		return
	}
	s.logger.LogInfo("mDNS: Print server announced", mdnsServiceType+".local port="+strconv.Itoa(port))

	<-s.mdnsShutdown
	server.Shutdown()
	s.logger.LogInfo("mDNS: Service announcement stopped")
}

// Stop shuts the HTTP server down and withdraws the mDNS announcement
func (s *Server) Stop(ctx context.Context) error {
	select {
	case <-s.mdnsShutdown:
	default:
		close(s.mdnsShutdown)
	}

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

// Addr returns the address being served, or "" before Serve
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
