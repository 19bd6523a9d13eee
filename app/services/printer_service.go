package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"PosPrint/app/models"
	"PosPrint/app/printer"
	"PosPrint/app/receipt"
	"PosPrint/app/vietqr"
)

// SettingsProvider supplies the shop settings row
type SettingsProvider interface {
	Load(ctx context.Context) (models.RestaurantSettings, error)
}

// MenuProvider supplies the menu used to name and price items
type MenuProvider interface {
	Lookup(ctx context.Context) (models.Menu, error)
}

// Deliverer sends a byte stream to a printer. *printer.Transport satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, target models.PrinterTarget, payload []byte) error
}

// PrinterService turns orders into tickets and sends them to the right printer.
// Every job is recorded in print_logs and published as a PrintEvent.
type PrinterService struct {
	settings  SettingsProvider
	menu      MenuProvider
	composer  *receipt.Composer
	transport Deliverer
	publisher EventPublisher
	subject   string
	logger    *LoggerService
	db        *gorm.DB
	now       func() time.Time
}

// PrinterServiceOption configures a PrinterService
type PrinterServiceOption func(*PrinterService)

// WithPublisher sets where print events go
func WithPublisher(p EventPublisher) PrinterServiceOption {
	return func(s *PrinterService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithEventSubject overrides DefaultEventSubject
func WithEventSubject(subject string) PrinterServiceOption {
	return func(s *PrinterService) {
		if subject != "" {
			s.subject = subject
		}
	}
}

// WithPrintLog stores a PrintLog row per job in db
func WithPrintLog(db *gorm.DB) PrinterServiceOption {
	return func(s *PrinterService) { s.db = db }
}

// WithServiceLogger sets the logger
func WithServiceLogger(l *LoggerService) PrinterServiceOption {
	return func(s *PrinterService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPrinterService creates a new printer service
func NewPrinterService(settings SettingsProvider, menu MenuProvider, composer *receipt.Composer, transport Deliverer, opts ...PrinterServiceOption) *PrinterService {
	s := &PrinterService{
		settings:  settings,
		menu:      menu,
		composer:  composer,
		transport: transport,
		publisher: NoopPublisher{},
		subject:   DefaultEventSubject,
		logger:    NewNopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KitchenRequest asks for the kitchen to be told about a table's changes
type KitchenRequest struct {
	TableLabel string           `json:"table"`
	Cart       models.CartState `json:"cart"`
	Sent       models.SentState `json:"sent"`
	Reason     string           `json:"reason,omitempty"` // Printed on cancellation tickets
}

// KitchenResult reports what was dispatched
type KitchenResult struct {
	JobID   string                `json:"job_id,omitempty"`
	Delta   models.OrderDelta     `json:"delta"`
	Skipped bool                  `json:"skipped"` // Nothing changed, nothing printed
	Status  string                `json:"status"`
	Target  *models.PrinterTarget `json:"target,omitempty"`
}

// PaymentRequest asks for a customer bill
type PaymentRequest struct {
	TableLabel   string               `json:"table"`
	Cart         models.CartState     `json:"cart"`
	Discount     int64                `json:"discount"`
	Calculations *models.Calculations `json:"calculations,omitempty"` // Computed from the menu when nil
}

// PrintResult is the outcome of a payment receipt job. A failed print never
// blocks settlement; the caller decides what to do with Err.
type PrintResult struct {
	JobID        string              `json:"job_id"`
	Printed      bool                `json:"printed"`
	Status       string              `json:"status"`
	Calculations models.Calculations `json:"calculations"`
	Err          error               `json:"-"`
}

// job carries one print attempt through delivery and recording
type job struct {
	id     string
	kind   string
	table  string
	target models.PrinterTarget
	size   int
}

func (s *PrinterService) newJob(kind, table string) *job {
	return &job{id: uuid.NewString(), kind: kind, table: table}
}

// DispatchKitchen diffs the cart against what the kitchen already has and
// prints the difference. New items and cancellations are sent as one stream
// so they share a single printer session.
func (s *PrinterService) DispatchKitchen(ctx context.Context, req KitchenRequest) (KitchenResult, error) {
	if err := req.Cart.Validate(); err != nil {
		return KitchenResult{}, err
	}
	if err := req.Sent.Validate(); err != nil {
		return KitchenResult{}, err
	}

	delta := DiffOrder(req.Cart, req.Sent)
	result := KitchenResult{Delta: delta}

	if delta.IsEmpty() {
		s.logger.LogInfo("Nothing new for the kitchen", "table="+req.TableLabel)
		result.Skipped = true
		result.Status = models.PrintStatusSkipped
		return result, nil
	}

	kind := models.KindKitchen
	if len(delta.Additions) == 0 {
		kind = models.KindCancellation
	}
	j := s.newJob(kind, req.TableLabel)
	j.target.Role = models.RoleKitchen
	result.JobID = j.id

	fail := func(err error) (KitchenResult, error) {
		result.Status = s.finish(ctx, j, err)
		return result, err
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load settings: %w", err))
	}
	target, err := TargetFrom(settings, models.RoleKitchen)
	if err != nil {
		return fail(err)
	}
	j.target = target
	result.Target = &target

	menu, err := s.menu.Lookup(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load menu: %w", err))
	}

	var buf bytes.Buffer
	if len(delta.Additions) > 0 {
		buf.Write(s.composer.KitchenTicket(req.TableLabel, delta.Additions, menu))
	}
	if len(delta.Cancellations) > 0 {
		buf.Write(s.composer.CancellationTicket(req.TableLabel, delta.Cancellations, menu, req.Reason))
	}

	err = s.deliver(ctx, j, buf.Bytes())
	result.Status = s.finish(ctx, j, err)
	return result, err
}

// PrintPaymentReceipt prints the customer bill on the payment printer
func (s *PrinterService) PrintPaymentReceipt(ctx context.Context, req PaymentRequest) PrintResult {
	if err := req.Cart.Validate(); err != nil {
		return PrintResult{Status: models.PrintStatusFailed, Err: err}
	}

	j := s.newJob(models.KindPayment, req.TableLabel)
	j.target.Role = models.RolePayment
	result := PrintResult{JobID: j.id}

	fail := func(err error) PrintResult {
		result.Err = err
		result.Status = s.finish(ctx, j, err)
		return result
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load settings: %w", err))
	}
	menu, err := s.menu.Lookup(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load menu: %w", err))
	}

	if req.Calculations != nil {
		result.Calculations = *req.Calculations
		result.Calculations.FinalTotal = models.FinalTotalOf(
			result.Calculations.Subtotal, result.Calculations.VATAmount, result.Calculations.DiscountAmount)
	} else {
		result.Calculations = models.ComputeCalculations(req.Cart, menu, settings.IsVATEnabled, settings.VATPercent, req.Discount)
	}

	target, err := TargetFrom(settings, models.RolePayment)
	if err != nil {
		return fail(err)
	}
	j.target = target

	payload := s.composer.PaymentReceipt(req.TableLabel, req.Cart, menu, result.Calculations, ReceiptSettingsFrom(settings))
	if err := s.deliver(ctx, j, payload); err != nil {
		return fail(err)
	}

	result.Printed = true
	result.Status = s.finish(ctx, j, nil)
	return result
}

// PaymentQR builds the amount-bound transfer payload shown in the app
func (s *PrinterService) PaymentQR(ctx context.Context, amount int64, note string) (string, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.BankID == "" || vietqr.SanitizeAccount(settings.AccountNo) == "" {
		return "", ErrNoBankProfile
	}
	return vietqr.Build(vietqr.Request{
		BankID:    settings.BankID,
		AccountNo: settings.AccountNo,
		Amount:    amount,
		Note:      note,
	})
}

// TestPrinter prints a short test ticket on the printer assigned to role
func (s *PrinterService) TestPrinter(ctx context.Context, role models.PrinterRole) (PrintResult, error) {
	j := s.newJob(models.KindTest, "")
	j.target.Role = role
	result := PrintResult{JobID: j.id}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load settings: %w", err)
		result.Status = s.finish(ctx, j, err)
		result.Err = err
		return result, err
	}
	target, err := TargetFrom(settings, role)
	if err != nil {
		result.Status = s.finish(ctx, j, err)
		result.Err = err
		return result, err
	}
	j.target = target

	err = s.deliver(ctx, j, s.composer.TestTicket(role, target.Addr()))
	result.Status = s.finish(ctx, j, err)
	result.Printed = err == nil
	result.Err = err
	return result, err
}

func (s *PrinterService) deliver(ctx context.Context, j *job, payload []byte) error {
	j.size = len(payload)
	s.logger.LogInfo("Sending print job",
		fmt.Sprintf("job=%s kind=%s role=%s ip=%s bytes=%d", j.id, j.kind, j.target.Role, j.target.IP, j.size))
	return s.transport.Deliver(ctx, j.target, payload)
}

// StatusFor maps a delivery error to the recorded job status
func StatusFor(err error) string {
	switch {
	case err == nil:
		return models.PrintStatusSent
	case errors.Is(err, printer.ErrBusy):
		return models.PrintStatusDropped
	default:
		return models.PrintStatusFailed
	}
}

// finish records the job outcome and returns its status. Recording failures
// are logged, never returned.
func (s *PrinterService) finish(ctx context.Context, j *job, err error) string {
	status := StatusFor(err)
	errText := ""
	if err != nil {
		errText = err.Error()
		if status == models.PrintStatusDropped {
			s.logger.LogWarning("Print job dropped", fmt.Sprintf("job=%s kind=%s", j.id, j.kind))
		} else {
			s.logger.LogError("Print job failed", err, fmt.Sprintf("job=%s kind=%s", j.id, j.kind))
		}
	}

	role := j.target.Role
	if role == "" {
		role = roleForKind(j.kind)
	}

	if s.db != nil {
		entry := models.PrintLog{
			JobID:      j.id,
			Role:       role,
			PrinterIP:  j.target.IP,
			Kind:       j.kind,
			TableLabel: j.table,
			Bytes:      j.size,
			Status:     status,
			Error:      errText,
		}
		if dbErr := s.db.WithContext(ctx).Create(&entry).Error; dbErr != nil {
			s.logger.LogError("Failed to record print log", dbErr, "job="+j.id)
		}
	}

	event := PrintEvent{
		JobID:      j.id,
		Role:       role,
		PrinterIP:  j.target.IP,
		Kind:       j.kind,
		TableLabel: j.table,
		Status:     status,
		Error:      errText,
		At:         s.now(),
	}
	data, mErr := json.Marshal(event)
	if mErr == nil {
		mErr = s.publisher.Publish(ctx, s.subject, data)
	}
	if mErr != nil {
		s.logger.LogWarning("Failed to publish print event", mErr.Error())
	}

	return status
}

func roleForKind(kind string) models.PrinterRole {
	if kind == models.KindPayment {
		return models.RolePayment
	}
	return models.RoleKitchen
}

// RecentLogs returns the latest print log rows, newest first
func (s *PrinterService) RecentLogs(ctx context.Context, limit int) ([]models.PrintLog, error) {
	if s.db == nil {
		return nil, ErrDatabaseNotInitialized
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var logs []models.PrintLog
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&logs).Error
	return logs, err
}
