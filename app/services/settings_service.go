package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"PosPrint/app/models"
	"PosPrint/app/printer"
	"PosPrint/app/vietqr"
)

// ErrNoBankProfile is returned when a QR is requested but no usable bank
// account is configured
var ErrNoBankProfile = errors.New("no bank profile configured")

const settingsRowID = 1

// SettingsService reads the shop settings row
type SettingsService struct {
	BaseService
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{BaseService: NewBaseService(db)}
}

// Load returns the settings row, or the fresh-install defaults when none was saved
func (s *SettingsService) Load(ctx context.Context) (models.RestaurantSettings, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.RestaurantSettings{}, err
	}

	var settings models.RestaurantSettings
	err = db.First(&settings, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultRestaurantSettings(), nil
	}
	if err != nil {
		return models.RestaurantSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Save writes the settings row
func (s *SettingsService) Save(ctx context.Context, settings models.RestaurantSettings) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	settings.ID = settingsRowID
	if err := db.Save(&settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ReceiptSettings returns what the composer needs from the settings row
func (s *SettingsService) ReceiptSettings(ctx context.Context) (models.ReceiptSettings, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return models.ReceiptSettings{}, err
	}
	return ReceiptSettingsFrom(settings), nil
}

// Target resolves the printer assigned to role
func (s *SettingsService) Target(ctx context.Context, role models.PrinterRole) (models.PrinterTarget, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return models.PrinterTarget{}, err
	}
	return TargetFrom(settings, role)
}

// ReceiptSettingsFrom converts the settings row. Bank is nil when the bank is
// unsupported or the account number is empty, which leaves the QR off receipts.
func ReceiptSettingsFrom(settings models.RestaurantSettings) models.ReceiptSettings {
	rs := models.ReceiptSettings{
		ShopName:        settings.ShopName,
		Address:         settings.Address,
		Phone:           settings.Phone,
		ThankYouMessage: settings.ThankYouMessage,
		VATEnabled:      settings.IsVATEnabled,
		VATPercent:      settings.VATPercent,
	}
	if profile, err := vietqr.ProfileFor(settings.BankID, settings.AccountNo); err == nil {
		rs.Bank = profile
	}
	return rs
}

// TargetFrom resolves the printer for role, failing with a *printer.ConfigError
// when the role has no slot or the slot has no IP
func TargetFrom(settings models.RestaurantSettings, role models.PrinterRole) (models.PrinterTarget, error) {
	if !role.Valid() {
		return models.PrinterTarget{}, &printer.ConfigError{Role: role, Reason: "unknown printer role"}
	}
	slot := settings.SlotFor(role)
	if slot == "" {
		return models.PrinterTarget{}, &printer.ConfigError{Role: role, Reason: "no printer assigned to role"}
	}
	ip := settings.IPFor(role)
	if ip == "" {
		return models.PrinterTarget{}, &printer.ConfigError{Role: role, Reason: fmt.Sprintf("%s has no IP address", slot)}
	}
	return models.PrinterTarget{Role: role, IP: ip, Port: settings.PrinterPort}, nil
}
