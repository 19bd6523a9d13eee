package models

import (
	"fmt"
	"time"
)

// DefaultPrinterPort is the raw ESC/POS port of LAN thermal printers
const DefaultPrinterPort = 9100

// PrinterRole is the job a printer is assigned to
type PrinterRole string

const (
	RoleKitchen PrinterRole = "kitchen"
	RolePayment PrinterRole = "payment"
)

// Valid reports whether the role is one of the known roles
func (r PrinterRole) Valid() bool {
	return r == RoleKitchen || r == RolePayment
}

// PrinterSlot names one of the two configurable printer addresses
type PrinterSlot string

const (
	SlotPrinter1 PrinterSlot = "printer1"
	SlotPrinter2 PrinterSlot = "printer2"
)

// PrinterTarget is a resolved printer endpoint
type PrinterTarget struct {
	Role PrinterRole `json:"role"`
	IP   string      `json:"ip"`
	Port int         `json:"port"`
}

// Addr returns host:port, defaulting the port to 9100
func (t PrinterTarget) Addr() string {
	port := t.Port
	if port == 0 {
		port = DefaultPrinterPort
	}
	return fmt.Sprintf("%s:%d", t.IP, port)
}

// BankProfile identifies the account printed in the transfer QR
type BankProfile struct {
	BankID    string `json:"bank_id"`    // Short routing code, e.g. "MB"
	BIN       string `json:"bin"`        // NAPAS acquirer id
	AccountNo string `json:"account_no"` // Alphanumeric account number
	BankName  string `json:"bank_name"`
}

// ReceiptSettings is everything the composer needs to know about the shop
type ReceiptSettings struct {
	ShopName        string       `json:"shop_name"`
	Address         string       `json:"address"`
	Phone           string       `json:"phone"`
	ThankYouMessage string       `json:"thank_you_message"`
	VATEnabled      bool         `json:"vat_enabled"`
	VATPercent      float64      `json:"vat_percent"`
	Bank            *BankProfile `json:"bank,omitempty"` // nil omits the QR block
}

// RestaurantSettings is the single shop settings row (id = 1)
type RestaurantSettings struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	ShopName         string      `json:"shop_name"`
	Address          string      `json:"address"`
	Phone            string      `json:"phone"`
	ThankYouMessage  string      `json:"thank_you_message"`
	BankID           string      `json:"bank_id"`
	AccountNo        string      `json:"account_no"`
	IsVATEnabled     bool        `gorm:"column:is_vat_enabled" json:"is_vat_enabled"`
	VATPercent       float64     `gorm:"column:vat_percent" json:"vat_percent"`
	Printer1         string      `json:"printer1"` // IP address
	Printer2         string      `json:"printer2"` // IP address
	KitchenPrinterID PrinterSlot `json:"kitchen_printer_id"`
	PaymentPrinterID PrinterSlot `json:"payment_printer_id"`
	PrinterPort      int         `gorm:"default:9100" json:"printer_port"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName keeps the table name used by the mobile app backend
func (RestaurantSettings) TableName() string {
	return "restaurant_settings"
}

// DefaultRestaurantSettings mirrors the defaults of a fresh install
func DefaultRestaurantSettings() RestaurantSettings {
	return RestaurantSettings{
		ID:               1,
		ShopName:         "Ốc Na Quán",
		Address:          "Địa chỉ mặc định",
		ThankYouMessage:  "Cảm ơn quý khách!",
		BankID:           "MB",
		VATPercent:       8,
		Printer1:         "192.168.1.200",
		KitchenPrinterID: SlotPrinter1,
		PaymentPrinterID: SlotPrinter1,
		PrinterPort:      DefaultPrinterPort,
	}
}

// SlotFor returns the slot assigned to a role ("" when unassigned)
func (s RestaurantSettings) SlotFor(role PrinterRole) PrinterSlot {
	switch role {
	case RoleKitchen:
		return s.KitchenPrinterID
	case RolePayment:
		return s.PaymentPrinterID
	}
	return ""
}

// IPFor returns the IP configured for the role's slot ("" when none)
func (s RestaurantSettings) IPFor(role PrinterRole) string {
	switch s.SlotFor(role) {
	case SlotPrinter1:
		return s.Printer1
	case SlotPrinter2:
		return s.Printer2
	}
	return ""
}
