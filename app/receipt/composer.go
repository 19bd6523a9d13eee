// Package receipt renders kitchen tickets, cancellation tickets and payment
// receipts as ESC/POS byte streams for 80mm thermal printers.
package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"PosPrint/app/models"
	"PosPrint/app/vietqr"
)

// Composer builds ticket byte streams. It holds no state between calls.
type Composer struct {
	width   int
	now     func() time.Time
	cashier string
	tagline string
}

// Option configures a Composer
type Option func(*Composer)

// WithClock replaces time.Now for ticket timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithWidth sets the printable column count
func WithWidth(width int) Option {
	return func(c *Composer) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithCashier sets the name printed on payment receipts
func WithCashier(name string) Option {
	return func(c *Composer) { c.cashier = name }
}

// WithTagline sets the line printed under the thank-you message
func WithTagline(tagline string) Option {
	return func(c *Composer) { c.tagline = tagline }
}

// NewComposer returns a composer for a 46-column printer
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		width:   DefaultWidth,
		now:     time.Now,
		cashier: "Admin",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Width returns the configured column count
func (c *Composer) Width() int {
	return c.width
}

func (c *Composer) newWriter() *ticketWriter {
	return &ticketWriter{width: c.width}
}

// KitchenTicket lists newly ordered items for the kitchen
func (c *Composer) KitchenTicket(tableLabel string, additions map[int64]int, menu models.MenuLookup) []byte {
	w := c.newWriter()

	// Header
	w.init()
	w.setAlign("center")
	w.setEmphasize(true)
	w.setSize(CmdDoubleHeight)
	w.write("PHIEU CHE BIEN\n")
	w.setSize(CmdTextNormal)
	w.setEmphasize(false)
	w.write("Ban: " + tableLabel + "\n")
	w.write(c.now().Format("15:04:05") + "\n")
	w.separator("=")
	w.setAlign("left")

	// Items
	for _, id := range models.SortedItemIDs(additions) {
		item, ok := menu.LookupItem(id)
		if !ok {
			continue
		}
		w.setEmphasize(true)
		w.write(item.Name + "\n")
		w.setSize(CmdTextBig)
		w.write(fmt.Sprintf("SL: %d", additions[id]))
		w.setSize(CmdTextNormal)
		w.setEmphasize(false)
		w.lineFeed()
		w.separator("-")
	}

	w.feed(4)
	w.cut()
	return w.bytes()
}

// CancellationTicket tells the kitchen to stop preparing items
func (c *Composer) CancellationTicket(tableLabel string, cancellations map[int64]int, menu models.MenuLookup, reason string) []byte {
	w := c.newWriter()

	w.init()
	w.setAlign("center")
	w.setEmphasize(true)
	w.setSize(CmdDoubleHeight)
	w.write("!!! HUY MON !!!\n")
	w.setSize(CmdTextNormal)
	w.setEmphasize(false)
	w.write("Ban: " + tableLabel + "\n")
	w.write(c.now().Format("15:04:05") + "\n")
	w.separator("=")
	w.setAlign("left")

	reason = strings.TrimSpace(reason)
	for _, id := range models.SortedItemIDs(cancellations) {
		item, ok := menu.LookupItem(id)
		if !ok {
			continue
		}
		w.write(item.Name + "\n")
		w.setEmphasize(true)
		w.setSize(CmdTextBig)
		w.write(fmt.Sprintf("HUY: -%d", cancellations[id]))
		w.setSize(CmdTextNormal)
		w.setEmphasize(false)
		w.lineFeed()
		if reason != "" {
			w.write("LY DO: " + reason + "\n")
		}
		w.separator("-")
	}

	w.feed(4)
	w.cut()
	return w.bytes()
}

// PaymentReceipt renders the customer bill, with a static transfer QR when a
// bank profile is configured.
func (c *Composer) PaymentReceipt(tableLabel string, cart models.CartState, menu models.MenuLookup, calc models.Calculations, settings models.ReceiptSettings) []byte {
	w := c.newWriter()
	now := c.now()

	// Header
	w.init()
	w.setAlign("center")
	w.setEmphasize(true)
	w.setSize(CmdDoubleHeight)
	w.write(strings.ToUpper(Normalize(settings.ShopName)) + "\n")
	w.setSize(CmdTextNormal)
	w.setEmphasize(false)
	if settings.Address != "" {
		w.write(settings.Address + "\n")
	}
	if settings.Phone != "" {
		w.write("Hotline: " + settings.Phone + "\n")
	}
	w.separator("=")
	w.write("PHIEU THANH TOAN\n")
	w.row("So: "+BillNumber(now), now.Format("02/01/2006 15:04:05"))
	w.row("Ban: "+tableLabel, "Thu ngan: "+c.cashier)
	w.separator("-")

	// Items
	w.setEmphasize(true)
	w.row("TEN MON", "THANH TIEN")
	w.setEmphasize(false)
	w.separator("-")
	w.setAlign("left")
	for _, id := range models.SortedItemIDs(cart) {
		qty := cart[id]
		if qty <= 0 {
			continue
		}
		item, ok := menu.LookupItem(id)
		if !ok {
			continue
		}
		w.setEmphasize(true)
		w.write(item.Name)
		w.setEmphasize(false)
		w.lineFeed()
		w.row(fmt.Sprintf("%d x %s", qty, FormatMoney(item.Price)), FormatMoney(item.Price*int64(qty)))
	}

	// Totals
	w.separator("-")
	w.row("Tam tinh:", FormatMoney(calc.Subtotal))
	if calc.VATAmount > 0 {
		w.row(fmt.Sprintf("Thue VAT (%s%%):", formatPercent(settings.VATPercent)), FormatMoney(calc.VATAmount))
	}
	if calc.DiscountAmount > 0 {
		w.setEmphasize(true)
		w.row("GIAM:", "-"+FormatMoney(calc.DiscountAmount))
		w.setEmphasize(false)
	}
	w.separator("=")
	w.setAlign("center")
	w.setEmphasize(true)
	w.setSize(CmdTextBig)
	w.write("TONG CONG:\n")
	w.write(FormatMoney(calc.FinalTotal) + " VND")
	w.setSize(CmdTextNormal)
	w.setEmphasize(false)
	w.lineFeed()
	w.separator("=")

	// Transfer QR, never bound to an amount so the printed code stays reusable
	if bank := settings.Bank; bank != nil {
		if payload, ok := vietqr.BuildPayload(bank.BankID, bank.AccountNo, 0, ""); ok {
			w.lineFeed()
			w.setAlign("center")
			w.write("QUET MA THANH TOAN\n")
			w.qr(payload)
			w.lineFeed()
			w.write(bank.BankName + " - " + bank.AccountNo + "\n")
		}
	}

	// Footer
	w.lineFeed()
	w.setAlign("center")
	if settings.ThankYouMessage != "" {
		w.write(settings.ThankYouMessage + "\n")
	}
	if c.tagline != "" {
		w.write(c.tagline + "\n")
	}
	w.feed(4)
	w.cut()
	return w.bytes()
}

// TestTicket is a short ticket used to check a printer is reachable and aligned
func (c *Composer) TestTicket(role models.PrinterRole, addr string) []byte {
	w := c.newWriter()
	w.init()
	w.setAlign("center")
	w.setEmphasize(true)
	w.setSize(CmdDoubleHeight)
	w.write("IN THU\n")
	w.setSize(CmdTextNormal)
	w.setEmphasize(false)
	w.separator("=")
	w.setAlign("left")
	w.row("May in:", string(role))
	w.row("Dia chi:", addr)
	w.row("Thoi gian:", c.now().Format("02/01/2006 15:04:05"))
	w.separator("-")
	w.row(strings.Repeat("L", w.width/2), strings.Repeat("R", w.width-w.width/2-1))
	w.feed(4)
	w.cut()
	return w.bytes()
}

// BillNumber derives the short bill number printed on receipts
func BillNumber(t time.Time) string {
	return "HD" + t.Format("1504")
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
