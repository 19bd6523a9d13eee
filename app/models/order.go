package models

import (
	"errors"
	"fmt"
	"math"
)

// CartState maps a menu item id to the quantity currently wanted at the table.
// Absence means zero.
type CartState map[int64]int

// SentState maps a menu item id to the quantity already dispatched to the kitchen.
type SentState map[int64]int

// ErrInvalidQuantity is returned when a cart or sent state holds a negative quantity
var ErrInvalidQuantity = errors.New("invalid item quantity")

// Validate rejects negative quantities
func (c CartState) Validate() error {
	return validateQuantities("cart", c)
}

// Validate rejects negative quantities
func (s SentState) Validate() error {
	return validateQuantities("sent", s)
}

func validateQuantities(state string, quantities map[int64]int) error {
	for _, id := range SortedItemIDs(quantities) {
		if qty := quantities[id]; qty < 0 {
			return fmt.Errorf("%w: %s item %d has quantity %d", ErrInvalidQuantity, state, id, qty)
		}
	}
	return nil
}

// OrderDelta is what the kitchen still needs to hear about.
// Both maps hold strictly positive quantities and never share a key.
type OrderDelta struct {
	Additions     map[int64]int `json:"additions"`
	Cancellations map[int64]int `json:"cancellations"`
}

// IsEmpty reports whether there is nothing to dispatch
func (d OrderDelta) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Cancellations) == 0
}

// Calculations holds the bill figures shared by the printed receipt and the shared bill
type Calculations struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	VATAmount      int64 `json:"vat_amount"`
	FinalTotal     int64 `json:"final_total"`
}

// FinalTotalOf applies the bill invariant: max(0, subtotal + vat - discount)
func FinalTotalOf(subtotal, vatAmount, discountAmount int64) int64 {
	total := subtotal + vatAmount - discountAmount
	if total < 0 {
		return 0
	}
	return total
}

// ComputeCalculations prices a cart against the menu.
// Items that are not on the menu are ignored. VAT is rounded to the nearest unit.
func ComputeCalculations(cart CartState, menu MenuLookup, vatEnabled bool, vatPercent float64, discount int64) Calculations {
	var subtotal int64
	for id, qty := range cart {
		if qty <= 0 {
			continue
		}
		item, ok := menu.LookupItem(id)
		if !ok {
			continue
		}
		subtotal += item.Price * int64(qty)
	}

	var vat int64
	if vatEnabled && vatPercent > 0 {
		vat = int64(math.Round(float64(subtotal) * vatPercent / 100))
	}
	if discount < 0 {
		discount = 0
	}

	return Calculations{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		VATAmount:      vat,
		FinalTotal:     FinalTotalOf(subtotal, vat, discount),
	}
}
