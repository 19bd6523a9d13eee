package services

import "PosPrint/app/models"

// DiffOrder computes what the kitchen has not heard about yet.
// For every item in cart or sent, a higher cart quantity is an addition of the
// difference and a lower one is a cancellation of the difference. Equal
// quantities produce nothing, so the result never holds zeros and no item
// lands in both maps. Inputs are not modified.
func DiffOrder(cart models.CartState, sent models.SentState) models.OrderDelta {
	delta := models.OrderDelta{
		Additions:     make(map[int64]int),
		Cancellations: make(map[int64]int),
	}

	for id, c := range cart {
		s := sent[id]
		switch {
		case c > s:
			delta.Additions[id] = c - s
		case c < s:
			delta.Cancellations[id] = s - c
		}
	}

	// Items no longer in the cart at all
	for id, s := range sent {
		if _, inCart := cart[id]; inCart {
			continue
		}
		if s > 0 {
			delta.Cancellations[id] = s
		}
	}

	return delta
}
