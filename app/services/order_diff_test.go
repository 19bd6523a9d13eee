package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PosPrint/app/models"
)

func TestDiffOrderScenarios(t *testing.T) {
	tests := []struct {
		name          string
		cart          models.CartState
		sent          models.SentState
		additions     map[int64]int
		cancellations map[int64]int
	}{
		{
			name:          "new item",
			cart:          models.CartState{1: 2},
			sent:          models.SentState{},
			additions:     map[int64]int{1: 2},
			cancellations: map[int64]int{},
		},
		{
			name:          "partial reduction",
			cart:          models.CartState{1: 1},
			sent:          models.SentState{1: 3},
			additions:     map[int64]int{},
			cancellations: map[int64]int{1: 2},
		},
		{
			name:          "full removal",
			cart:          models.CartState{},
			sent:          models.SentState{5: 2},
			additions:     map[int64]int{},
			cancellations: map[int64]int{5: 2},
		},
		{
			name:          "mixed",
			cart:          models.CartState{1: 4, 2: 1, 3: 2},
			sent:          models.SentState{1: 1, 2: 1, 4: 1, 5: 0},
			additions:     map[int64]int{1: 3, 3: 2},
			cancellations: map[int64]int{4: 1},
		},
		{
			name:          "nil inputs",
			additions:     map[int64]int{},
			cancellations: map[int64]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := DiffOrder(tt.cart, tt.sent)
			assert.Equal(t, tt.additions, delta.Additions)
			assert.Equal(t, tt.cancellations, delta.Cancellations)
		})
	}
}

func TestDiffOrderDoesNotMutateInputs(t *testing.T) {
	cart := models.CartState{1: 2, 2: 1}
	sent := models.SentState{1: 1, 3: 4}

	DiffOrder(cart, sent)

	assert.Equal(t, models.CartState{1: 2, 2: 1}, cart)
	assert.Equal(t, models.SentState{1: 1, 3: 4}, sent)
}

func randomQuantities(r *rand.Rand) map[int64]int {
	m := make(map[int64]int)
	for i := 0; i < r.Intn(8); i++ {
		m[int64(r.Intn(10)+1)] = r.Intn(5) + 1
	}
	return m
}

func TestDiffOrderProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		cart := models.CartState(randomQuantities(r))
		sent := models.SentState(randomQuantities(r))

		delta := DiffOrder(cart, sent)
		for id, qty := range delta.Additions {
			require.Positive(t, qty)
			require.NotContains(t, delta.Cancellations, id)
			require.Equal(t, cart[id]-sent[id], qty)
		}
		for id, qty := range delta.Cancellations {
			require.Positive(t, qty)
			require.Equal(t, sent[id]-cart[id], qty)
		}

		require.True(t, DiffOrder(cart, models.SentState(cart)).IsEmpty())

		fresh := DiffOrder(cart, models.SentState{})
		require.Equal(t, map[int64]int(cart), fresh.Additions)
		require.Empty(t, fresh.Cancellations)

		require.Equal(t, delta, DiffOrder(cart, sent))
	}
}

func TestFinalTotalClampsToZero(t *testing.T) {
	assert.Equal(t, int64(0), models.FinalTotalOf(100000, 8000, 150000))

	menu := models.NewMenu([]models.MenuItem{{ID: 1, Name: "Lau thai", Price: 100000}})
	calc := models.ComputeCalculations(models.CartState{1: 1}, menu, true, 8, 150000)
	assert.Equal(t, int64(100000), calc.Subtotal)
	assert.Equal(t, int64(8000), calc.VATAmount)
	assert.Equal(t, int64(150000), calc.DiscountAmount)
	assert.Equal(t, int64(0), calc.FinalTotal)
}
