package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"ascii", "Ban 5", "Ban 5"},
		{"shopName", "Ốc Na Quán", "Oc Na Quan"},
		{"thanks", "Cảm ơn quý khách!", "Cam on quy khach!"},
		{"stroke", "Đậu đỏ", "Dau do"},
		{"horn", "Phở bò tái", "Pho bo tai"},
		{"mixedCase", "ĐƯỜNG", "DUONG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripDiacritics(tt.in))
		})
	}
}

func TestAlphanumericOnly(t *testing.T) {
	assert.Equal(t, "0123ABC", AlphanumericOnly("0123-ABC.", false))
	assert.Equal(t, "TT Ban 5", AlphanumericOnly("TT: Ban #5", true))
	assert.Equal(t, "TTBan5", AlphanumericOnly("TT: Ban #5", false))
	assert.Equal(t, "", AlphanumericOnly("ộ", true))
}
