package vietqr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16ReferenceVectors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    uint16
		wantHex string
	}{
		{name: "checkString", payload: "123456789", want: 0x29B1, wantHex: "29B1"},
		{name: "empty", payload: "", want: 0xFFFF, wantHex: "FFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CRC16(tt.payload))
			assert.Equal(t, tt.wantHex, CRC16Hex(tt.payload))
		})
	}
}

func TestCRC16HexIsZeroPadded(t *testing.T) {
	for _, s := range []string{"a", "ab", "000201", "6304", "hello world"} {
		got := CRC16Hex(s)
		assert.Len(t, got, 4, s)
		assert.Regexp(t, "^[0-9A-F]{4}$", got, s)
	}
}

func TestCRC16Deterministic(t *testing.T) {
	const payload = "00020101021138540010A00000072701240006970422011001234567890208QRIBFTTA53037045802VN6304"
	assert.Equal(t, CRC16(payload), CRC16(payload))
	assert.NotEqual(t, CRC16(payload), CRC16(payload+"0"))
}
