package receipt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRBlockBytes(t *testing.T) {
	got := QRBlock("ABC")

	want := []byte{
		0x1D, 0x28, 0x6B, 0x04, 0x00, 0x31, 0x41, 0x32, 0x00, // model 2
		0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x43, 0x06, // module size 6
		0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x45, 0x31, // error level M
		0x1D, 0x28, 0x6B, 0x06, 0x00, 0x31, 0x50, 0x30, // store, 3+3 bytes
		'A', 'B', 'C',
		0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x51, 0x30, // print
	}
	assert.Equal(t, want, got)
}

func TestQRBlockLongPayloadLength(t *testing.T) {
	payload := strings.Repeat("9", 300)
	got := QRBlock(payload)

	store := []byte{0x1D, 0x28, 0x6B}
	idx := bytes.Index(got[25:], store)
	require.Equal(t, 0, idx)

	// 303 = 0x012F -> pL 0x2F, pH 0x01
	assert.Equal(t, byte(0x2F), got[28])
	assert.Equal(t, byte(0x01), got[29])
	assert.Equal(t, []byte("1P0"), got[30:33])
	assert.Equal(t, payload, string(got[33:33+300]))
}
