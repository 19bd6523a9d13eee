package receipt

import "bytes"

// QRBlock wraps payload in the printer's native QR commands: model, module
// size, error level, store (length+3 as little-endian pL pH) and print.
func QRBlock(payload string) []byte {
	var buf bytes.Buffer
	writeQR(&buf, payload)
	return buf.Bytes()
}

func writeQR(buf *bytes.Buffer, payload string) {
	n := len(payload) + 3
	buf.WriteString(qrModel2)
	buf.WriteString(qrModuleSize)
	buf.WriteByte(QRModuleSize)
	buf.WriteString(qrErrorLevel)
	buf.WriteByte(QRErrorLevelM)
	buf.WriteString(qrStorePrefix)
	buf.WriteByte(byte(n % 256))
	buf.WriteByte(byte(n / 256))
	buf.WriteString(qrStoreFn)
	buf.WriteString(payload)
	buf.WriteString(qrPrint)
}
