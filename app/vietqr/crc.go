package vietqr

import "fmt"

const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// CRC16 computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF, MSB first,
// no reflection, no final XOR) as required by EMV QR.
func CRC16(payload string) uint16 {
	crc := uint16(crcInitial)
	for i := 0; i < len(payload); i++ {
		crc ^= uint16(payload[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC16Hex renders CRC16 as four uppercase, zero-padded hex digits
func CRC16Hex(payload string) string {
	return fmt.Sprintf("%04X", CRC16(payload))
}
