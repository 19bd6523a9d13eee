// Package vietqr builds EMV merchant-presented QR payloads for NAPAS 247
// bank transfers (VietQR).
package vietqr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"PosPrint/app/models"
	"PosPrint/app/textnorm"
)

// Top level field ids
const (
	idPayloadFormat   = "00"
	idInitiation      = "01"
	idMerchantAccount = "38"
	idCurrency        = "53"
	idAmount          = "54"
	idCountry         = "58"
	idAdditionalData  = "62"
	idCRC             = "63"
)

// Nested field ids
const (
	idGUID          = "00"
	idBeneficiary   = "01"
	idServiceCode   = "02"
	idBeneficiaryBN = "00"
	idBeneficiaryAC = "01"
	idPurpose       = "08"
)

const (
	payloadFormat  = "01"
	initStatic     = "11"
	initDynamic    = "12"
	napasGUID      = "A000000727"
	serviceToAcct  = "QRIBFTTA"
	currencyVND    = "704"
	countryVN      = "VN"
	maxNoteLength  = 18
	maxFieldLength = 99
	crcFieldPrefix = idCRC + "04"
)

var (
	ErrUnsupportedBank = errors.New("vietqr: unsupported bank")
	ErrMissingAccount  = errors.New("vietqr: missing account number")
	ErrFieldTooLong    = errors.New("vietqr: field value longer than 99 characters")
)

// Request describes one transfer QR
type Request struct {
	BankID    string
	AccountNo string
	Amount    int64  // 0 or less leaves the amount out (static QR)
	Note      string // Transfer description, sanitised before embedding
}

// BuildPayload returns the payload and true, or "" and false when the bank is
// unknown or the fields cannot be encoded.
func BuildPayload(bankID, accountNo string, amount int64, note string) (string, bool) {
	payload, err := Build(Request{BankID: bankID, AccountNo: accountNo, Amount: amount, Note: note})
	if err != nil {
		return "", false
	}
	return payload, true
}

// Build assembles the payload, reporting why it could not be built
func Build(req Request) (string, error) {
	bank, ok := LookupBank(req.BankID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBank, req.BankID)
	}
	account := SanitizeAccount(req.AccountNo)
	if account == "" {
		return "", ErrMissingAccount
	}

	beneficiary, err := join(
		tlv{idBeneficiaryBN, bank.BIN},
		tlv{idBeneficiaryAC, account},
	)
	if err != nil {
		return "", err
	}
	merchant, err := join(
		tlv{idGUID, napasGUID},
		tlv{idBeneficiary, beneficiary},
		tlv{idServiceCode, serviceToAcct},
	)
	if err != nil {
		return "", err
	}

	initiation := initStatic
	if req.Amount > 0 {
		initiation = initDynamic
	}

	fields := []tlv{
		{idPayloadFormat, payloadFormat},
		{idInitiation, initiation},
		{idMerchantAccount, merchant},
		{idCurrency, currencyVND},
	}
	if req.Amount > 0 {
		fields = append(fields, tlv{idAmount, strconv.FormatInt(req.Amount, 10)})
	}
	fields = append(fields, tlv{idCountry, countryVN})
	if note := SanitizeNote(req.Note); note != "" {
		purpose, err := join(tlv{idPurpose, note})
		if err != nil {
			return "", err
		}
		fields = append(fields, tlv{idAdditionalData, purpose})
	}

	body, err := join(fields...)
	if err != nil {
		return "", err
	}
	body += crcFieldPrefix
	return body + CRC16Hex(body), nil
}

// SanitizeAccount keeps ASCII letters and digits only
func SanitizeAccount(accountNo string) string {
	return textnorm.AlphanumericOnly(accountNo, false)
}

// SanitizeNote strips diacritics and punctuation and caps the length at 18
func SanitizeNote(note string) string {
	clean := strings.TrimSpace(textnorm.AlphanumericOnly(textnorm.StripDiacritics(note), true))
	if len(clean) > maxNoteLength {
		clean = strings.TrimSpace(clean[:maxNoteLength])
	}
	return clean
}

// ProfileFor derives the bank profile printed on receipts
func ProfileFor(bankID, accountNo string) (*models.BankProfile, error) {
	bank, ok := LookupBank(bankID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBank, bankID)
	}
	account := SanitizeAccount(accountNo)
	if account == "" {
		return nil, ErrMissingAccount
	}
	return &models.BankProfile{
		BankID:    bank.ID,
		BIN:       bank.BIN,
		AccountNo: account,
		BankName:  bank.Name,
	}, nil
}

type tlv struct {
	id    string
	value string
}

func join(fields ...tlv) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		if len(f.value) > maxFieldLength {
			return "", fmt.Errorf("%w: field %s", ErrFieldTooLong, f.id)
		}
		fmt.Fprintf(&b, "%s%02d%s", f.id, len(f.value), f.value)
	}
	return b.String(), nil
}
