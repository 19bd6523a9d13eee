package vietqr

import (
	"sort"
	"strings"
)

// Bank is a NAPAS participant that accepts VietQR transfers
type Bank struct {
	ID   string // Short routing code used in settings
	BIN  string // Six digit acquirer id embedded in the QR
	Name string
}

var banks = map[string]Bank{
	"ABB":   {"ABB", "970425", "ABBANK"},
	"ACB":   {"ACB", "970416", "ACB"},
	"BAB":   {"BAB", "970409", "BacABank"},
	"BIDV":  {"BIDV", "970418", "BIDV"},
	"BVB":   {"BVB", "970438", "BaoVietBank"},
	"EIB":   {"EIB", "970431", "Eximbank"},
	"HDB":   {"HDB", "970437", "HDBank"},
	"ICB":   {"ICB", "970415", "VietinBank"},
	"KLB":   {"KLB", "970452", "KienLongBank"},
	"LPB":   {"LPB", "970449", "LPBank"},
	"MB":    {"MB", "970422", "MBBank"},
	"MSB":   {"MSB", "970426", "MSB"},
	"NAB":   {"NAB", "970428", "NamABank"},
	"NCB":   {"NCB", "970419", "NCB"},
	"OCB":   {"OCB", "970448", "OCB"},
	"PGB":   {"PGB", "970430", "PGBank"},
	"PVCB":  {"PVCB", "970412", "PVcomBank"},
	"SCB":   {"SCB", "970429", "SCB"},
	"SEAB":  {"SEAB", "970440", "SeABank"},
	"SGICB": {"SGICB", "970400", "SaigonBank"},
	"SHB":   {"SHB", "970443", "SHB"},
	"STB":   {"STB", "970403", "Sacombank"},
	"TCB":   {"TCB", "970407", "Techcombank"},
	"TPB":   {"TPB", "970423", "TPBank"},
	"VAB":   {"VAB", "970427", "VietABank"},
	"VBA":   {"VBA", "970405", "Agribank"},
	"VCB":   {"VCB", "970436", "Vietcombank"},
	"VCCB":  {"VCCB", "970454", "VietCapitalBank"},
	"VIB":   {"VIB", "970441", "VIB"},
	"VPB":   {"VPB", "970432", "VPBank"},
}

// LookupBank resolves a routing code (case-insensitive)
func LookupBank(bankID string) (Bank, bool) {
	bank, ok := banks[strings.ToUpper(strings.TrimSpace(bankID))]
	return bank, ok
}

// Banks returns every supported bank ordered by routing code
func Banks() []Bank {
	out := make([]Bank, 0, len(banks))
	for _, b := range banks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
