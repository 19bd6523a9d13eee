package receipt

import (
	"bytes"
	"strings"
)

// ticketWriter accumulates one ticket. Text goes through Normalize, commands do not.
type ticketWriter struct {
	buf   bytes.Buffer
	width int
}

func (w *ticketWriter) init() {
	w.buf.WriteString(CmdInit)
}

func (w *ticketWriter) setAlign(align string) {
	switch align {
	case "center":
		w.buf.WriteString(CmdAlignCenter)
	default:
		w.buf.WriteString(CmdAlignLeft)
	}
}

func (w *ticketWriter) setEmphasize(on bool) {
	if on {
		w.buf.WriteString(CmdBoldOn)
		return
	}
	w.buf.WriteString(CmdBoldOff)
}

// setSize takes one of CmdTextNormal, CmdDoubleHeight or CmdTextBig
func (w *ticketWriter) setSize(cmd string) {
	w.buf.WriteString(cmd)
}

func (w *ticketWriter) write(text string) {
	w.buf.WriteString(Normalize(text))
}

func (w *ticketWriter) row(left, right string) {
	w.buf.WriteString(FormatRow(left, right, w.width))
}

func (w *ticketWriter) separator(ch string) {
	w.buf.WriteString(DrawLine(ch, w.width))
}

func (w *ticketWriter) lineFeed() {
	w.buf.WriteByte(NL)
}

func (w *ticketWriter) feed(lines int) {
	w.buf.WriteString(strings.Repeat("\n", lines))
}

func (w *ticketWriter) qr(payload string) {
	writeQR(&w.buf, payload)
}

func (w *ticketWriter) cut() {
	w.buf.WriteString(CmdCut)
}

func (w *ticketWriter) bytes() []byte {
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out
}
