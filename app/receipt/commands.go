package receipt

// ESC/POS control bytes
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	NL  byte = 0x0A
)

// ESC/POS command sequences. They are written to the buffer verbatim and
// never pass through text normalization.
const (
	CmdInit         = "\x1b@"      // ESC @
	CmdAlignLeft    = "\x1ba\x00"  // ESC a 0
	CmdAlignCenter  = "\x1ba\x01"  // ESC a 1
	CmdBoldOn       = "\x1bE\x01"  // ESC E 1
	CmdBoldOff      = "\x1bE\x00"  // ESC E 0
	CmdTextNormal   = "\x1d!\x00"  // GS ! 0x00
	CmdDoubleHeight = "\x1d!\x10"  // GS ! 0x10
	CmdTextBig      = "\x1d!\x11"  // GS ! 0x11, double width and height
	CmdCut          = "\x1dVB\x00" // GS V 66 0, feed then partial cut
)

// Native QR symbol commands (GS ( k)
const (
	// fn 165: select model 2
	qrModel2 = "\x1d(k\x04\x001A2\x00"

	// fn 167: module size, followed by the size byte
	qrModuleSize = "\x1d(k\x03\x001C"

	// fn 169: error correction, followed by the level byte
	qrErrorLevel = "\x1d(k\x03\x001E"

	// fn 180: store data, followed by pL pH "1P0" and the data
	qrStorePrefix = "\x1d(k"
	qrStoreFn     = "1P0"

	// fn 181: print the stored symbol
	qrPrint = "\x1d(k\x03\x001Q0"
)

const (
	// QRModuleSize is the dot size of one QR module
	QRModuleSize byte = 6

	// QRErrorLevelM selects error correction level M (15%)
	QRErrorLevelM byte = 0x31
)
