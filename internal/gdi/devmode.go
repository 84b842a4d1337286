package gdi

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// DEVMODEW field offsets (wingdi.h, printer branch of the union)
const (
	dmFieldsOffset   = 72
	dmCopiesOffset   = 86
	dmDuplexOffset   = 94
	dmFormNameOffset = 102
	dmFormNameChars  = 32
	dmMinSize        = dmFormNameOffset + dmFormNameChars*2
)

// dmFields bits
const (
	dmCopies   = 0x00000100
	dmDuplex   = 0x00001000
	dmFormName = 0x00010000
)

// Duplex values
const (
	dmdupSimplex    = 1
	dmdupVertical   = 2
	dmdupHorizontal = 3
)

// Ticket holds the job settings applied through the driver's DEVMODE
type Ticket struct {
	Copies    uint32
	Duplex    printer.Duplex
	PaperSize string
}

// TicketFrom extracts the job settings of a request
func TicketFrom(req printer.PrintRequest) Ticket {
	return Ticket{Copies: req.Copies, Duplex: req.Duplex, PaperSize: req.PaperSize}
}

// Empty reports whether the driver defaults can be used unchanged
func (t Ticket) Empty() bool {
	return t.Copies <= 1 && t.Duplex == "" && t.PaperSize == ""
}

// ApplyTicket patches a DEVMODEW buffer in place and sets the matching
// dmFields bits. Form names longer than 31 characters are truncated.
func ApplyTicket(devmode []byte, t Ticket) error {
	if len(devmode) < dmMinSize {
		return fmt.Errorf("devmode too small: %d bytes", len(devmode))
	}

	fields := binary.LittleEndian.Uint32(devmode[dmFieldsOffset:])

	if t.Copies > 1 {
		copies := min(t.Copies, math.MaxInt16)
		binary.LittleEndian.PutUint16(devmode[dmCopiesOffset:], uint16(copies))
		fields |= dmCopies
	}

	if t.Duplex != "" {
		value, ok := duplexValue(t.Duplex)
		if !ok {
			return fmt.Errorf("unknown duplex mode %q", t.Duplex)
		}
		binary.LittleEndian.PutUint16(devmode[dmDuplexOffset:], value)
		fields |= dmDuplex
	}

	if t.PaperSize != "" {
		name := utf16.Encode([]rune(t.PaperSize))
		if len(name) > dmFormNameChars-1 {
			name = name[:dmFormNameChars-1]
		}
		for i := 0; i < dmFormNameChars; i++ {
			var c uint16
			if i < len(name) {
				c = name[i]
			}
			binary.LittleEndian.PutUint16(devmode[dmFormNameOffset+i*2:], c)
		}
		fields |= dmFormName
	}

	binary.LittleEndian.PutUint32(devmode[dmFieldsOffset:], fields)
	return nil
}

func duplexValue(d printer.Duplex) (uint16, bool) {
	switch d {
	case printer.DuplexNone:
		return dmdupSimplex, true
	case printer.DuplexLong:
		return dmdupVertical, true
	case printer.DuplexShort:
		return dmdupHorizontal, true
	default:
		return 0, false
	}
}
