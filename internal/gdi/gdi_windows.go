//go:build windows

package gdi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	winspool = windows.NewLazySystemDLL("winspool.drv")

	procCreateDCW         = gdi32.NewProc("CreateDCW")
	procDeleteDC          = gdi32.NewProc("DeleteDC")
	procGetDeviceCaps     = gdi32.NewProc("GetDeviceCaps")
	procSetStretchBltMode = gdi32.NewProc("SetStretchBltMode")
	procStretchDIBits     = gdi32.NewProc("StretchDIBits")
	procStartDocW         = gdi32.NewProc("StartDocW")
	procEndDoc            = gdi32.NewProc("EndDoc")
	procStartPage         = gdi32.NewProc("StartPage")
	procEndPage           = gdi32.NewProc("EndPage")

	procEnumPrintersW       = winspool.NewProc("EnumPrintersW")
	procGetDefaultPrinterW  = winspool.NewProc("GetDefaultPrinterW")
	procOpenPrinterW        = winspool.NewProc("OpenPrinterW")
	procClosePrinter        = winspool.NewProc("ClosePrinter")
	procEnumFormsW          = winspool.NewProc("EnumFormsW")
	procDocumentPropertiesW = winspool.NewProc("DocumentPropertiesW")
)

// GetDeviceCaps indexes
const (
	capHorzRes         = 8
	capVertRes         = 10
	capLogPixelsX      = 88
	capLogPixelsY      = 90
	capPhysicalWidth   = 110
	capPhysicalHeight  = 111
	capPhysicalOffsetX = 112
	capPhysicalOffsetY = 113
)

const (
	stretchHalftone = 4
	dibRGBColors    = 0
	srcCopy         = 0x00CC0020
	biRGB           = 0
)

type docInfo struct {
	size     int32
	docName  *uint16
	output   *uint16
	datatype *uint16
	fwType   uint32
}

type bitmapInfoHeader struct {
	size          uint32
	width         int32
	height        int32
	planes        uint16
	bitCount      uint16
	compression   uint32
	sizeImage     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	clrUsed       uint32
	clrImportant  uint32
}

// bitmapInfo is BITMAPINFO without a color table, enough for 32bpp BI_RGB
type bitmapInfo struct {
	header bitmapInfoHeader
	colors [1]uint32
}

// deviceContext wraps a printer HDC
type deviceContext uintptr

// createPrinterDC opens a DC on the WINSPOOL driver. devmode may be nil.
func createPrinterDC(printerName string, devmode []byte) (deviceContext, error) {
	driver, err := windows.UTF16PtrFromString("WINSPOOL")
	if err != nil {
		return 0, err
	}
	device, err := windows.UTF16PtrFromString(printerName)
	if err != nil {
		return 0, err
	}
	var dm uintptr
	if len(devmode) > 0 {
		dm = uintptr(unsafe.Pointer(&devmode[0]))
	}
	hdc, _, callErr := procCreateDCW.Call(
		uintptr(unsafe.Pointer(driver)),
		uintptr(unsafe.Pointer(device)),
		0,
		dm,
	)
	if hdc == 0 {
		return 0, callErr
	}
	return deviceContext(hdc), nil
}

func (dc deviceContext) delete() {
	_, _, _ = procDeleteDC.Call(uintptr(dc))
}

func (dc deviceContext) caps() Caps {
	get := func(index uintptr) int32 {
		v, _, _ := procGetDeviceCaps.Call(uintptr(dc), index)
		return int32(v)
	}
	return Caps{
		DPIX:            uint32(get(capLogPixelsX)),
		DPIY:            uint32(get(capLogPixelsY)),
		PrintableWidth:  get(capHorzRes),
		PrintableHeight: get(capVertRes),
		OffsetX:         get(capPhysicalOffsetX),
		OffsetY:         get(capPhysicalOffsetY),
		PhysicalWidth:   get(capPhysicalWidth),
		PhysicalHeight:  get(capPhysicalHeight),
	}
}

// startDoc returns the spooler job id, or the last error when it is <= 0
func (dc deviceContext) startDoc(jobName string) (int32, error) {
	name, err := windows.UTF16PtrFromString(jobName)
	if err != nil {
		return 0, err
	}
	info := docInfo{docName: name}
	info.size = int32(unsafe.Sizeof(info))
	r, _, callErr := procStartDocW.Call(uintptr(dc), uintptr(unsafe.Pointer(&info)))
	if int32(r) <= 0 {
		return 0, callErr
	}
	return int32(r), nil
}

func (dc deviceContext) endDoc() error {
	r, _, callErr := procEndDoc.Call(uintptr(dc))
	if int32(r) <= 0 {
		return callErr
	}
	return nil
}

func (dc deviceContext) startPage() bool {
	r, _, _ := procStartPage.Call(uintptr(dc))
	return int32(r) > 0
}

func (dc deviceContext) endPage() bool {
	r, _, _ := procEndPage.Call(uintptr(dc))
	return int32(r) > 0
}

func (dc deviceContext) setHalftone() {
	_, _, _ = procSetStretchBltMode.Call(uintptr(dc), stretchHalftone)
}

// stretch blits a top-down 32bpp raster into dest
func (dc deviceContext) stretch(r Raster, dest Rect) error {
	info := bitmapInfo{header: bitmapInfoHeader{
		width:       int32(r.Width),
		height:      -int32(r.Height),
		planes:      1,
		bitCount:    32,
		compression: biRGB,
	}}
	info.header.size = uint32(unsafe.Sizeof(info.header))

	lines, _, callErr := procStretchDIBits.Call(
		uintptr(dc),
		uintptr(dest.X), uintptr(dest.Y), uintptr(dest.Width), uintptr(dest.Height),
		0, 0, uintptr(r.Width), uintptr(r.Height),
		uintptr(unsafe.Pointer(&r.Pixels[0])),
		uintptr(unsafe.Pointer(&info)),
		dibRGBColors,
		srcCopy,
	)
	if lines == 0 {
		return callErr
	}
	return nil
}

// errno extracts the Win32 error code for messages
func errno(err error) uint32 {
	if e, ok := err.(windows.Errno); ok {
		return uint32(e)
	}
	return 0
}
