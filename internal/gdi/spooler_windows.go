//go:build windows

package gdi

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

const (
	printerEnumLocal       = 0x00000002
	printerEnumConnections = 0x00000004

	dmOutBuffer = 2
	dmInBuffer  = 8
)

type printerInfo2 struct {
	serverName         *uint16
	printerName        *uint16
	shareName          *uint16
	portName           *uint16
	driverName         *uint16
	comment            *uint16
	location           *uint16
	devMode            uintptr
	sepFile            *uint16
	printProcessor     *uint16
	datatype           *uint16
	parameters         *uint16
	securityDescriptor uintptr
	attributes         uint32
	priority           uint32
	defaultPriority    uint32
	startTime          uint32
	untilTime          uint32
	status             uint32
	jobs               uint32
	averagePPM         uint32
}

type formInfo1 struct {
	flags uint32
	name  *uint16
	size  [2]int32
	area  [4]int32
}

// enumPrinters lists local and connected printers with their status flags
func enumPrinters() ([]printer.PrinterInfo, error) {
	defaultName, _ := defaultPrinter()
	flags := uintptr(printerEnumLocal | printerEnumConnections)

	var needed, returned uint32
	_, _, _ = procEnumPrintersW.Call(flags, 0, 2, 0, 0,
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if needed == 0 {
		return []printer.PrinterInfo{}, nil
	}

	buf := make([]byte, needed)
	ok, _, callErr := procEnumPrintersW.Call(flags, 0, 2,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(needed),
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if ok == 0 {
		return nil, printer.PrinterLookupFailed("Failed to enumerate printers (error %d)", errno(callErr))
	}

	entries := unsafe.Slice((*printerInfo2)(unsafe.Pointer(&buf[0])), returned)
	result := make([]printer.PrinterInfo, 0, returned)
	for _, e := range entries {
		name := windows.UTF16PtrToString(e.printerName)
		if name == "" {
			continue
		}
		result = append(result, printer.PrinterInfo{
			Name:      name,
			IsDefault: defaultName != "" && name == defaultName,
			Status:    MapStatus(e.status),
		})
	}
	return result, nil
}

// defaultPrinter returns "" when none is configured
func defaultPrinter() (string, error) {
	var needed uint32
	_, _, _ = procGetDefaultPrinterW.Call(0, uintptr(unsafe.Pointer(&needed)))
	if needed == 0 {
		return "", nil
	}
	buf := make([]uint16, needed)
	ok, _, _ := procGetDefaultPrinterW.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&needed)))
	if ok == 0 {
		return "", nil
	}
	return windows.UTF16ToString(buf), nil
}

type printerHandle uintptr

func openPrinter(name string) (printerHandle, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	var h printerHandle
	ok, _, callErr := procOpenPrinterW.Call(uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(&h)), 0)
	if ok == 0 {
		return 0, callErr
	}
	return h, nil
}

func (h printerHandle) close() {
	_, _, _ = procClosePrinter.Call(uintptr(h))
}

// enumForms returns the form names the driver offers
func enumForms(name string) ([]string, error) {
	h, err := openPrinter(name)
	if err != nil {
		return nil, printer.PrinterLookupFailed("Failed to open printer for media enumeration: %v", err)
	}
	defer h.close()

	var needed, returned uint32
	_, _, _ = procEnumFormsW.Call(uintptr(h), 1, 0, 0,
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if needed == 0 {
		return nil, nil
	}

	buf := make([]byte, needed)
	ok, _, callErr := procEnumFormsW.Call(uintptr(h), 1,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(needed),
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if ok == 0 {
		return nil, printer.PrinterLookupFailed("Failed to enumerate printer media (error %d)", errno(callErr))
	}

	forms := unsafe.Slice((*formInfo1)(unsafe.Pointer(&buf[0])), returned)
	names := make([]string, 0, returned)
	for _, f := range forms {
		names = append(names, windows.UTF16PtrToString(f.name))
	}
	return names, nil
}

// buildDevmode fetches the driver's DEVMODE for the printer and applies the
// ticket through a second DocumentProperties pass so the driver validates it.
func buildDevmode(name string, t Ticket) ([]byte, error) {
	h, err := openPrinter(name)
	if err != nil {
		return nil, err
	}
	defer h.close()

	device, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}

	size, _, _ := procDocumentPropertiesW.Call(0, uintptr(h), uintptr(unsafe.Pointer(device)), 0, 0, 0)
	if int32(size) <= 0 {
		return nil, errors.New("DocumentProperties returned no DEVMODE size")
	}

	devmode := make([]byte, size)
	r, _, callErr := procDocumentPropertiesW.Call(0, uintptr(h), uintptr(unsafe.Pointer(device)),
		uintptr(unsafe.Pointer(&devmode[0])), 0, dmOutBuffer)
	if int32(r) < 0 {
		return nil, callErr
	}

	if err := ApplyTicket(devmode, t); err != nil {
		return nil, err
	}

	r, _, callErr = procDocumentPropertiesW.Call(0, uintptr(h), uintptr(unsafe.Pointer(device)),
		uintptr(unsafe.Pointer(&devmode[0])), uintptr(unsafe.Pointer(&devmode[0])), dmInBuffer|dmOutBuffer)
	if int32(r) < 0 {
		return nil, callErr
	}
	return devmode, nil
}
