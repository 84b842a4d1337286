//go:build windows

package gdi

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"github.com/go-ole/go-ole"
)

// Interface IDs used by the render chain
var (
	iidAsyncInfo                     = ole.NewGUID("{00000036-0000-0000-C000-000000000046}")
	iidStorageFileStatics            = ole.NewGUID("{5984C710-DAF2-43C8-8BB4-A4D3EACFD03F}")
	iidPdfDocumentStatics            = ole.NewGUID("{433A0B5F-C007-4788-90F2-08143D922599}")
	iidPdfPageRenderOptions          = ole.NewGUID("{3C98056F-B7CF-4C29-9A04-52D90267F425}")
	iidRandomAccessStream            = ole.NewGUID("{905A0FE1-BC53-11DF-8C49-001E4FC686DA}")
	iidBitmapDecoderStatics          = ole.NewGUID("{438CCB26-BCEF-4E95-BAD6-23A822E58D01}")
	iidBitmapFrameWithSoftwareBitmap = ole.NewGUID("{FE287C9A-420C-4963-87AD-691436E08383}")
	iidSoftwareBitmapStatics         = ole.NewGUID("{DF0385DB-672F-4A9D-806E-C2442F343E86}")
	iidBufferFactory                 = ole.NewGUID("{71AF914D-C10F-484B-BC50-14BC623B3A27}")
	iidBufferByteAccess              = ole.NewGUID("{905A0FEF-BC53-11DF-8C49-001E4FC686DA}")
)

// Runtime classes
const (
	classStorageFile          = "Windows.Storage.StorageFile"
	classPdfDocument          = "Windows.Data.Pdf.PdfDocument"
	classPdfPageRenderOptions = "Windows.Data.Pdf.PdfPageRenderOptions"
	classInMemoryStream       = "Windows.Storage.Streams.InMemoryRandomAccessStream"
	classBitmapDecoder        = "Windows.Graphics.Imaging.BitmapDecoder"
	classSoftwareBitmap       = "Windows.Graphics.Imaging.SoftwareBitmap"
	classBuffer               = "Windows.Storage.Streams.Buffer"
)

// AsyncStatus values
const (
	asyncStarted   = 0
	asyncCompleted = 1
	asyncCanceled  = 2
)

const (
	pixelFormatBgra8 = 87
	asyncPollDelay   = 2 * time.Millisecond
)

// comObject is a raw interface pointer owned by the caller
type comObject uintptr

func fromInspectable(i *ole.IInspectable) comObject {
	return comObject(unsafe.Pointer(i))
}

func (o comObject) method(slot int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(o))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
}

// call invokes vtable slot with the interface pointer as receiver and
// converts a failing HRESULT into an error.
func (o comObject) call(slot int, args ...uintptr) error {
	if o == 0 {
		return fmt.Errorf("nil interface pointer (slot %d)", slot)
	}
	hr, _, _ := syscall.SyscallN(o.method(slot), append([]uintptr{uintptr(o)}, args...)...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

// out invokes a method whose last argument receives an interface pointer
func (o comObject) out(slot int, args ...uintptr) (comObject, error) {
	var result uintptr
	if err := o.call(slot, append(args, uintptr(unsafe.Pointer(&result)))...); err != nil {
		return 0, err
	}
	return comObject(result), nil
}

func (o comObject) query(iid *ole.GUID) (comObject, error) {
	return o.out(slotQueryInterface, uintptr(unsafe.Pointer(iid)))
}

func (o comObject) release() {
	if o != 0 {
		_, _, _ = syscall.SyscallN(o.method(slotRelease), uintptr(o))
	}
}

func (o comObject) uint32At(slot int) (uint32, error) {
	var v uint32
	err := o.call(slot, uintptr(unsafe.Pointer(&v)))
	return v, err
}

func activationFactory(class string, iid *ole.GUID) (comObject, error) {
	factory, err := ole.RoGetActivationFactory(class, iid)
	if err != nil {
		return 0, fmt.Errorf("%s factory: %w", class, err)
	}
	return fromInspectable(factory), nil
}

func activate(class string, iid *ole.GUID) (comObject, error) {
	inspectable, err := ole.RoActivateInstance(class)
	if err != nil {
		return 0, fmt.Errorf("activate %s: %w", class, err)
	}
	obj := fromInspectable(inspectable)
	defer obj.release()
	return obj.query(iid)
}

// await blocks until an IAsyncOperation or IAsyncAction finishes. withResult
// selects whether GetResults writes an interface pointer.
func await(op comObject, withResult bool) (comObject, error) {
	defer op.release()

	info, err := op.query(iidAsyncInfo)
	if err != nil {
		return 0, err
	}
	defer info.release()

	for {
		status, err := info.uint32At(slotAsyncInfoStatus)
		if err != nil {
			return 0, err
		}
		if status != asyncStarted {
			if status == asyncCompleted {
				break
			}
			if status == asyncCanceled {
				return 0, fmt.Errorf("async operation canceled")
			}
			var code int32
			if err := info.call(slotAsyncInfoErrorCode, uintptr(unsafe.Pointer(&code))); err != nil {
				return 0, err
			}
			return 0, ole.NewError(uintptr(uint32(code)))
		}
		time.Sleep(asyncPollDelay)
	}

	if !withResult {
		return 0, op.call(slotAsyncGetResults)
	}
	return op.out(slotAsyncGetResults)
}

func withHString(s string, fn func(ole.HString) error) error {
	h, err := ole.NewHString(s)
	if err != nil {
		return err
	}
	defer func() { _ = ole.DeleteHString(h) }()
	return fn(h)
}
