//go:build windows

package gdi

import (
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// white, packed as Windows.UI.Color {A, R, G, B}
const backgroundWhite = 0xFFFFFFFF

// Raster is one page as top-down BGRA8 rows
type Raster struct {
	Pixels []byte
	Width  uint32
	Height uint32
}

type pdfDocument struct {
	obj comObject
}

// loadDocument opens a PDF through StorageFile and PdfDocument. Must be
// called inside an initialized COM apartment.
func loadDocument(path string) (*pdfDocument, error) {
	fileStatics, err := activationFactory(classStorageFile, iidStorageFileStatics)
	if err != nil {
		return nil, printer.PrintCommandFailed("%v", err)
	}
	defer fileStatics.release()

	var op comObject
	err = withHString(path, func(h ole.HString) error {
		var callErr error
		op, callErr = fileStatics.out(slotStorageFileStaticsGetFileFromPathAsync, uintptr(h))
		return callErr
	})
	if err != nil {
		return nil, printer.PrintCommandFailed("%v", err)
	}
	file, err := await(op, true)
	if err != nil {
		return nil, printer.PrintCommandFailed("%v", err)
	}
	defer file.release()

	docStatics, err := activationFactory(classPdfDocument, iidPdfDocumentStatics)
	if err != nil {
		return nil, printer.PrintCommandFailed("%v", err)
	}
	defer docStatics.release()

	op, err = docStatics.out(slotPdfDocumentStaticsLoadFromFileAsync, uintptr(file))
	if err != nil {
		return nil, printer.PrintCommandFailed("%v", err)
	}
	doc, err := await(op, true)
	if err != nil {
		return nil, printer.PrintCommandFailed("%v", err)
	}
	return &pdfDocument{obj: doc}, nil
}

func (d *pdfDocument) pageCount() (uint32, error) {
	n, err := d.obj.uint32At(slotPdfDocumentPageCount)
	if err != nil {
		return 0, printer.PrintCommandFailed("%v", err)
	}
	return n, nil
}

func (d *pdfDocument) page(index uint32) (comObject, error) {
	p, err := d.obj.out(slotPdfDocumentGetPage, uintptr(index))
	if err != nil {
		return 0, printer.PrintCommandFailed("%v", err)
	}
	return p, nil
}

func (d *pdfDocument) close() {
	d.obj.release()
}

// pageSize returns the page dimensions in points
func pageSize(page comObject) (float32, float32, error) {
	var size struct{ Width, Height float32 }
	if err := page.call(slotPdfPageSize, uintptr(unsafe.Pointer(&size))); err != nil {
		return 0, 0, printer.PrintCommandFailed("%v", err)
	}
	return size.Width, size.Height, nil
}

func newStream() (comObject, error) {
	return activate(classInMemoryStream, iidRandomAccessStream)
}

func rewind(stream comObject) error {
	return stream.call(slotRandomAccessStreamSeek, 0)
}

func renderWithOptions(page comObject, width, height uint32) (comObject, error) {
	stream, err := newStream()
	if err != nil {
		return 0, err
	}
	options, err := activate(classPdfPageRenderOptions, iidPdfPageRenderOptions)
	if err != nil {
		stream.release()
		return 0, err
	}
	defer options.release()

	for _, step := range []func() error{
		func() error { return options.call(slotRenderOptionsPutDestinationWidth, uintptr(width)) },
		func() error { return options.call(slotRenderOptionsPutDestinationHeight, uintptr(height)) },
		func() error { return options.call(slotRenderOptionsPutBackgroundColor, backgroundWhite) },
	} {
		if err := step(); err != nil {
			stream.release()
			return 0, err
		}
	}

	action, err := page.out(slotPdfPageRenderWithOptionsToStreamAsync, uintptr(stream), uintptr(options))
	if err == nil {
		_, err = await(action, false)
	}
	if err == nil {
		err = rewind(stream)
	}
	if err != nil {
		stream.release()
		return 0, err
	}
	return stream, nil
}

func renderDefault(page comObject) (comObject, error) {
	stream, err := newStream()
	if err != nil {
		return 0, err
	}
	action, err := page.out(slotPdfPageRenderToStreamAsync, uintptr(stream))
	if err == nil {
		_, err = await(action, false)
	}
	if err == nil {
		err = rewind(stream)
	}
	if err != nil {
		stream.release()
		return 0, err
	}
	return stream, nil
}

// renderPage rasterizes one page through the fallback chain and decodes it
func renderPage(page comObject, width, height uint32) (Raster, error) {
	stream, err := RenderWithFallback(width, height,
		func(w, h uint32) (comObject, error) { return renderWithOptions(page, w, h) },
		func() (comObject, error) { return renderDefault(page) },
	)
	if err != nil {
		return Raster{}, err
	}
	defer stream.release()

	return decodeBGRA(stream)
}

// decodeBGRA decodes the rendered stream and copies its pixels out
func decodeBGRA(stream comObject) (Raster, error) {
	fail := func(err error) (Raster, error) {
		return Raster{}, printer.PrintCommandFailed("%v", err)
	}

	decoderStatics, err := activationFactory(classBitmapDecoder, iidBitmapDecoderStatics)
	if err != nil {
		return fail(err)
	}
	defer decoderStatics.release()

	op, err := decoderStatics.out(slotBitmapDecoderStaticsCreateAsync, uintptr(stream))
	if err != nil {
		return fail(err)
	}
	decoder, err := await(op, true)
	if err != nil {
		return fail(err)
	}
	defer decoder.release()

	frame, err := decoder.query(iidBitmapFrameWithSoftwareBitmap)
	if err != nil {
		return fail(err)
	}
	defer frame.release()

	op, err = frame.out(slotFrameGetSoftwareBitmapAsync)
	if err != nil {
		return fail(err)
	}
	bitmap, err := await(op, true)
	if err != nil {
		return fail(err)
	}
	defer func() { bitmap.release() }()

	format, err := bitmap.uint32At(slotSoftwareBitmapPixelFormat)
	if err != nil {
		return fail(err)
	}
	if format != pixelFormatBgra8 {
		statics, err := activationFactory(classSoftwareBitmap, iidSoftwareBitmapStatics)
		if err != nil {
			return fail(err)
		}
		converted, err := statics.out(slotSoftwareBitmapStaticsConvert, uintptr(bitmap), pixelFormatBgra8)
		statics.release()
		if err != nil {
			return fail(err)
		}
		bitmap.release()
		bitmap = converted
	}

	width, err := bitmap.uint32At(slotSoftwareBitmapPixelWidth)
	if err != nil {
		return fail(err)
	}
	height, err := bitmap.uint32At(slotSoftwareBitmapPixelHeight)
	if err != nil {
		return fail(err)
	}
	total := width * height * 4

	bufferFactory, err := activationFactory(classBuffer, iidBufferFactory)
	if err != nil {
		return fail(err)
	}
	defer bufferFactory.release()

	buffer, err := bufferFactory.out(slotBufferFactoryCreate, uintptr(total))
	if err != nil {
		return fail(err)
	}
	defer buffer.release()

	if err := bitmap.call(slotSoftwareBitmapCopyToBuffer, uintptr(buffer)); err != nil {
		return fail(err)
	}
	length, err := buffer.uint32At(slotBufferLength)
	if err != nil {
		return fail(err)
	}

	access, err := buffer.query(iidBufferByteAccess)
	if err != nil {
		return fail(err)
	}
	defer access.release()

	data, err := access.out(slotBufferByteAccessBuffer)
	if err != nil {
		return fail(err)
	}

	n := min(length, total)
	pixels := make([]byte, total)
	copy(pixels, unsafe.Slice((*byte)(unsafe.Pointer(uintptr(data))), n))

	if n < total {
		return Raster{}, printer.PrintCommandFailed("bitmap copy returned %d of %d bytes", n, total)
	}
	return Raster{Pixels: pixels, Width: width, Height: height}, nil
}

func (r Raster) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
