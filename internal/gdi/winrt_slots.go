package gdi

// Vtable slots of the WinRT interfaces used by the render chain. Slots 0-2
// are IUnknown and 3-5 IInspectable, so WinRT methods start at 6.
const (
	slotQueryInterface = 0
	slotRelease        = 2

	slotAsyncInfoStatus    = 7
	slotAsyncInfoErrorCode = 8
	slotAsyncGetResults    = 8

	slotStorageFileStaticsGetFileFromPathAsync = 6
	slotPdfDocumentStaticsLoadFromFileAsync    = 6
	slotPdfDocumentGetPage                     = 6
	slotPdfDocumentPageCount                   = 7
	slotPdfPageRenderToStreamAsync             = 6
	slotPdfPageRenderWithOptionsToStreamAsync  = 7
	slotPdfPageSize                            = 10
	slotRenderOptionsPutDestinationWidth       = 9
	slotRenderOptionsPutDestinationHeight      = 11
	slotRenderOptionsPutBackgroundColor        = 13
	slotRandomAccessStreamSeek                 = 11

	slotBitmapDecoderStaticsCreateAsync = 14
	slotFrameGetSoftwareBitmapAsync     = 6
	slotSoftwareBitmapPixelFormat       = 6
	slotSoftwareBitmapPixelWidth        = 8
	slotSoftwareBitmapPixelHeight       = 9
	slotSoftwareBitmapCopyToBuffer      = 18
	slotSoftwareBitmapStaticsConvert    = 7
	slotBufferFactoryCreate             = 6
	slotBufferLength                    = 7
	slotBufferByteAccessBuffer          = 3
)
