package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// RenderDocumentPage rasterizes one page of an in-memory PDF at dpi.
func RenderDocumentPage(data []byte, page, dpi int) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d)", page, doc.NumPage())
	}
	return doc.ImageDPI(page, float64(dpi))
}

// DocumentPageSize returns the pixel size of a page rendered at dpi. fitz reports bounds at 72 dpi.
func DocumentPageSize(data []byte, page, dpi int) (int, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, 0, fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return 0, 0, fmt.Errorf("page %d out of range (document has %d)", page, doc.NumPage())
	}
	rect, err := doc.Bound(page)
	if err != nil {
		return 0, 0, err
	}
	scale := float64(dpi) / 72
	return int(float64(rect.Dx()) * scale), int(float64(rect.Dy()) * scale), nil
}
