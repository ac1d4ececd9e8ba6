package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/deepteams/webp"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatAPNG
	FormatJPEG
	FormatGIF
	FormatWebP
	FormatBMP
	FormatTIFF
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatAPNG:
		return "apng"
	case FormatJPEG:
		return "jpeg"
	case FormatGIF:
		return "gif"
	case FormatWebP:
		return "webp"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatPDF:
		return "pdf"
	}
	return "unknown"
}

// Sniff identifies the container format from magic bytes.
func Sniff(data []byte) Format {
	kind, err := filetype.Match(data)
	if err != nil {
		return FormatUnknown
	}
	switch kind {
	case matchers.TypePng:
		if isAPNG(data) {
			return FormatAPNG
		}
		return FormatPNG
	case matchers.TypeJpeg:
		return FormatJPEG
	case matchers.TypeGif:
		return FormatGIF
	case matchers.TypeWebp:
		return FormatWebP
	case matchers.TypeBmp:
		return FormatBMP
	case matchers.TypeTiff:
		return FormatTIFF
	case matchers.TypePdf:
		return FormatPDF
	}
	return FormatUnknown
}

// isAPNG reports whether an acTL chunk precedes the first IDAT chunk.
func isAPNG(data []byte) bool {
	actl := bytes.Index(data, []byte("acTL"))
	idat := bytes.Index(data, []byte("IDAT"))
	return actl > 0 && (idat < 0 || actl < idat)
}

// apngFrameCount reads num_frames from the acTL chunk.
func apngFrameCount(data []byte) int {
	actl := bytes.Index(data, []byte("acTL"))
	if actl < 0 || actl+8 > len(data) {
		return 0
	}
	return int(binary.BigEndian.Uint32(data[actl+4 : actl+8]))
}

// gifFrameCount walks the GIF block structure and counts image descriptors, stopping at
// limit. Pixel data is skipped, not decoded.
func gifFrameCount(data []byte, limit int) int {
	const header = 13 // signature + logical screen descriptor
	if len(data) < header {
		return 0
	}
	p := header
	if flags := data[10]; flags&0x80 != 0 {
		p += 3 << ((flags & 0x07) + 1)
	}
	n := 0
	for p < len(data) && n < limit {
		switch data[p] {
		case 0x21: // extension: introducer, label, sub-blocks
			p = skipSubBlocks(data, p+2)
		case 0x2C: // image descriptor
			if p+10 > len(data) {
				return n
			}
			flags := data[p+9]
			p += 10
			if flags&0x80 != 0 {
				p += 3 << ((flags & 0x07) + 1)
			}
			p = skipSubBlocks(data, p+1) // LZW minimum code size, then pixel data
			n++
		default: // trailer or garbage
			return n
		}
	}
	return n
}

func skipSubBlocks(data []byte, p int) int {
	for p < len(data) {
		size := int(data[p])
		p++
		if size == 0 {
			break
		}
		p += size
	}
	return p
}

// IsAnimatedFormat reports whether data holds more than one frame of its own. Only container
// headers are inspected.
func IsAnimatedFormat(data []byte) bool {
	switch Sniff(data) {
	case FormatAPNG:
		return apngFrameCount(data) > 1
	case FormatGIF:
		return gifFrameCount(data, 2) > 1
	case FormatWebP:
		feat, err := webp.GetFeatures(bytes.NewReader(data))
		return err == nil && feat.HasAnimation && feat.FrameCount > 1
	}
	return false
}

// DecodeStill decodes a single raster. page selects the page of a document source and is
// ignored otherwise.
func DecodeStill(data []byte, page, dpi int) (image.Image, error) {
	switch Sniff(data) {
	case FormatPDF:
		return RenderDocumentPage(data, page, dpi)
	case FormatUnknown:
		return nil, ErrUnsupportedFormat
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// DecodeSize returns the pixel dimensions DecodeStill would produce.
func DecodeSize(data []byte, page, dpi int) (int, int, error) {
	switch Sniff(data) {
	case FormatPDF:
		return DocumentPageSize(data, page, dpi)
	case FormatUnknown:
		return 0, 0, ErrUnsupportedFormat
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
