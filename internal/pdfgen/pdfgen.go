// Package pdfgen binds normalized chapter images into a single PDF.
package pdfgen

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/canytam/bindery/internal/imaging"
)

// ErrNoImages indicates an empty image list was given.
var ErrNoImages = errors.New("no images to assemble")

// Assemble produces one PDF page per image in input order. Each page is
// auto-fit to its image's own dimensions (1 pixel = 1 point at 72 DPI),
// with no added borders or margins.
func Assemble(images []imaging.Image) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	var doc []byte
	for i, img := range images {
		// Page dimensions follow each image, so every image gets
		// its own import configuration.
		imp, err := api.Import(fmt.Sprintf("dim:%d %d, pos:full", img.Width, img.Height), types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("page %d import config: %w", i+1, err)
		}

		var rs io.ReadSeeker
		if doc != nil {
			rs = bytes.NewReader(doc)
		}

		var out bytes.Buffer
		if err := api.ImportImages(rs, &out, []io.Reader{bytes.NewReader(img.Data)}, imp, nil); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		doc = out.Bytes()
	}

	return doc, nil
}

// PageCount returns the number of pages in an assembled document.
func PageCount(doc []byte) (int, error) {
	return api.PageCount(bytes.NewReader(doc), nil)
}
