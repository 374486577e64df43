package convert

import (
	"fmt"

	"github.com/gen2brain/go-fitz"

	"pagestack/internal/pkg/errors"
)

// DefaultDPI is a 2x zoom over the 72 DPI reference unit. The DPI is
// applied as a dpi/72 scale factor on both axes.
const DefaultDPI = 144

// Renderer opens documents from raw bytes.
type Renderer interface {
	Open(data []byte) (Document, error)
}

// Document is an open document handle that can rasterize individual pages.
type Document interface {
	PageCount() int
	RenderPage(index int, dpi float64) (*PageRaster, error)
	Close() error
}

// fitzRenderer rasterizes PDFs through MuPDF.
type fitzRenderer struct{}

// NewPDFRenderer returns the MuPDF-backed Renderer used in production.
func NewPDFRenderer() Renderer {
	return fitzRenderer{}
}

func (fitzRenderer) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeRender, "convert.open", "corrupt or unsupported document")
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(index int, dpi float64) (*PageRaster, error) {
	img, err := d.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeRender, "convert.render",
			fmt.Sprintf("failed to rasterize page %d", index+1))
	}

	bounds := img.Bounds()
	return &PageRaster{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Image:  img,
	}, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
