package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"pagestack/internal/pkg/errors"
)

const jpegQuality = 92

// Compose stacks page rasters vertically into a single JPEG-encoded image.
// Canvas width is the widest page, height the sum of page heights; narrower
// pages are pasted left-aligned and leave a white margin on the right.
// An empty raster set is a pipeline failure, never a zero-sized artifact.
func Compose(rasters []*PageRaster) (*CompositeImage, error) {
	if len(rasters) == 0 {
		return nil, errors.Composition("no pages to compose")
	}

	width, height := 0, 0
	for _, r := range rasters {
		if r.Width > width {
			width = r.Width
		}
		height += r.Height
	}

	canvas := imaging.New(width, height, color.White)

	y := 0
	for _, r := range rasters {
		draw.Draw(canvas, image.Rect(0, y, r.Width, y+r.Height), r.Image, image.Point{}, draw.Src)
		y += r.Height
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeComposition, "convert.compose", "failed to encode composite image")
	}

	return &CompositeImage{
		Width:  width,
		Height: height,
		Data:   buf.Bytes(),
	}, nil
}
