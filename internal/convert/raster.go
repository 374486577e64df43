// Package convert implements the document-to-image pipeline and the job
// lifecycle state machine that drives it.
package convert

import "image"

// PageRaster is the decoded pixel buffer for one rendered page. It lives only
// for the duration of a single pipeline run.
type PageRaster struct {
	Width  int
	Height int
	Image  image.Image
}

// CompositeImage is the encoded result of stacking all page rasters
// vertically: width is the max page width, height the sum of page heights.
type CompositeImage struct {
	Width  int
	Height int
	Data   []byte
}
