// Package imaging implements the pixel operations the pipeline invokes by
// name: resampling and geometry, tone and color adjustment, convolution
// effects, compositing, color reduction, text and generated images.
//
// Every function takes *image.NRGBA and returns a new image; inputs are
// never modified, so callers may share a source buffer between list
// entries. Functions that can reject their arguments return an error;
// the rest clamp out-of-range values.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner.
// Rectangles follow image.Rectangle: Min is inclusive, Max exclusive.
//
// # Color Representation
//
// Colors are straight (non-premultiplied) color.NRGBA. ParseColor accepts
// hex, rgb()/rgba()/hsl() functional notation and the named colors the
// command line uses; FormatColor is its inverse.
package imaging
