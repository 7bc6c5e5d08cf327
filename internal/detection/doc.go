// Package detection finds geometric features in images.
//
// HoughLines runs a Hough line transform over an edge image, usually the
// output of a Canny pass, and DrawLines renders the result. Together they
// implement the -hough-lines operator.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Hough Space
//
// Lines are parameterized as x·cos(θ) + y·sin(θ) = ρ with θ sampled in
// whole degrees from 0 to 179. A cell of the accumulator is a line when
// its vote count reaches the threshold and it is the maximum of the
// window around it.
package detection
