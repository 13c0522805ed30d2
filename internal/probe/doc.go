// Package probe measures frame dimensions, either through ffprobe's JSON
// output or by decoding the image header in-process.
//
// The pipeline only needs the first extracted frame's size to choose which
// side constrains the resize, so both probers return [Dimensions].
package probe
