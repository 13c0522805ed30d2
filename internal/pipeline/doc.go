// Package pipeline converts one source video into one CE project directory.
//
// A run has four strictly ordered stages:
//
//   - extract: sample the source at the target frame rate into
//     frames/<id>/normal-<fps>fps
//   - resize: probe the first frame, fit it to the reference canvas, and
//     scale every frame into frames/<id>/resized-<fps>fps-<w>x<h>
//   - quantize: write the convimg descriptor and let convimg build the
//     palette and sprite sources
//   - assemble: order frames numerically, regenerate calc/<key>/ and copy
//     the sprite sources into it
//
// Filesystem access goes through [FS]; tools run through a tool.Runner and
// dimensions come from a probe.Prober, so the whole run can be exercised
// against fakes.
package pipeline
