// Package tool builds argument vectors for the external collaborators
// (ffmpeg, convimg, make) and runs them with captured output.
//
// Commands are always argv slices executed without a shell, in an explicit
// working directory. Output is buffered rather than inherited so concurrent
// callers never interleave; a verbose runner additionally tees it live.
//
// Split: builder.go (argument vectors), executor.go (Runner, ExecRunner),
// errors.go (ToolError, stderr hints).
package tool
