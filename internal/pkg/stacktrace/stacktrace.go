// Package stacktrace captures the application's own frames from the current stack.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 64

// modulePrefix is the import path of this module followed by "/internal/",
// derived from this package's own symbol.
var modulePrefix = func() string {
	pc, _, _, _ := runtime.Caller(0)
	name := runtime.FuncForPC(pc).Name()
	if i := strings.Index(name, "/internal/"); i >= 0 {
		return name[:i+len("/internal/")]
	}
	return "/internal/"
}()

// Frame is one call site inside the module.
type Frame struct {
	Function string
	File     string
	Line     int
}

// String renders the frame as "internal/pkg/x/file.go:42".
func (f Frame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line)
}

// Internal returns the frames of the caller's stack that belong to this
// module's internal packages, innermost first. skip is the number of frames above the
// caller to omit, as in runtime.Callers.
func Internal(skip int) []Frame {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)

	frames := runtime.CallersFrames(pcs[:n])
	var out []Frame
	for {
		fr, more := frames.Next()
		if strings.HasPrefix(fr.Function, modulePrefix) {
			file := fr.File
			if i := strings.LastIndex(file, "/internal/"); i >= 0 {
				file = file[i+1:]
			}
			out = append(out, Frame{Function: fr.Function, File: file, Line: fr.Line})
		}
		if !more {
			break
		}
	}

	return out
}

// Strings renders frames with Frame.String.
func Strings(frames []Frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.String()
	}
	return out
}
