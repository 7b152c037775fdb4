package throwable

import (
	"strconv"
	"strings"
)

// Line number sentinels.
const (
	// UnknownSource marks a frame whose file or line is not tracked.
	UnknownSource = -1
	// NativeMethod marks a native call with no file and no line.
	NativeMethod = -2
)

const (
	nativeMethodText  = "Native Method"
	unknownSourceText = "Unknown Source"
	absentToken       = "na"
)

// Frame is a single call-site record.
//
// FileName, CodeLocation and Version are absent when empty. CodeLocation and
// Version identify the artifact the frame's class was loaded from; Exact
// reports whether that match was confirmed. Exact is meaningless without
// provenance: it is not rendered, does not survive a round trip and is
// ignored by Equal.
type Frame struct {
	ClassName    string `json:"class_name" yaml:"class_name"`
	MethodName   string `json:"method_name" yaml:"method_name"`
	FileName     string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	LineNumber   int    `json:"line_number" yaml:"line_number"`
	CodeLocation string `json:"code_location,omitempty" yaml:"code_location,omitempty"`
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	Exact        bool   `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// IsNative reports whether the frame is a native method call.
func (f Frame) IsNative() bool { return f.LineNumber == NativeMethod }

// HasProvenance reports whether the frame carries a code location or version.
func (f Frame) HasProvenance() bool { return f.CodeLocation != "" || f.Version != "" }

// Equal reports whether f and o describe the same call site. Exact is only
// compared when the frames carry provenance.
func (f Frame) Equal(o Frame) bool {
	if !f.HasProvenance() {
		f.Exact = false
	}
	if !o.HasProvenance() {
		o.Exact = false
	}
	return f == o
}

// Format renders the frame without the leading "at ".
// When extended is set, the provenance suffix is appended if present.
func (f Frame) Format(extended bool) string {
	return string(f.AppendFormat(nil, extended))
}

// AppendFormat appends the rendered frame to dst.
func (f Frame) AppendFormat(dst []byte, extended bool) []byte {
	dst = append(dst, f.ClassName...)
	dst = append(dst, '.')
	dst = append(dst, f.MethodName...)
	dst = append(dst, '(')
	switch {
	case f.IsNative():
		dst = append(dst, nativeMethodText...)
	case f.FileName != "":
		dst = append(dst, f.FileName...)
		if f.LineNumber >= 0 {
			dst = append(dst, ':')
			dst = strconv.AppendInt(dst, int64(f.LineNumber), 10)
		}
	default:
		dst = append(dst, unknownSourceText...)
	}
	dst = append(dst, ')')

	if extended && f.HasProvenance() {
		if f.Exact {
			dst = append(dst, " ["...)
		} else {
			dst = append(dst, " ~["...)
		}
		dst = append(dst, f.CodeLocation...)
		dst = append(dst, ':')
		dst = append(dst, f.Version...)
		dst = append(dst, ']')
	}
	return dst
}

// String implements fmt.Stringer using the extended form.
func (f Frame) String() string { return f.Format(true) }

// ParseFrame parses a single frame line such as
//
//	com.acme.Foo.bar(Foo.java:42) ~[acme-core.jar:1.2.3]
//
// Surrounding whitespace and a leading "at " are ignored. The second result is
// false when the text is not a frame.
func ParseFrame(text string) (Frame, bool) {
	line := strings.TrimSpace(text)
	line = strings.TrimPrefix(line, "at ")

	open := strings.LastIndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < 0 || closing < open {
		return Frame{}, false
	}

	classAndMethod := line[:open]
	dot := strings.LastIndexByte(classAndMethod, '.')
	if dot < 0 {
		return Frame{}, false
	}

	f := Frame{
		ClassName:  classAndMethod[:dot],
		MethodName: classAndMethod[dot+1:],
		LineNumber: UnknownSource,
	}
	parseSource(&f, line[open+1:closing])
	parseProvenance(&f, line[closing+1:])
	return f, true
}

func parseSource(f *Frame, source string) {
	switch source {
	case nativeMethodText:
		f.LineNumber = NativeMethod
		return
	case unknownSourceText:
		return
	}

	colon := strings.LastIndexByte(source, ':')
	if colon < 0 {
		f.FileName = source
		return
	}
	n, err := strconv.Atoi(source[colon+1:])
	if err != nil {
		// Not a line number, e.g. a drive letter. Keep the whole field as the file.
		f.FileName = source
		return
	}
	f.FileName = source[:colon]
	f.LineNumber = n
}

func parseProvenance(f *Frame, remainder string) {
	if !strings.HasSuffix(remainder, "]") {
		return
	}
	open := strings.IndexByte(remainder, '[')
	if open < 0 {
		return
	}
	f.Exact = open == 0 || remainder[open-1] != '~'

	inner := remainder[open+1 : len(remainder)-1]
	location, version, _ := strings.Cut(inner, ":")
	f.CodeLocation = absentIfEmpty(location)
	f.Version = absentIfEmpty(version)
}

func absentIfEmpty(s string) string {
	if s == absentToken {
		return ""
	}
	return s
}
