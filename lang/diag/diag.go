// Package diag defines the error taxonomy and diagnostic types shared by
// every component of the toolchain (bytecode codec, compiler, linker, and
// DAP core), so that a caller can use errors.As against one small vocabulary
// instead of each package inventing its own error shapes.
package diag

import "fmt"

// FormatError reports a structural or decode problem in a binary payload.
type FormatError struct{ Reason string }

func (e *FormatError) Error() string { return fmt.Sprintf("format: %s", e.Reason) }

// HashMismatchError reports a CRC-32 mismatch: Expected is the checksum
// freshly computed over the payload, Found is the one stored in the buffer.
type HashMismatchError struct {
	Expected uint32
	Found    uint32
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("hash mismatch: expected %08x, found %08x", e.Expected, e.Found)
}

// ArityError reports a function or native call with the wrong argument count.
type ArityError struct {
	Expected int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("arity mismatch: expected %d, got %d", e.Expected, e.Got)
}

// TypeMismatchError reports a static or dynamic type error, with a free-form
// description of the mismatched operands.
type TypeMismatchError struct{ Details string }

func (e *TypeMismatchError) Error() string { return fmt.Sprintf("type mismatch: %s", e.Details) }

// UnboundVarError reports a reference to an undeclared identifier.
type UnboundVarError struct{ Name string }

func (e *UnboundVarError) Error() string { return fmt.Sprintf("unbound variable: %s", e.Name) }

// NotFoundError reports a missing symbol, entry point, or other named
// resource.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("not found: %s", e.Name) }

// CycleError reports a dependency cycle among the given names.
type CycleError struct{ Names []string }

func (e *CycleError) Error() string { return fmt.Sprintf("cycle: %v", e.Names) }

// UnsupportedError reports a feature that is recognized but not implemented.
type UnsupportedError struct{ Feature string }

func (e *UnsupportedError) Error() string { return fmt.Sprintf("unsupported: %s", e.Feature) }

// IoError reports a filesystem or transport problem, typically wrapping an
// os-level error crossing the native-function registry boundary.
type IoError struct{ Details string }

func (e *IoError) Error() string { return fmt.Sprintf("io: %s", e.Details) }

// ProtocolError reports a DAP framing or JSON-shape problem.
type ProtocolError struct{ Reason string }

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol: %s", e.Reason) }

// Sentinel errors for conditions that don't carry extra payload.
var (
	ErrOutOfBounds = fmt.Errorf("out of bounds")
	ErrBadIndex    = fmt.Errorf("bad index")
	ErrNaNCompare  = fmt.Errorf("NaN comparison")
	ErrTimeout     = fmt.Errorf("timeout")
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Span is an optional source range attached to a Diagnostic.
type Span struct {
	Start, End uint32
	Valid      bool
}

// Diagnostic is a single compiler (or linker) message, optionally located at
// a source span.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     Span
}

func (d Diagnostic) String() string {
	if d.Span.Valid {
		return fmt.Sprintf("%s: %s (at %d..%d)", d.Severity, d.Message, d.Span.Start, d.Span.End)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// List accumulates diagnostics across compiler passes; callers collect
// everything and only fail between passes rather than at the first problem.
type List struct {
	Diags []Diagnostic
}

func (l *List) Add(sev Severity, msg string) {
	l.Diags = append(l.Diags, Diagnostic{Severity: sev, Message: msg})
}

func (l *List) AddSpan(sev Severity, msg string, start, end uint32) {
	l.Diags = append(l.Diags, Diagnostic{Severity: sev, Message: msg, Span: Span{Start: start, End: end, Valid: true}})
}

// HasErrors reports whether any diagnostic in the list is Error severity, or
// Warning severity when denyWarnings is set.
func (l *List) HasErrors(denyWarnings bool) bool {
	for _, d := range l.Diags {
		if d.Severity == Error {
			return true
		}
		if denyWarnings && d.Severity == Warning {
			return true
		}
	}
	return false
}

func (l *List) Error() string {
	if len(l.Diags) == 0 {
		return "no diagnostics"
	}
	s := fmt.Sprintf("%d diagnostic(s):\n", len(l.Diags))
	for _, d := range l.Diags {
		s += "  " + d.String() + "\n"
	}
	return s
}
