// Package pbtext implements a parser for the protocol-buffer text
// format: a human-readable encoding of structured messages whose
// schema is described by a protocol-buffer type definition.
//
// Parse consumes a UTF-8 text document and merges its contents into a
// caller-supplied, schema-typed [protoreflect.Message], mirroring the
// merge semantics of the reference text-format grammar:
//
//	msg := dynamicpb.NewMessage(md)
//	if _, err := pbtext.Parse(`name: "hi" count: 3`, msg, pbtext.Options{}); err != nil {
//		// ...
//	}
//
// # Grammar
//
// Scalars of every wire type, messages with both "{...}" and "<...>"
// delimiter syntax, repeated fields in both singular and list form,
// map fields, enums (including unknown numeric values), extensions
// written as "[a.b.c]", and field lookup by number are all supported.
// Comments start with "#" and run to end of line. Numbers accept
// decimal, hexadecimal ("0x"/"0X") and C-style octal (a leading zero
// followed only by octal digits). Strings may be single- or
// double-quoted, support the usual C escapes plus "\uXXXX"/"\UXXXXXXXX"
// Unicode escapes, and adjacent string literals concatenate.
//
// # Scope
//
// This package does not load schemas from their binary or textual
// definitions, construct empty typed messages, perform file or
// network I/O, or provide a command-line entry point — those are the
// caller's responsibility, naturally filled by
// [google.golang.org/protobuf/reflect/protodesc],
// [google.golang.org/protobuf/types/dynamicpb], and ordinary file
// reads. It does not encode the binary wire format, emit text-format
// output, perform schema validation beyond what merging requires, or
// support unknown-group syntax beyond capitalized-name recognition.
package pbtext

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// ParseError is the single error kind raised by this package. Line and
// Column are 1-based; both are zero when no position is known.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func newParseError(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	if e.Column == 0 {
		return fmt.Sprintf("%d : %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%d:%d : %s", e.Line, e.Column, e.Message)
}

// ExtensionResolver looks up an extension's type by its fully-qualified
// dotted name. *protoregistry.Types satisfies this interface directly.
type ExtensionResolver interface {
	FindExtensionByName(field protoreflect.FullName) (protoreflect.ExtensionType, error)
}

// Options controls optional parsing behaviors; the zero value rejects
// every unknown construct.
type Options struct {
	// AllowUnknownExtension causes unrecognized "[a.b.c]" extension
	// names to be skipped instead of raising an error.
	AllowUnknownExtension bool

	// AllowFieldNumber causes a bare integer field name to be
	// resolved by its numeric field tag.
	AllowFieldNumber bool

	// AllowUnknownField causes unrecognized field names to have
	// their contents skipped instead of raising an error.
	AllowUnknownField bool

	// Resolver resolves "[a.b.c]" extension names. If nil, any
	// extension form raises an error (subject to
	// AllowUnknownExtension).
	Resolver ExtensionResolver
}

// Parse splits text into lines, tokenizes it, and repeatedly merges
// fields into msg until the input is exhausted, returning the same
// (mutated) message.
func Parse(text string, msg protoreflect.Message, opts Options) (protoreflect.Message, error) {
	tok := NewTokenizer(text)
	p := &parser{tok: tok, opts: opts}
	for !tok.AtEnd() {
		if err := p.mergeField(msg, msg.Descriptor()); err != nil {
			return msg, err
		}
		p.consumeOptionalSeparator("")
	}
	return msg, nil
}
