package pbtext

import (
	"strconv"
	"strings"
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// fieldIndex is the read-only directory over a message descriptor that
// §3's "schema view" describes: lookup by camelCase name and a
// lowercase-name fallback for capitalized group-style names. Lookup by
// field number goes through the descriptor itself (see byFieldNumber).
type fieldIndex struct {
	byCamel map[string]protoreflect.FieldDescriptor
	byLower map[string]protoreflect.FieldDescriptor
}

var fieldIndexCache sync.Map // protoreflect.MessageDescriptor -> *fieldIndex

func indexFor(md protoreflect.MessageDescriptor) *fieldIndex {
	if v, ok := fieldIndexCache.Load(md); ok {
		return v.(*fieldIndex)
	}
	fields := md.Fields()
	idx := &fieldIndex{
		byCamel: make(map[string]protoreflect.FieldDescriptor, fields.Len()),
		byLower: make(map[string]protoreflect.FieldDescriptor, fields.Len()),
	}
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		name := string(fd.Name())
		idx.byCamel[toCamelCase(name)] = fd
		idx.byLower[strings.ToLower(name)] = fd
	}
	v, _ := fieldIndexCache.LoadOrStore(md, idx)
	return v.(*fieldIndex)
}

// toCamelCase converts a snake_case (or already-camel) field name to
// camelCase: underscores drop, and the next ASCII lowercase letter is
// upper-cased.
func toCamelCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upperNext := false
	for _, r := range name {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext && 'a' <= r && r <= 'z' {
			b.WriteRune(r - ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
		upperNext = false
	}
	return b.String()
}

// byCamelCaseName resolves a plain field-name token to a field
// descriptor per §4.3's plain-form resolution: first by camelCase
// name, then by lowercase name whose resolved sub-message's simple
// name equals the original token (capitalized group-style names).
func byCamelCaseName(md protoreflect.MessageDescriptor, token string) (protoreflect.FieldDescriptor, bool) {
	idx := indexFor(md)
	if fd, ok := idx.byCamel[toCamelCase(token)]; ok {
		return fd, true
	}
	if fd, ok := idx.byLower[strings.ToLower(token)]; ok {
		if sub := fd.Message(); sub != nil && string(sub.Name()) == token {
			return fd, true
		}
	}
	return nil, false
}

// byFieldNumber resolves a purely-numeric token to a field descriptor.
func byFieldNumber(md protoreflect.MessageDescriptor, token string) (protoreflect.FieldDescriptor, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return nil, false
	}
	fd := md.Fields().ByNumber(protoreflect.FieldNumber(n))
	return fd, fd != nil
}

// isAllDigits reports whether token is composed entirely of decimal
// digits (the test applied before treating a plain-form token as a
// field-number reference).
func isAllDigits(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
