package pbtext

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// parser is the recursive-descent consumer of the token stream that
// locates schema fields and deposits typed values onto a target
// message. It needs exactly one token of look-ahead (the Tokenizer
// already provides that) and keeps no state beyond the tokenizer and the
// caller's options.
type parser struct {
	tok  *Tokenizer
	opts Options
}

// parseList drives the common "item (',' item)* ']'" grammar shared by
// every list form; the opening '[' must already be consumed. Trailing
// commas are not permitted.
func (p *parser) parseList(parseItem func() error) error {
	if p.tok.TryConsume("]") {
		return nil
	}
	for {
		if err := parseItem(); err != nil {
			return err
		}
		if p.tok.TryConsume("]") {
			return nil
		}
		if err := p.tok.Consume(","); err != nil {
			return err
		}
	}
}

// consumeOptionalSeparator discards a single ',' after a field, or
// additionally extra (';') while skipping an unknown field's contents.
func (p *parser) consumeOptionalSeparator(extra string) {
	if p.tok.TryConsume(",") {
		return
	}
	if extra != "" {
		p.tok.TryConsume(extra)
	}
}

func (p *parser) consumeDelimOpen() (string, error) {
	if p.tok.TryConsume("{") {
		return "{", nil
	}
	if p.tok.TryConsume("<") {
		return "<", nil
	}
	return "", p.tok.ParseError("Expected \"{\".")
}

func closingDelim(open string) string {
	if open == "<" {
		return ">"
	}
	return "}"
}

// mergeField implements §4.3's merge_field: it resolves one field name
// (plain or extension form) against md and deposits its value onto
// msg.
func (p *parser) mergeField(msg protoreflect.Message, md protoreflect.MessageDescriptor) error {
	if p.tok.LookingAt("[") {
		return p.mergeExtensionField(msg, md)
	}

	name, err := p.tok.ConsumeIdentifierOrNumber()
	if err != nil {
		return err
	}

	var fd protoreflect.FieldDescriptor
	if p.opts.AllowFieldNumber && isAllDigits(name) {
		fd, _ = byFieldNumber(md, name)
	}
	if fd == nil {
		fd, _ = byCamelCaseName(md, name)
	}
	if fd == nil {
		if p.opts.AllowUnknownField {
			return p.skipFieldValue()
		}
		return p.tok.ParseErrorPreviousToken("Message type %q has no field named %q.", md.FullName(), name)
	}
	return p.mergeFieldValue(msg, fd)
}

// mergeExtensionField resolves a bracketed "[a.b.c]" extension name via
// opts.Resolver.
func (p *parser) mergeExtensionField(msg protoreflect.Message, md protoreflect.MessageDescriptor) error {
	if err := p.tok.Consume("["); err != nil {
		return err
	}
	first, err := p.tok.ConsumeIdentifier()
	if err != nil {
		return err
	}
	parts := []string{first}
	for p.tok.TryConsume(".") {
		part, err := p.tok.ConsumeIdentifier()
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}
	name := strings.Join(parts, ".")
	if err := p.tok.Consume("]"); err != nil {
		return err
	}

	notFound := func() error {
		if p.opts.AllowUnknownExtension {
			return p.skipFieldValue()
		}
		return p.tok.ParseErrorPreviousToken("Extension %q not found.", name)
	}
	if p.opts.Resolver == nil {
		return notFound()
	}
	xt, err := p.opts.Resolver.FindExtensionByName(protoreflect.FullName(name))
	if err != nil || xt == nil {
		return notFound()
	}
	fd := xt.TypeDescriptor()
	if fd.ContainingMessage().FullName() != md.FullName() {
		return p.tok.ParseErrorPreviousToken("Extension %q does not extend message type %q.", name, md.FullName())
	}
	return p.mergeFieldValue(msg, fd)
}

// mergeFieldValue dispatches on a resolved field's shape: map, message,
// enum, or scalar.
func (p *parser) mergeFieldValue(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	switch {
	case fd.IsMap():
		return p.mergeMapField(msg, fd)
	case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
		return p.mergeMessageField(msg, fd)
	case fd.Kind() == protoreflect.EnumKind:
		return p.mergeEnumField(msg, fd)
	default:
		return p.mergeScalarField(msg, fd)
	}
}

// mergeMessageField parses a message field, whose colon is optional and
// whose delimiter is '{...}' or '<...>'. Repeated fields append a
// freshly-created sub-message; singular fields merge into any existing
// one.
func (p *parser) mergeMessageField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	p.tok.TryConsume(":")
	if fd.IsList() && p.tok.TryConsume("[") {
		return p.parseList(func() error { return p.mergeOneMessage(msg, fd) })
	}
	return p.mergeOneMessage(msg, fd)
}

func (p *parser) mergeOneMessage(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	delim, err := p.consumeDelimOpen()
	if err != nil {
		return err
	}
	var sub protoreflect.Message
	if fd.IsList() {
		sub = msg.Mutable(fd).List().AppendMutable().Message()
	} else {
		sub = msg.Mutable(fd).Message()
	}
	return p.mergeMessageBody(sub, delim)
}

// mergeMessageBody calls mergeField recursively until the delimiter
// matching delim is reached.
func (p *parser) mergeMessageBody(msg protoreflect.Message, delim string) error {
	closeDelim := closingDelim(delim)
	for {
		if p.tok.AtEnd() {
			return p.tok.ParseError("Expected %q.", closeDelim)
		}
		if p.tok.TryConsume(closeDelim) {
			return nil
		}
		if err := p.mergeField(msg, msg.Descriptor()); err != nil {
			return err
		}
		p.consumeOptionalSeparator("")
	}
}

// mergeMapField parses a map field. The colon is optional; a leading
// '[' switches to a list of entries.
func (p *parser) mergeMapField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	p.tok.TryConsume(":")
	if p.tok.TryConsume("[") {
		return p.parseList(func() error { return p.mergeOneMapEntry(msg, fd) })
	}
	return p.mergeOneMapEntry(msg, fd)
}

// mergeOneMapEntry parses a single "{ key: ... value: ... }"-shaped map
// entry and inserts it, replacing any prior value for the same key.
// Empty entry bodies are legal and insert nothing.
func (p *parser) mergeOneMapEntry(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	delim, err := p.consumeDelimOpen()
	if err != nil {
		return err
	}
	closeDelim := closingDelim(delim)

	keyFd := fd.MapKey()
	valFd := fd.MapValue()
	m := msg.Mutable(fd).Map()

	var (
		haveKey, haveVal bool
		key              protoreflect.MapKey
		val              protoreflect.Value
	)
	for {
		if p.tok.TryConsume(closeDelim) {
			break
		}
		if p.tok.AtEnd() {
			return p.tok.ParseError("Expected %q.", closeDelim)
		}
		switch {
		case p.tok.TryConsume("key"):
			p.tok.TryConsume(":")
			v, err := p.consumeScalarOrEnumValue(keyFd)
			if err != nil {
				return err
			}
			key = v.MapKey()
			haveKey = true
		case p.tok.TryConsume("value"):
			p.tok.TryConsume(":")
			if valFd.Message() != nil {
				d2, err := p.consumeDelimOpen()
				if err != nil {
					return err
				}
				nv := m.NewValue()
				if err := p.mergeMessageBody(nv.Message(), d2); err != nil {
					return err
				}
				val = nv
			} else {
				v, err := p.consumeScalarOrEnumValue(valFd)
				if err != nil {
					return err
				}
				val = v
			}
			haveVal = true
		default:
			return p.tok.ParseError("Unexpected field in map entry: %s", p.tok.current())
		}
		p.consumeOptionalSeparator("")
	}
	if haveKey && haveVal {
		m.Set(key, val)
	}
	return nil
}

// mergeScalarField parses a scalar field; the colon is required.
func (p *parser) mergeScalarField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	if err := p.tok.Consume(":"); err != nil {
		return err
	}
	if fd.IsList() && p.tok.TryConsume("[") {
		list := msg.Mutable(fd).List()
		return p.parseList(func() error {
			v, err := p.decodeScalarToken(fd)
			if err != nil {
				return err
			}
			list.Append(v)
			return nil
		})
	}
	v, err := p.decodeScalarToken(fd)
	if err != nil {
		return err
	}
	if fd.IsList() {
		msg.Mutable(fd).List().Append(v)
	} else {
		msg.Set(fd, v)
	}
	return nil
}

// mergeEnumField parses an enum field; the colon is required.
func (p *parser) mergeEnumField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	if err := p.tok.Consume(":"); err != nil {
		return err
	}
	if fd.IsList() && p.tok.TryConsume("[") {
		list := msg.Mutable(fd).List()
		return p.parseList(func() error {
			v, err := p.decodeEnumToken(fd)
			if err != nil {
				return err
			}
			list.Append(v)
			return nil
		})
	}
	v, err := p.decodeEnumToken(fd)
	if err != nil {
		return err
	}
	if fd.IsList() {
		msg.Mutable(fd).List().Append(v)
	} else {
		msg.Set(fd, v)
	}
	return nil
}

func (p *parser) consumeScalarOrEnumValue(fd protoreflect.FieldDescriptor) (protoreflect.Value, error) {
	if fd.Kind() == protoreflect.EnumKind {
		return p.decodeEnumToken(fd)
	}
	return p.decodeScalarToken(fd)
}

// decodeEnumToken parses the current token as an enum value: a
// numeric-looking token is taken as-is (open-enum semantics — unknown
// numeric values pass through), otherwise it is looked up by name.
func (p *parser) decodeEnumToken(fd protoreflect.FieldDescriptor) (protoreflect.Value, error) {
	if isNumericToken(p.tok.current()) {
		n, err := p.tok.ConsumeInt32()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(n)), nil
	}
	name, err := p.tok.ConsumeIdentifier()
	if err != nil {
		return protoreflect.Value{}, err
	}
	ed := fd.Enum()
	v := ed.Values().ByName(protoreflect.Name(name))
	if v == nil {
		return protoreflect.Value{}, p.tok.ParseErrorPreviousToken("Enum type %q has no value named %s.", ed.FullName(), name)
	}
	return protoreflect.ValueOfEnum(v.Number()), nil
}

func isNumericToken(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '-' || c == '+' || c == '.' || ('0' <= c && c <= '9')
}

// decodeScalarToken parses the current token per §4.2's wire-type
// decoder table.
func (p *parser) decodeScalarToken(fd protoreflect.FieldDescriptor) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.DoubleKind:
		f, err := p.tok.ConsumeFloat()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfFloat64(f), nil
	case protoreflect.FloatKind:
		f, err := p.tok.ConsumeFloat()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		n, err := p.tok.ConsumeInt32()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt32(n), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		n, err := p.tok.ConsumeUint32()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint32(n), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		n, err := p.tok.ConsumeInt64()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(n), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		n, err := p.tok.ConsumeUint64()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint64(n), nil
	case protoreflect.BoolKind:
		b, err := p.tok.ConsumeBool()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBool(b), nil
	case protoreflect.StringKind:
		s, err := p.tok.ConsumeString()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfString(s), nil
	case protoreflect.BytesKind:
		b, err := p.tok.ConsumeByteString()
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBytes(b), nil
	default:
		return protoreflect.Value{}, p.tok.ParseError("Unknown scalar type: %s", fd.Kind())
	}
}

// skipFieldValue consumes and discards one field's contents, used for
// AllowUnknownField / AllowUnknownExtension.
func (p *parser) skipFieldValue() error {
	if p.tok.TryConsume(":") {
		return p.skipValueAfterColon()
	}
	if p.tok.LookingAt("{") || p.tok.LookingAt("<") {
		delim, err := p.consumeDelimOpen()
		if err != nil {
			return err
		}
		return p.skipMessageBody(delim)
	}
	return p.tok.ParseError("Expected \":\".")
}

func (p *parser) skipValueAfterColon() error {
	if p.tok.TryConsume("[") {
		return p.parseList(p.skipOneValue)
	}
	return p.skipOneValue()
}

func (p *parser) skipOneValue() error {
	if p.tok.LookingAt("{") || p.tok.LookingAt("<") {
		delim, err := p.consumeDelimOpen()
		if err != nil {
			return err
		}
		return p.skipMessageBody(delim)
	}
	if !p.tok.TryConsumeAnyScalar() {
		return p.tok.ParseError("Expected value.")
	}
	return nil
}

func (p *parser) skipMessageBody(delim string) error {
	closeDelim := closingDelim(delim)
	for {
		if p.tok.AtEnd() {
			return p.tok.ParseError("Expected %q.", closeDelim)
		}
		if p.tok.TryConsume(closeDelim) {
			return nil
		}
		if _, err := p.skipFieldName(); err != nil {
			return err
		}
		if err := p.skipFieldValue(); err != nil {
			return err
		}
		p.consumeOptionalSeparator(";")
	}
}

func (p *parser) skipFieldName() (string, error) {
	if p.tok.TryConsume("[") {
		first, err := p.tok.ConsumeIdentifier()
		if err != nil {
			return "", err
		}
		parts := []string{first}
		for p.tok.TryConsume(".") {
			part, err := p.tok.ConsumeIdentifier()
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		if err := p.tok.Consume("]"); err != nil {
			return "", err
		}
		return strings.Join(parts, "."), nil
	}
	return p.tok.ConsumeIdentifierOrNumber()
}
