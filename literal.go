package pbtext

import (
	"math"
	"strconv"
	"strings"
)

// ConsumeInt32 parses the current token as a signed 32-bit integer.
func (t *Tokenizer) ConsumeInt32() (int32, error) {
	n, err := t.consumeSignedInt(32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// ConsumeUint32 parses the current token as an unsigned 32-bit integer.
func (t *Tokenizer) ConsumeUint32() (uint32, error) {
	n, err := t.consumeUnsignedInt(32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// ConsumeInt64 parses the current token as a signed 64-bit integer.
func (t *Tokenizer) ConsumeInt64() (int64, error) {
	return t.consumeSignedInt(64)
}

// ConsumeUint64 parses the current token as an unsigned 64-bit integer.
func (t *Tokenizer) ConsumeUint64() (uint64, error) {
	return t.consumeUnsignedInt(64)
}

// numberBase classifies an integer literal's base per §4.2: a 0x/0X
// prefix (optionally signed) is hexadecimal, a leading zero followed
// only by octal digits is octal, anything else is decimal.
func numberBase(tok string) (base int, digits string, neg bool) {
	s := tok
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return 16, s[2:], neg
	}
	if len(s) > 1 && s[0] == '0' && isAllOctal(s[1:]) {
		return 8, s, neg
	}
	return 10, s, neg
}

func isAllOctal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

func (t *Tokenizer) consumeSignedInt(bits int) (int64, error) {
	tok := t.cur
	base, digits, neg := numberBase(tok)
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		t.advance()
		return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
	}
	var n int64
	if neg {
		if u > -(math.MinInt64) {
			t.advance()
			return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
		}
		n = -int64(u)
	} else {
		if u > math.MaxInt64 {
			t.advance()
			return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
		}
		n = int64(u)
	}
	var lo, hi int64
	switch bits {
	case 32:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		lo, hi = math.MinInt64, math.MaxInt64
	}
	if n < lo || n > hi {
		t.advance()
		return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
	}
	t.advance()
	return n, nil
}

func (t *Tokenizer) consumeUnsignedInt(bits int) (uint64, error) {
	tok := t.cur
	base, digits, neg := numberBase(tok)
	if neg {
		t.advance()
		return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		t.advance()
		return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
	}
	var hi uint64
	switch bits {
	case 32:
		hi = math.MaxUint32
	default:
		hi = math.MaxUint64
	}
	if u > hi {
		t.advance()
		return 0, t.ParseErrorPreviousToken("Couldn't parse integer: %s", tok)
	}
	t.advance()
	return u, nil
}

// ConsumeFloat parses the current token as a floating-point literal.
func (t *Tokenizer) ConsumeFloat() (float64, error) {
	tok := t.cur
	f, ok := parseFloatLiteral(tok)
	if !ok {
		t.advance()
		return 0, t.ParseErrorPreviousToken("Couldn't parse number: %s", tok)
	}
	t.advance()
	return f, nil
}

func parseFloatLiteral(tok string) (float64, bool) {
	switch strings.ToLower(tok) {
	case "inf", "infinity", "+inf", "+infinity":
		return math.Inf(1), true
	case "-inf", "-infinity":
		return math.Inf(-1), true
	case "nan":
		return math.NaN(), true
	}
	s := strings.TrimSuffix(strings.TrimSuffix(tok, "f"), "F")
	if s == "" {
		s = tok
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ConsumeBool parses the current token per the bool grammar of §4.2.
func (t *Tokenizer) ConsumeBool() (bool, error) {
	tok := t.cur
	switch tok {
	case "true", "True", "t", "1":
		t.advance()
		return true, nil
	case "false", "False", "f", "0":
		t.advance()
		return false, nil
	}
	t.advance()
	return false, t.ParseErrorPreviousToken("Expected \"true\" or \"false\". Found %q.", tok)
}

// ConsumeString returns the concatenated, escape-expanded payload of one
// or more adjacent quoted literals.
func (t *Tokenizer) ConsumeString() (string, error) {
	b, err := t.consumeQuotedRun()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ConsumeByteString is like ConsumeString but reinterprets the decoded
// payload as an octet sequence, truncating each code point modulo 256.
func (t *Tokenizer) ConsumeByteString() ([]byte, error) {
	b, err := t.consumeQuotedRun()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	for i, r := range b {
		out[i] = byte(r & 0xff)
	}
	return out, nil
}

// consumeQuotedRun concatenates the decoded payloads of adjacent
// quoted-string tokens.
func (t *Tokenizer) consumeQuotedRun() ([]rune, error) {
	var out []rune
	for {
		tok := t.cur
		if len(tok) == 0 || (tok[0] != '"' && tok[0] != '\'') {
			return nil, t.ParseError("Expected string.")
		}
		quote := tok[0]
		if len(tok) < 2 || tok[len(tok)-1] != quote {
			return nil, t.ParseError("String missing ending quote: %s", tok)
		}
		decoded, err := t.unescape(tok[1 : len(tok)-1])
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
		t.advance()
		if t.atEnd || (len(t.cur) == 0 || (t.cur[0] != '"' && t.cur[0] != '\'')) {
			return out, nil
		}
	}
}

// unescape expands the C-style escape sequences of §4.2 found in the
// unquoted payload of a single string literal.
func (t *Tokenizer) unescape(payload string) ([]rune, error) {
	var out []rune
	i := 0
	for i < len(payload) {
		c := payload[i]
		if c != '\\' {
			r, size := firstRuneSize(payload[i:])
			out = append(out, r)
			i += size
			continue
		}
		if i+1 >= len(payload) {
			return nil, t.ParseError("String missing ending quote")
		}
		esc := payload[i+1]
		switch esc {
		case 'a':
			out = append(out, 0x07)
			i += 2
		case 'b':
			out = append(out, 0x08)
			i += 2
		case 'f':
			out = append(out, 0x0c)
			i += 2
		case 'n':
			out = append(out, 0x0a)
			i += 2
		case 'r':
			out = append(out, 0x0d)
			i += 2
		case 't':
			out = append(out, 0x09)
			i += 2
		case 'v':
			out = append(out, 0x0b)
			i += 2
		case '\\', '\'', '"', '?':
			out = append(out, rune(esc))
			i += 2
		case 'x', 'X':
			j := i + 2
			for j < len(payload) && j < i+4 && isHexDigit(payload[j]) {
				j++
			}
			if j == i+2 {
				return nil, t.ParseError("Invalid \\x escape")
			}
			n, _ := strconv.ParseInt(payload[i+2:j], 16, 32)
			out = append(out, rune(n))
			i = j
		case 'u':
			if i+6 > len(payload) {
				return nil, t.ParseError("Invalid \\u escape")
			}
			n, err := strconv.ParseInt(payload[i+2:i+6], 16, 32)
			if err != nil {
				return nil, t.ParseError("Invalid \\u escape")
			}
			out = append(out, rune(n))
			i += 6
		case 'U':
			if i+10 > len(payload) {
				return nil, t.ParseError("Invalid \\U escape")
			}
			n, err := strconv.ParseInt(payload[i+2:i+10], 16, 32)
			if err != nil {
				return nil, t.ParseError("Invalid \\U escape")
			}
			out = append(out, rune(n))
			i += 10
		default:
			if esc >= '0' && esc <= '7' {
				j := i + 1
				for j < len(payload) && j < i+4 && payload[j] >= '0' && payload[j] <= '7' {
					j++
				}
				n, _ := strconv.ParseInt(payload[i+1:j], 8, 32)
				out = append(out, rune(n))
				i = j
			} else {
				// Any other escaped character is itself, verbatim.
				out = append(out, rune(esc))
				i += 2
			}
		}
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
