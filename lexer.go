package pbtext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Tokenizer splits a text-format document into a stream of tokens with
// (line,column) provenance, and classifies scalar literals on demand. It
// keeps exactly one token of look-ahead: the current token plus the
// previous token's position, enough for the parser to report errors
// against either.
type Tokenizer struct {
	lines []string
	line  int
	col   int

	cur      string
	curLine  int
	curCol   int
	atEnd    bool
	prevLine int
	prevCol  int
}

// NewTokenizer constructs a Tokenizer over text and advances to the first
// real token.
func NewTokenizer(text string) *Tokenizer {
	t := &Tokenizer{lines: strings.Split(text, "\n")}
	t.advance()
	return t
}

var (
	spaceRE     = regexp.MustCompile(`^(?:\s|#.*)+`)
	identRE     = regexp.MustCompile(`^[A-Za-z_][0-9A-Za-z_+-]*`)
	numberRE    = regexp.MustCompile(`^([0-9+-]|(\.[0-9]))[0-9A-Za-z_.+-]*`)
	dquoteRE    = regexp.MustCompile(`^"([^"\n\\]|\\.)*("|\\?$)`)
	squoteRE    = regexp.MustCompile(`^'([^'\n\\]|\\.)*('|\\?$)`)
	identOnlyRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	wordRE      = regexp.MustCompile(`^\w+$`)
)

// currentLine returns the unconsumed remainder of the current line.
func (t *Tokenizer) currentLine() string {
	if t.line >= len(t.lines) {
		return ""
	}
	return t.lines[t.line][t.col:]
}

// skipSpace consumes whitespace and line comments, crossing line
// boundaries as needed.
func (t *Tokenizer) skipSpace() {
	for t.line < len(t.lines) {
		rest := t.currentLine()
		if m := spaceRE.FindString(rest); m != "" {
			t.col += len(m)
			rest = t.currentLine()
		}
		if rest != "" {
			return
		}
		t.line++
		t.col = 0
	}
}

// advance scans the next token into t.cur, recording the previous
// token's position first.
func (t *Tokenizer) advance() {
	t.prevLine, t.prevCol = t.curLine, t.curCol
	t.skipSpace()
	if t.line >= len(t.lines) {
		t.cur = ""
		t.atEnd = true
		return
	}
	t.curLine, t.curCol = t.line, t.col
	rest := t.currentLine()

	var m string
	switch {
	case identRE.MatchString(rest):
		m = identRE.FindString(rest)
	case numberRE.MatchString(rest):
		m = numberRE.FindString(rest)
	case strings.HasPrefix(rest, `"`):
		m = dquoteRE.FindString(rest)
	case strings.HasPrefix(rest, `'`):
		m = squoteRE.FindString(rest)
	default:
		_, size := firstRuneSize(rest)
		m = rest[:size]
	}
	t.cur = m
	t.col += len(m)
	t.atEnd = false
}

// firstRuneSize returns the first rune of s and its byte width,
// defaulting to a single byte for empty input.
func firstRuneSize(s string) (rune, int) {
	if s == "" {
		return 0, 1
	}
	return utf8.DecodeRuneInString(s)
}

// AtEnd reports whether the input is exhausted.
func (t *Tokenizer) AtEnd() bool { return t.atEnd }

// LookingAt reports whether the current token's text equals s.
func (t *Tokenizer) LookingAt(s string) bool { return !t.atEnd && t.cur == s }

// TryConsume advances past the current token and returns true if it
// equals s; otherwise it leaves state unchanged and returns false.
func (t *Tokenizer) TryConsume(s string) bool {
	if !t.LookingAt(s) {
		return false
	}
	t.advance()
	return true
}

// Consume is like TryConsume but raises a ParseError at the current
// position if the current token does not equal s.
func (t *Tokenizer) Consume(s string) error {
	if !t.TryConsume(s) {
		return t.ParseError("Expected %q.", s)
	}
	return nil
}

// ConsumeIdentifier requires the current token to be a bare identifier
// and returns it, advancing past it.
func (t *Tokenizer) ConsumeIdentifier() (string, error) {
	if t.atEnd || !identOnlyRE.MatchString(t.cur) {
		return "", t.ParseError("Expected identifier.")
	}
	tok := t.cur
	t.advance()
	return tok, nil
}

// ConsumeIdentifierOrNumber requires the current token to match \w+ and
// returns it, advancing past it.
func (t *Tokenizer) ConsumeIdentifierOrNumber() (string, error) {
	if t.atEnd || !wordRE.MatchString(t.cur) {
		return "", t.ParseError("Expected identifier.")
	}
	tok := t.cur
	t.advance()
	return tok, nil
}

// TryConsumeAnyScalar advances past the current token and returns true
// if it looks like a string, number, or identifier; otherwise it leaves
// state unchanged and returns false. Used by unknown-field skipping.
func (t *Tokenizer) TryConsumeAnyScalar() bool {
	if t.atEnd {
		return false
	}
	c := t.cur[0]
	looksScalar := c == '"' || c == '\'' || identOnlyRE.MatchString(t.cur) || wordRE.MatchString(t.cur) || decimalLeading(c)
	if !looksScalar {
		return false
	}
	t.advance()
	return true
}

func decimalLeading(c byte) bool {
	return c == '-' || c == '+' || c == '.' || ('0' <= c && c <= '9')
}

// ParseError constructs a ParseError at the current token's position.
func (t *Tokenizer) ParseError(format string, args ...any) error {
	return newParseError(t.curLine+1, t.curCol+1, format, args...)
}

// ParseErrorPreviousToken constructs a ParseError at the previous
// token's position.
func (t *Tokenizer) ParseErrorPreviousToken(format string, args ...any) error {
	return newParseError(t.prevLine+1, t.prevCol+1, format, args...)
}

// current returns the raw text of the current token ("" at end of
// input).
func (t *Tokenizer) current() string { return t.cur }
