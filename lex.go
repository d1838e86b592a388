package calculator

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Token is a single lexical element of an expression.
type Token struct {
	// Text is the token as it appeared in the input. Tokens inserted by the
	// tokenizer have the text they would have had if written out.
	Text string
	// Kind classifies the token.
	Kind TokenKind
	// Pos is the 1-based rune column of the start of the token. The implicit
	// brackets around the whole expression have positions 0 and len+1.
	Pos int
	// Unary marks the multiplication inserted when a minus sign negates the
	// following operand rather than subtracting it. The evaluator never
	// reduces pending operations when it shifts a unary multiplication.
	Unary bool
}

func (t Token) String() string {
	return t.Kind.String() + ":" + t.Text + "@" + strconv.Itoa(t.Pos)
}

// TokenKind is the lexical class of a token.
type TokenKind int8

const (
	tokenNone TokenKind = iota
	// TokenNum is a decimal literal.
	TokenNum
	// TokenIdent is an operator symbol, function name, or constant name.
	TokenIdent
	// TokenOpen is an open bracket.
	TokenOpen
	// TokenClose is a close bracket.
	TokenClose
	// TokenSep is a function argument separator.
	TokenSep
)

func (k TokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case TokenNum:
		return "Num"
	case TokenIdent:
		return "Ident"
	case TokenOpen:
		return "Open"
	case TokenClose:
		return "Close"
	case TokenSep:
		return "Sep"
	default:
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Operators contains the runes which are lexed as operator symbols.
const Operators = "+-*/^"

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	col  int
	toks []Token
}

// Tokenize converts an expression into its tokens, including the implicit
// brackets surrounding the entire expression.
func Tokenize(src string) ([]Token, error) {
	return TokenizeReader(strings.NewReader(src))
}

// TokenizeReader is like Tokenize, but it reads the expression from a rune
// scanner until EOF.
func TokenizeReader(src io.RuneScanner) ([]Token, error) {
	l := lexer{src: src, toks: []Token{{Text: "(", Kind: TokenOpen, Pos: 0}}}
	for {
		done, err := l.next()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	l.toks = append(l.toks, Token{Text: ")", Kind: TokenClose, Pos: l.col + 1})
	return l.toks, nil
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.col++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.col--
}

// next scans the next token from the input and appends it to the token list.
// done is true once the input is exhausted.
func (l *lexer) next() (done bool, err error) {
	defer l.buf.Reset()
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return true, nil
			}
			return false, err
		}
		pos := l.col
		switch {
		case unicode.IsSpace(r):
			continue
		case '0' <= r && r <= '9', r == '.':
			l.unreadRune()
			if err := l.scan(isNumRune); err != nil {
				return false, err
			}
			l.emit(Token{Text: l.buf.String(), Kind: TokenNum, Pos: pos})
			return false, nil
		case unicode.IsLetter(r):
			l.unreadRune()
			if err := l.scan(unicode.IsLetter); err != nil {
				return false, err
			}
			l.emit(Token{Text: l.buf.String(), Kind: TokenIdent, Pos: pos})
			return false, nil
		case r == '(':
			l.emit(Token{Text: "(", Kind: TokenOpen, Pos: pos})
			return false, nil
		case r == ')':
			l.emit(Token{Text: ")", Kind: TokenClose, Pos: pos})
			return false, nil
		case r == ',':
			l.emit(Token{Text: ",", Kind: TokenSep, Pos: pos})
			return false, nil
		case r == '-' && l.operandExpected():
			// Negation is multiplication by -1 of whatever operand follows.
			l.emit(Token{Text: "-1", Kind: TokenNum, Pos: pos})
			l.emit(Token{Text: "*", Kind: TokenIdent, Pos: pos, Unary: true})
			return false, nil
		case strings.ContainsRune(Operators, r):
			l.emit(Token{Text: string(r), Kind: TokenIdent, Pos: pos})
			return false, nil
		default:
			// Write the rune so that it shows up in the error message.
			l.buf.WriteRune(r)
			return false, &LexError{Text: l.buf.String(), Col: pos}
		}
	}
}

// scan reads runes into the buffer for as long as they satisfy ok.
func (l *lexer) scan(ok func(rune) bool) error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides the token kind before
				// calling scan, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		if !ok(r) {
			l.unreadRune()
			return nil
		}
		l.buf.WriteRune(r)
	}
}

func (l *lexer) emit(tok Token) {
	l.toks = append(l.toks, tok)
}

// operandExpected reports whether the last token leaves the expression waiting
// for an operand, so that a minus sign there is a negation.
func (l *lexer) operandExpected() bool {
	last := l.toks[len(l.toks)-1]
	switch last.Kind {
	case TokenOpen, TokenSep:
		return true
	case TokenIdent:
		return len(last.Text) == 1 && strings.Contains(Operators, last.Text)
	default:
		return false
	}
}

func isNumRune(r rune) bool {
	return '0' <= r && r <= '9' || r == '.'
}
