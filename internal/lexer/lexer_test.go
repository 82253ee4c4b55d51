package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimlang/nimc/internal/token"
)

func TestNextToken_Operators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Kind
	}{
		{
			name:     "arithmetic",
			input:    "+ - * / %",
			expected: []token.Kind{token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.EOF},
		},
		{
			name:     "equality cluster",
			input:    "== === != !== <>",
			expected: []token.Kind{token.EQ, token.STRICT_EQ, token.NEQ, token.STRICT_NEQ, token.DIAMOND, token.EOF},
		},
		{
			name:     "relational",
			input:    "< <= > >=",
			expected: []token.Kind{token.LT, token.LEQ, token.GT, token.GEQ, token.EOF},
		},
		{
			name:     "shift digraphs",
			input:    "<< >> <<= >>=",
			expected: []token.Kind{token.SHL, token.SHR, token.SHL_EQ, token.SHR_EQ, token.EOF},
		},
		{
			name:     "compound assignment",
			input:    "+= -= *= /= %= &= |= ^=",
			expected: []token.Kind{token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PCT_EQ, token.AMP_EQ, token.PIPE_EQ, token.CARET_EQ, token.EOF},
		},
		{
			name:     "inc dec arrow fatarrow send",
			input:    "++ -- -> => <-",
			expected: []token.Kind{token.INC, token.DEC_OP, token.ARROW, token.FATARROW, token.SEND, token.EOF},
		},
		{
			name:     "range vs ellipsis",
			input:    ".. ...",
			expected: []token.Kind{token.DOTDOT, token.ELLIPSIS, token.EOF},
		},
		{
			name:     "namespace colon",
			input:    ":: :",
			expected: []token.Kind{token.COLONCOLON, token.COLON, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			for i, want := range tt.expected {
				tok := l.NextToken()
				require.Equalf(t, want, tok.Kind, "token[%d]", i)
			}
		})
	}
}

func TestNextToken_Keywords(t *testing.T) {
	l := New("fn var let mut const struct enum pub fastexec asm unsafe routine")
	want := []token.Kind{
		token.FN, token.VAR, token.LET, token.MUT, token.CONST, token.STRUCT,
		token.ENUM, token.PUB, token.FASTEXEC, token.ASM, token.UNSAFE, token.ROUTINE, token.EOF,
	}
	for i, k := range want {
		tok := l.NextToken()
		require.Equalf(t, k, tok.Kind, "token[%d]", i)
	}
}

func TestNextToken_BoolLiteralsAreIdentifiers(t *testing.T) {
	l := New("true false")
	tok := l.NextToken()
	require.Equal(t, token.IDENT, tok.Kind)
	require.Equal(t, "true", tok.Literal)
	tok = l.NextToken()
	require.Equal(t, token.IDENT, tok.Kind)
	require.Equal(t, "false", tok.Literal)
}

func TestNextToken_Numbers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"123", token.INT_LIT},
		{"123.45", token.FLOAT_LIT},
		{"1e10", token.FLOAT_LIT},
		{"1.5e-3", token.FLOAT_LIT},
		{"0xFF", token.HEX_LIT},
		{"0x", token.HEX_LIT},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		require.Equalf(t, tt.kind, tok.Kind, "input %q", tt.input)
	}
}

func TestNextToken_StringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\"d\\e\x41"`)
	tok := l.NextToken()
	require.Equal(t, token.STRING_LIT, tok.Kind)
	require.Equal(t, "a\nb\tc\"d\\eA", tok.Literal)
}

func TestNextToken_InterpolatedString(t *testing.T) {
	l := New(`"hello {name}!"`)
	tok := l.NextToken()
	require.Equal(t, token.INTERP_STRING_LIT, tok.Kind)
	require.Equal(t, "hello {name}!", tok.Literal)
}

func TestNextToken_UnterminatedStringClosesAtEOF(t *testing.T) {
	l := New(`"unterminated`)
	tok := l.NextToken()
	require.Equal(t, token.STRING_LIT, tok.Kind)
	next := l.NextToken()
	require.Equal(t, token.EOF, next.Kind)
}

func TestNextToken_IllegalCharacter(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	require.Equal(t, token.ILLEGAL, tok.Kind)
	require.Equal(t, "@", tok.Literal)
}

func TestNextToken_CommentsSkipped(t *testing.T) {
	l := New("1 // line comment\n2 /* block\ncomment */ 3")
	kinds := []token.Kind{}
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	require.Equal(t, []token.Kind{token.INT_LIT, token.INT_LIT, token.INT_LIT, token.EOF}, kinds)
}

func TestTokenize_EndsWithExactlyOneEOF(t *testing.T) {
	l := New("var x: i32 = 1;")
	toks := l.Tokenize()
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)
	for _, tok := range toks[:len(toks)-1] {
		require.NotEqual(t, token.EOF, tok.Kind)
	}
}

func TestNextToken_LineTracking(t *testing.T) {
	l := New("1\n2\n3")
	tok := l.NextToken()
	require.Equal(t, 1, tok.Line)
	tok = l.NextToken()
	require.Equal(t, 2, tok.Line)
	tok = l.NextToken()
	require.Equal(t, 3, tok.Line)
}
