// Package token defines the lexical token model shared by the lexer and
// parser.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT
	INT_LIT
	FLOAT_LIT
	HEX_LIT
	CHAR_LIT
	STRING_LIT
	INTERP_STRING_LIT
	PREPROCESSOR

	// Type keywords
	I8
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
	F32
	F64
	F80
	F128
	D32
	D64
	D128
	BOOL
	CHAR
	VOID
	ANY
	STR
	ARR
	PTR
	REF
	BIT
	BYTE
	HEX
	DEC

	// Control flow keywords
	IF
	ELSE
	ELSEIF
	WHILE
	FOR
	LOOP
	RETURN
	BREAK
	CONTINUE
	IN
	MATCH
	DEF

	// Declaration keywords
	FN
	VAR
	CONST
	LET
	MUT
	STRUCT
	ENUM
	GROUP
	TYPEDEF
	PUB
	EXPORT
	USE
	EXTERN
	INLINE
	AS
	SELF
	SUPER

	// Builtin function keywords
	ECHO
	PRINT
	PRINTLN
	EPRINT
	INPUT
	STRLEN
	ARRLEN
	PANIC
	EXIT

	// Feature keywords
	ASYNC
	AWAIT
	UNSAFE
	ASM
	FASTEXEC
	ROUTINE
	SIZEOF
	ROLLING
	STYLE
	AND
	OR
	XOR
	NULL

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	AMP      // &
	PIPE     // |
	CARET    // ^
	TILDE    // ~
	BANG     // !
	INC      // ++
	DEC_OP   // --
	ASSIGN   // =
	PLUS_EQ  // +=
	MINUS_EQ // -=
	STAR_EQ  // *=
	SLASH_EQ // /=
	PCT_EQ   // %=
	AMP_EQ   // &=
	PIPE_EQ  // |=
	CARET_EQ // ^=
	SHL_EQ   // <<=
	SHR_EQ   // >>=
	EQ       // ==
	STRICT_EQ
	NEQ // !=
	STRICT_NEQ
	LT     // <
	GT     // >
	LEQ    // <=
	GEQ    // >=
	DIAMOND // <>
	SHL    // <<
	SHR    // >>
	LAND   // &&
	LOR    // ||
	ARROW  // ->
	FATARROW // =>
	SEND   // <-
	DOTDOT // ..
	ELLIPSIS // ...

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	COLON
	COLONCOLON // ::
	SEMICOLON
	DOT
	QUESTION
)

// Token is a single lexical token: its kind and the source line it came
// from. Column tracking is intentionally omitted — spec.md's Token entity
// carries only (kind, line).
type Token struct {
	Kind    Kind
	Literal string
	Line    int
}

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "IDENT", INT_LIT: "INT_LIT", FLOAT_LIT: "FLOAT_LIT", HEX_LIT: "HEX_LIT",
	CHAR_LIT: "CHAR_LIT", STRING_LIT: "STRING_LIT", INTERP_STRING_LIT: "INTERP_STRING_LIT",
	PREPROCESSOR: "PREPROCESSOR",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128",
	F32: "f32", F64: "f64", F80: "f80", F128: "f128",
	D32: "d32", D64: "d64", D128: "d128",
	BOOL: "bool", CHAR: "char", VOID: "void", ANY: "any", STR: "str", ARR: "arr",
	PTR: "ptr", REF: "ref", BIT: "bit", BYTE: "byte", HEX: "hex", DEC: "dec",
	IF: "if", ELSE: "else", ELSEIF: "elseif", WHILE: "while", FOR: "for", LOOP: "loop",
	RETURN: "return", BREAK: "break", CONTINUE: "continue", IN: "in", MATCH: "match", DEF: "def",
	FN: "fn", VAR: "var", CONST: "const", LET: "let", MUT: "mut",
	STRUCT: "struct", ENUM: "enum", GROUP: "group", TYPEDEF: "typedef",
	PUB: "pub", EXPORT: "export", USE: "use", EXTERN: "extern", INLINE: "inline",
	AS: "as", SELF: "self", SUPER: "super",
	ECHO: "echo", PRINT: "print", PRINTLN: "println", EPRINT: "eprint", INPUT: "input",
	STRLEN: "strlen", ARRLEN: "arrlen", PANIC: "panic", EXIT: "exit",
	ASYNC: "async", AWAIT: "await", UNSAFE: "unsafe", ASM: "asm", FASTEXEC: "fastexec",
	ROUTINE: "routine", SIZEOF: "sizeof", ROLLING: "rolling", STYLE: "style",
	AND: "and", OR: "or", XOR: "xor", NULL: "null",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AMP: "&", PIPE: "|", CARET: "^", TILDE: "~", BANG: "!",
	INC: "++", DEC_OP: "--", ASSIGN: "=",
	PLUS_EQ: "+=", MINUS_EQ: "-=", STAR_EQ: "*=", SLASH_EQ: "/=", PCT_EQ: "%=",
	AMP_EQ: "&=", PIPE_EQ: "|=", CARET_EQ: "^=", SHL_EQ: "<<=", SHR_EQ: ">>=",
	EQ: "==", STRICT_EQ: "===", NEQ: "!=", STRICT_NEQ: "!==",
	LT: "<", GT: ">", LEQ: "<=", GEQ: ">=", DIAMOND: "<>", SHL: "<<", SHR: ">>",
	LAND: "&&", LOR: "||", ARROW: "->", FATARROW: "=>", SEND: "<-",
	DOTDOT: "..", ELLIPSIS: "...",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	COMMA: ",", COLON: ":", COLONCOLON: "::", SEMICOLON: ";", DOT: ".", QUESTION: "?",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// keywords maps every reserved word to its Kind, written out by hand
// alongside the name table above.
var keywords = map[string]Kind{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64, "i128": I128,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64, "u128": U128,
	"f32": F32, "f64": F64, "f80": F80, "f128": F128,
	"d32": D32, "d64": D64, "d128": D128,
	"bool": BOOL, "char": CHAR, "void": VOID, "any": ANY, "str": STR, "arr": ARR,
	"ptr": PTR, "ref": REF, "bit": BIT, "byte": BYTE, "hex": HEX, "dec": DEC,
	"if": IF, "else": ELSE, "elseif": ELSEIF, "while": WHILE, "for": FOR, "loop": LOOP,
	"return": RETURN, "break": BREAK, "continue": CONTINUE, "in": IN, "match": MATCH, "def": DEF,
	"fn": FN, "var": VAR, "const": CONST, "let": LET, "mut": MUT,
	"struct": STRUCT, "enum": ENUM, "group": GROUP, "typedef": TYPEDEF,
	"pub": PUB, "export": EXPORT, "use": USE, "extern": EXTERN, "inline": INLINE,
	"as": AS, "self": SELF, "super": SUPER,
	"echo": ECHO, "print": PRINT, "println": PRINTLN, "eprint": EPRINT, "input": INPUT,
	"strlen": STRLEN, "arrlen": ARRLEN, "panic": PANIC, "exit": EXIT,
	"async": ASYNC, "await": AWAIT, "unsafe": UNSAFE, "asm": ASM, "fastexec": FASTEXEC,
	"routine": ROUTINE, "sizeof": SIZEOF, "rolling": ROLLING, "style": STYLE,
	"and": AND, "or": OR, "xor": XOR, "null": NULL,
	"true": BOOL, // overridden below: true/false are literals, not the Bool type keyword
}

// boolLiterals holds the two reserved words that lex as boolean literals
// rather than identifiers or the Bool type keyword.
var boolLiterals = map[string]bool{"true": true, "false": true}

func init() {
	delete(keywords, "true")
}

// LookupIdent classifies a scanned identifier as a keyword Kind, a boolean
// literal marker (returns STRING_LIT-adjacent handling is done by the lexer;
// here we just report IDENT vs a recognized keyword), or plain IDENT.
func LookupIdent(ident string) Kind {
	if boolLiterals[ident] {
		return IDENT // lexer special-cases true/false via IsBoolLiteral
	}
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// IsBoolLiteral reports whether ident is the reserved spelling of a boolean
// literal.
func IsBoolLiteral(ident string) bool {
	return boolLiterals[ident]
}
