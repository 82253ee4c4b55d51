package checker

import "github.com/nimlang/nimc/internal/ast"

// BuiltinStyles maps the names spec.md §4.5 reserves for echo/print styling
// to their fixed ANSI color escape sequences. These resolve even when no
// `style` declaration with that name exists.
var BuiltinStyles = map[string]string{
	"error":   "\x1b[31m",
	"warn":    "\x1b[33m",
	"info":    "\x1b[36m",
	"success": "\x1b[32m",
}

// AnsiReset closes out a style prefix applied by ResolveEchoStyle.
const AnsiReset = "\x1b[0m"

// ResolveEchoStyle inspects the leading argument of an echo/print call for
// a style selector (spec.md §4.5): a bare identifier naming a builtin style
// or a user `style` declaration, or a raw string literal that already
// starts with the ESC character. When found, it returns the resolved ANSI
// escape prefix and the remaining arguments to print; otherwise ok is false
// and args is returned unchanged.
func ResolveEchoStyle(styles map[string]string, args []ast.Expression) (escape string, rest []ast.Expression, ok bool) {
	if len(args) == 0 {
		return "", args, false
	}
	switch first := args[0].(type) {
	case *ast.Identifier:
		if code, found := BuiltinStyles[first.Name]; found {
			return code, args[1:], true
		}
		if code, found := styles[first.Name]; found {
			return code, args[1:], true
		}
	case *ast.StringLit:
		if len(first.Value) > 0 && first.Value[0] == '\x1b' {
			return first.Value, args[1:], true
		}
	}
	return "", args, false
}
