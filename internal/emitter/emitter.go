// Package emitter lowers a checked AST directly to GNU-assembler (Intel
// syntax) x86-64 text: a stack machine with no register allocator, one
// fixed-size frame per function (spec.md §4.5).
package emitter

import (
	"fmt"
	"strings"

	"github.com/nimlang/nimc/internal/ast"
	"github.com/nimlang/nimc/internal/checker"
	"github.com/nimlang/nimc/internal/token"
	"github.com/nimlang/nimc/internal/types"
)

// Target selects the output platform, which in turn selects the calling
// convention, entry-point symbol, and process-exit sequence.
type Target int

const (
	Linux Target = iota
	Windows
	MacOS
)

// CallingConvention parameterizes the integer-argument register sequence and
// shadow-space requirement per target, resolving spec.md §9's "Windows-
// biased ABI" REDESIGN FLAG: Linux/macOS builds get the corrected SysV AMD64
// sequence instead of reusing Windows x64 registers unconditionally. The
// table covers integer arguments only: calls to user functions, lambdas and
// parameter spills read it, while calls to the runtime helpers (`_print`,
// `_ftoa`, `_routine_spawn`, `_future_new`, `_chan_send`, `_chan_recv`)
// pass their arguments in rcx/rdx on every target. Floating-point
// arguments are not assigned to XMM registers.
type CallingConvention struct {
	IntArgRegs  []string
	ShadowSpace int
}

var conventions = map[Target]CallingConvention{
	Windows: {IntArgRegs: []string{"rcx", "rdx", "r8", "r9"}, ShadowSpace: 32},
	Linux:   {IntArgRegs: []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}, ShadowSpace: 0},
	MacOS:   {IntArgRegs: []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}, ShadowSpace: 0},
}

func (t Target) entryLabel() string {
	switch t {
	case Windows:
		return "main"
	case Linux:
		return "_start"
	case MacOS:
		return "_main"
	default:
		return "main"
	}
}

func (t Target) exitSequence() string {
	switch t {
	case Windows:
		return "    xor rcx, rcx\n    call ExitProcess\n"
	case Linux:
		return "    mov rax, 60\n    xor rdi, rdi\n    syscall\n"
	case MacOS:
		return "    xor rdi, rdi\n    call _exit\n"
	default:
		return ""
	}
}

// varLocation is a stack-resident value: its byte offset below rbp, its
// resolved type, and (for arrays/structs) the number of 8-byte slots it
// occupies.
type varLocation struct {
	offset int
	typ    *types.Type
	slots  int
}

// dataItem is one `.data` segment entry: an interned string or float
// constant, emitted once and referenced by index thereafter.
type dataItem struct {
	isFloat bool
	str     string
	flt     float64
}

type loopLabel struct {
	continueLabel string
	breakLabel    string
}

// Emitter holds the mutable state of one emission run.
type Emitter struct {
	result *checker.CheckResult
	target Target
	conv   CallingConvention

	text strings.Builder
	data []dataItem

	labelCounter int
	locations    map[string]*varLocation
	stackPointer int
	loopStack    []loopLabel

	currentFunc   string
	currentReturn *types.Type

	// lambdaFuncs accumulates one synthesized top-level function per
	// lambda expression encountered during emission (spec.md §4.5's
	// `fn(params): Ret -> body` lambda literal), appended after the source
	// program's own functions.
	lambdaFuncs []string
}

// Emit lowers prog (already checked into result) to GAS Intel-syntax text
// for target.
func Emit(prog *ast.Program, result *checker.CheckResult, target Target) string {
	e := &Emitter{result: result, target: target, conv: conventions[target], locations: make(map[string]*varLocation)}

	var text strings.Builder
	text.WriteString(".intel_syntax noprefix\n\n")
	text.WriteString(".section .text\n")
	text.WriteString(fmt.Sprintf(".global %s\n\n", target.entryLabel()))

	for _, fn := range prog.Functions {
		text.WriteString(e.generateFunction(fn.Name, fn.Params, fn.ReturnType, fn.Body, nil))
		text.WriteString("\n")
	}
	for _, g := range prog.Groups {
		for _, fn := range g.Functions {
			hasSelf := len(fn.Params) > 0 && fn.Params[0].IsSelf
			if !hasSelf {
				text.WriteString(e.generateFunction(fn.Name, fn.Params, fn.ReturnType, fn.Body, nil))
				text.WriteString("\n")
				continue
			}
			selfType := types.Struct(g.Name)
			text.WriteString(e.generateFunction(fn.Name, fn.Params, fn.ReturnType, fn.Body, selfType))
			text.WriteString("\n")
		}
	}

	for _, lambda := range e.lambdaFuncs {
		text.WriteString(lambda)
		text.WriteString("\n")
	}

	text.WriteString(e.generateBuiltinsLibrary())

	var out strings.Builder
	out.WriteString(e.generateDataSegment())
	out.WriteString(text.String())
	return out.String()
}

func (e *Emitter) generateDataSegment() string {
	var b strings.Builder
	b.WriteString(".section .data\n")
	for i, item := range e.data {
		if item.isFloat {
			fmt.Fprintf(&b, "float_%d: .double %v\n", i, item.flt)
		} else {
			fmt.Fprintf(&b, "str_%d: .asciz \"%s\"\n", i, escapeForGAS(item.str))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func escapeForGAS(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\x1b", `\033`,
	)
	return r.Replace(s)
}

func (e *Emitter) internString(s string) int {
	for i, it := range e.data {
		if !it.isFloat && it.str == s {
			return i
		}
	}
	e.data = append(e.data, dataItem{str: s})
	return len(e.data) - 1
}

func (e *Emitter) internFloat(f float64) int {
	e.data = append(e.data, dataItem{isFloat: true, flt: f})
	return len(e.data) - 1
}

func (e *Emitter) newLabel(prefix string) string {
	e.labelCounter++
	return fmt.Sprintf(".%s_%d", prefix, e.labelCounter)
}

func (e *Emitter) resolveParamTypes(name string, selfType *types.Type) ([]checker.ParamInfo, *types.Type) {
	if selfType != nil {
		if fn, ok := e.result.Methods[selfType.Name][name]; ok {
			return fn.Params, fn.Return
		}
	}
	if fn, ok := e.result.Functions[name]; ok {
		return fn.Params, fn.Return
	}
	return nil, types.Void
}

// generateFunction emits one function or method's label, prologue,
// parameter spilling, body, and epilogue.
func (e *Emitter) generateFunction(name string, params []*ast.Param, _ *ast.TypeRef, body *ast.BlockStmt, selfType *types.Type) string {
	paramInfos, ret := e.resolveParamTypes(name, selfType)
	e.locations = make(map[string]*varLocation)
	e.stackPointer = 0
	e.currentFunc = name
	e.currentReturn = ret

	var b strings.Builder
	label := name
	if name == "main" {
		label = e.target.entryLabel()
	}
	fmt.Fprintf(&b, "%s:\n", label)
	b.WriteString("    push rbp\n")
	b.WriteString("    mov rbp, rsp\n")
	b.WriteString("    sub rsp, 256\n\n")

	if name == "main" {
		b.WriteString(e.spillMainArgs())
	} else {
		b.WriteString(e.spillParams(params, paramInfos))
	}

	b.WriteString(e.generateStmt(body))

	if name == "main" {
		b.WriteString(e.target.exitSequence())
	} else {
		fmt.Fprintf(&b, ".fn_exit_%s:\n", name)
		b.WriteString("    add rsp, 256\n")
		b.WriteString("    pop rbp\n")
		b.WriteString("    ret\n")
	}
	return b.String()
}

// generateLambda lowers a `fn(params): Ret -> body` literal to a synthesized
// top-level function plus a `lea` of its label (spec.md §4.5). This covers
// the direct-call shape — a lambda assigned to a variable and then invoked
// — since that value is just a code address like any other Fn-typed
// handle; it does not capture enclosing locals, so a lambda that reads an
// outer variable will see garbage stack contents rather than the captured
// value (no closure environment is built).
func (e *Emitter) generateLambda(ex *ast.LambdaExpr) string {
	label := fmt.Sprintf("lambda_%d", e.labelCounter)
	e.labelCounter++

	savedLocations, savedStackPointer := e.locations, e.stackPointer
	savedFunc, savedReturn := e.currentFunc, e.currentReturn

	e.locations = make(map[string]*varLocation)
	e.stackPointer = 0
	e.currentFunc = label

	var paramTypes []*types.Type
	var resultType *types.Type = types.Any
	if fnType := e.result.ExprTypes[ex]; fnType != nil && fnType.Kind == types.FnKind {
		paramTypes = fnType.Params
		if fnType.Result != nil {
			resultType = fnType.Result
		}
	}
	e.currentReturn = resultType

	var body strings.Builder
	fmt.Fprintf(&body, "%s:\n", label)
	body.WriteString("    push rbp\n")
	body.WriteString("    mov rbp, rsp\n")
	body.WriteString("    sub rsp, 256\n\n")

	regs := e.conv.IntArgRegs
	for i, p := range ex.Params {
		typ := types.Any
		if i < len(paramTypes) && paramTypes[i] != nil {
			typ = paramTypes[i]
		}
		e.stackPointer += 8
		offset := e.stackPointer
		e.locations[paramName(p)] = &varLocation{offset: offset, typ: typ, slots: 1}
		if i < len(regs) {
			fmt.Fprintf(&body, "    mov [rbp - %d], %s\n", offset, regs[i])
		}
	}

	body.WriteString(e.generateExpr(ex.Body))
	fmt.Fprintf(&body, ".fn_exit_%s:\n", label)
	body.WriteString("    add rsp, 256\n")
	body.WriteString("    pop rbp\n")
	body.WriteString("    ret\n")
	e.lambdaFuncs = append(e.lambdaFuncs, body.String())

	e.locations, e.stackPointer = savedLocations, savedStackPointer
	e.currentFunc, e.currentReturn = savedFunc, savedReturn

	return fmt.Sprintf("    lea rax, [%s]\n", label)
}

func (e *Emitter) spillMainArgs() string {
	var b strings.Builder
	e.stackPointer += 16
	argcOff := e.stackPointer - 8
	argvOff := e.stackPointer
	e.locations["argc"] = &varLocation{offset: argcOff, typ: types.Int(32, true), slots: 1}
	e.locations["argv"] = &varLocation{offset: argvOff, typ: types.Pointer(types.Str), slots: 1}
	regs := e.conv.IntArgRegs
	fmt.Fprintf(&b, "    mov [rbp - %d], %s\n", argcOff, regs[0])
	fmt.Fprintf(&b, "    mov [rbp - %d], %s\n", argvOff, regs[1])
	return b.String()
}

func (e *Emitter) spillParams(params []*ast.Param, infos []checker.ParamInfo) string {
	var b strings.Builder
	regs := e.conv.IntArgRegs
	regIdx := 0
	for i, p := range params {
		var typ *types.Type
		if i < len(infos) {
			typ = infos[i].Type
		}
		if typ == nil {
			typ = types.Any
		}
		e.stackPointer += 8
		offset := e.stackPointer
		e.locations[paramName(p)] = &varLocation{offset: offset, typ: typ, slots: 1}

		if regIdx < len(regs) {
			fmt.Fprintf(&b, "    mov [rbp - %d], %s\n", offset, regs[regIdx])
			regIdx++
		} else {
			stackOff := e.conv.ShadowSpace + 16 + 8*(regIdx-len(regs))
			fmt.Fprintf(&b, "    mov rax, [rbp + %d]\n", stackOff)
			fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", offset)
			regIdx++
		}
	}
	return b.String()
}

func paramName(p *ast.Param) string {
	if p.IsSelf {
		return "self"
	}
	return p.Name
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (e *Emitter) generateStmt(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		var b strings.Builder
		for _, st := range s.Statements {
			b.WriteString(e.generateStmt(st))
		}
		return b.String()
	case *ast.VarDecl:
		return e.generateVarDecl(s)
	case *ast.AssignStmt:
		return e.generateAssign(s)
	case *ast.ReturnStmt:
		return e.generateReturn(s)
	case *ast.IfStmt:
		return e.generateIf(s)
	case *ast.WhileStmt:
		return e.generateWhile(s)
	case *ast.LoopStmt:
		return e.generateLoop(s)
	case *ast.ForCStmt:
		return e.generateForC(s)
	case *ast.ForInStmt:
		return e.generateForIn(s)
	case *ast.BreakStmt:
		if len(e.loopStack) == 0 {
			return ""
		}
		return fmt.Sprintf("    jmp %s\n", e.loopStack[len(e.loopStack)-1].breakLabel)
	case *ast.ContinueStmt:
		if len(e.loopStack) == 0 {
			return ""
		}
		return fmt.Sprintf("    jmp %s\n", e.loopStack[len(e.loopStack)-1].continueLabel)
	case *ast.ExprStmt:
		return e.generateExpr(s.Expr)
	case *ast.EchoStmt:
		escape, rest, _ := checker.ResolveEchoStyle(e.result.Styles, s.Args)
		return e.generatePrint(rest, true, escape)
	case *ast.RoutineStmt:
		// routine lowering is stubbed (spec.md §5, SPEC_FULL.md §9): the
		// call's address is handed to an external scheduler symbol rather
		// than actually spawned.
		if s.Call == nil {
			return ""
		}
		var b strings.Builder
		if ident, ok := s.Call.Callee.(*ast.Identifier); ok {
			fmt.Fprintf(&b, "    lea rcx, [%s]\n", ident.Name)
		} else {
			b.WriteString(e.generateExpr(s.Call.Callee))
			b.WriteString("    mov rcx, rax\n")
		}
		fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
		b.WriteString("    call _routine_spawn\n")
		fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
		return b.String()
	case *ast.UnsafeStmt:
		return e.generateStmt(s.Body)
	case *ast.FastexecStmt:
		return e.generateStmt(s.Body)
	case *ast.AsmStmt:
		return "    " + strings.ReplaceAll(strings.TrimSpace(s.Raw), "\n", "\n    ") + "\n"
	case *ast.LabeledStmt:
		return e.generateStmt(s.Body)
	case *ast.LabeledExprStmt:
		return e.generateExpr(s.Expr)
	default:
		return ""
	}
}

func (e *Emitter) generateVarDecl(v *ast.VarDecl) string {
	var b strings.Builder
	if v.Value == nil {
		e.stackPointer += 8
		e.locations[v.Name] = &varLocation{offset: e.stackPointer, typ: types.Any, slots: 1}
		return ""
	}

	valType := e.result.ExprTypes[v.Value]
	if arr, ok := v.Value.(*ast.ArrayLit); ok {
		b.WriteString(e.generateExpr(v.Value))
		length := len(arr.Elements)
		base := e.stackPointer + 8
		e.stackPointer += length * 8
		e.locations[v.Name] = &varLocation{offset: base, typ: valType, slots: length}
		b.WriteString("    mov rsi, rax\n")
		loopStart := e.newLabel("copy_loop")
		loopDone := e.newLabel("copy_done")
		b.WriteString("    mov rcx, 0\n")
		fmt.Fprintf(&b, "%s:\n", loopStart)
		fmt.Fprintf(&b, "    cmp rcx, %d\n", length)
		fmt.Fprintf(&b, "    jge %s\n", loopDone)
		b.WriteString("    mov rbx, [rsi + rcx*8]\n")
		fmt.Fprintf(&b, "    mov [rbp - %d + rcx*8], rbx\n", base)
		b.WriteString("    inc rcx\n")
		fmt.Fprintf(&b, "    jmp %s\n", loopStart)
		fmt.Fprintf(&b, "%s:\n", loopDone)
		return b.String()
	}

	b.WriteString(e.generateExpr(v.Value))
	e.stackPointer += 8
	offset := e.stackPointer
	e.locations[v.Name] = &varLocation{offset: offset, typ: valType, slots: 1}
	if valType != nil && valType.Kind == types.FloatKind {
		fmt.Fprintf(&b, "    movsd [rbp - %d], xmm0\n", offset)
	} else {
		fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", offset)
	}
	return b.String()
}

func (e *Emitter) generateAssign(a *ast.AssignStmt) string {
	var b strings.Builder
	b.WriteString(e.generateExpr(a.Value))
	if a.Op != token.ASSIGN {
		// For a compound assignment the parser stores the underlying
		// binary operator in Op; re-materialize `target op value` here.
		b.Reset()
		bin := &ast.BinaryExpr{Base: a.Base, Left: a.Target, Op: compoundBase(a.Op), Right: a.Value}
		b.WriteString(e.generateExpr(bin))
	}
	switch target := a.Target.(type) {
	case *ast.Identifier:
		loc, ok := e.locations[target.Name]
		if !ok {
			return b.String()
		}
		if loc.typ != nil && loc.typ.Kind == types.FloatKind {
			fmt.Fprintf(&b, "    movsd [rbp - %d], xmm0\n", loc.offset)
		} else {
			fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", loc.offset)
		}
	case *ast.IndexExpr:
		b.WriteString("    push rax\n")
		b.WriteString(e.generateExpr(target.Object))
		b.WriteString("    mov rsi, rax\n")
		b.WriteString(e.generateExpr(target.Index))
		b.WriteString("    pop rbx\n")
		b.WriteString("    mov [rsi + rax*8], rbx\n")
	case *ast.MemberExpr:
		if info, idx, ok := e.structFieldOf(target); ok {
			_ = info
			b.WriteString("    push rax\n")
			b.WriteString(e.generateExpr(target.Object))
			b.WriteString("    pop rbx\n")
			fmt.Fprintf(&b, "    mov [rax + %d], rbx\n", idx*8)
		}
	}
	return b.String()
}

// compoundBase maps a compound-assignment token to its underlying binary
// operator (e.g. PLUS_EQ -> PLUS).
func compoundBase(op token.Kind) token.Kind {
	switch op {
	case token.PLUS_EQ:
		return token.PLUS
	case token.MINUS_EQ:
		return token.MINUS
	case token.STAR_EQ:
		return token.STAR
	case token.SLASH_EQ:
		return token.SLASH
	case token.PCT_EQ:
		return token.PERCENT
	case token.AMP_EQ:
		return token.AMP
	case token.PIPE_EQ:
		return token.PIPE
	case token.CARET_EQ:
		return token.CARET
	case token.SHL_EQ:
		return token.SHL
	case token.SHR_EQ:
		return token.SHR
	default:
		return op
	}
}

func (e *Emitter) generateReturn(r *ast.ReturnStmt) string {
	var b strings.Builder
	if r.Value != nil {
		b.WriteString(e.generateExpr(r.Value))
	}
	if e.currentFunc == "main" {
		b.WriteString(e.target.exitSequence())
	} else {
		fmt.Fprintf(&b, "    jmp .fn_exit_%s\n", e.currentFunc)
	}
	return b.String()
}

func (e *Emitter) generateIf(s *ast.IfStmt) string {
	var b strings.Builder
	elseLabel := e.newLabel("L_else")
	endLabel := e.newLabel("L_if_end")

	b.WriteString(e.generateExpr(s.Condition))
	b.WriteString("    test rax, rax\n")
	if s.Else != nil {
		fmt.Fprintf(&b, "    jz %s\n", elseLabel)
	} else {
		fmt.Fprintf(&b, "    jz %s\n", endLabel)
	}
	b.WriteString(e.generateStmt(s.Then))
	if s.Else != nil {
		fmt.Fprintf(&b, "    jmp %s\n", endLabel)
		fmt.Fprintf(&b, "%s:\n", elseLabel)
		b.WriteString(e.generateStmt(s.Else))
	}
	fmt.Fprintf(&b, "%s:\n", endLabel)
	return b.String()
}

func (e *Emitter) generateWhile(s *ast.WhileStmt) string {
	var b strings.Builder
	start := e.newLabel("L_while_start")
	end := e.newLabel("L_while_end")
	e.loopStack = append(e.loopStack, loopLabel{continueLabel: start, breakLabel: end})

	fmt.Fprintf(&b, "%s:\n", start)
	b.WriteString(e.generateExpr(s.Condition))
	b.WriteString("    test rax, rax\n")
	fmt.Fprintf(&b, "    jz %s\n", end)
	b.WriteString(e.generateStmt(s.Body))
	fmt.Fprintf(&b, "    jmp %s\n", start)
	fmt.Fprintf(&b, "%s:\n", end)

	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	return b.String()
}

func (e *Emitter) generateLoop(s *ast.LoopStmt) string {
	var b strings.Builder
	start := e.newLabel("L_loop_start")
	end := e.newLabel("L_loop_end")
	e.loopStack = append(e.loopStack, loopLabel{continueLabel: start, breakLabel: end})

	fmt.Fprintf(&b, "%s:\n", start)
	b.WriteString(e.generateStmt(s.Body))
	fmt.Fprintf(&b, "    jmp %s\n", start)
	fmt.Fprintf(&b, "%s:\n", end)

	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	return b.String()
}

func (e *Emitter) generateForC(s *ast.ForCStmt) string {
	var b strings.Builder
	if s.Init != nil {
		b.WriteString(e.generateVarDecl(s.Init))
	}
	start := e.newLabel("L_for_start")
	end := e.newLabel("L_for_end")
	e.loopStack = append(e.loopStack, loopLabel{continueLabel: start, breakLabel: end})

	fmt.Fprintf(&b, "%s:\n", start)
	if s.Cond != nil {
		b.WriteString(e.generateExpr(s.Cond))
		b.WriteString("    test rax, rax\n")
		fmt.Fprintf(&b, "    jz %s\n", end)
	}
	b.WriteString(e.generateStmt(s.Body))
	if s.Incr != nil {
		b.WriteString(e.generateStmt(s.Incr))
	}
	fmt.Fprintf(&b, "    jmp %s\n", start)
	fmt.Fprintf(&b, "%s:\n", end)

	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	return b.String()
}

// generateForIn handles both `for x in array` (index-counter loop over a
// known-length array) and `for i in a..b` (range loop re-evaluating the
// upper bound each iteration, per spec.md §4.5).
func (e *Emitter) generateForIn(s *ast.ForInStmt) string {
	var b strings.Builder
	start := e.newLabel("L_for_start")
	end := e.newLabel("L_for_end")
	e.loopStack = append(e.loopStack, loopLabel{continueLabel: start, breakLabel: end})

	if rng, ok := s.Iterable.(*ast.RangeExpr); ok {
		e.stackPointer += 8
		varOff := e.stackPointer
		e.locations[s.Variable] = &varLocation{offset: varOff, typ: types.Int(32, true), slots: 1}

		b.WriteString(e.generateExpr(rng.Start))
		fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", varOff)
		fmt.Fprintf(&b, "%s:\n", start)
		fmt.Fprintf(&b, "    mov rax, [rbp - %d]\n", varOff)
		b.WriteString("    push rax\n")
		b.WriteString(e.generateExpr(rng.End))
		b.WriteString("    mov rbx, rax\n")
		b.WriteString("    pop rax\n")
		b.WriteString("    cmp rax, rbx\n")
		fmt.Fprintf(&b, "    jge %s\n", end)
		b.WriteString(e.generateStmt(s.Body))
		fmt.Fprintf(&b, "    mov rax, [rbp - %d]\n", varOff)
		b.WriteString("    inc rax\n")
		fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", varOff)
		fmt.Fprintf(&b, "    jmp %s\n", start)
		fmt.Fprintf(&b, "%s:\n", end)
		e.loopStack = e.loopStack[:len(e.loopStack)-1]
		return b.String()
	}

	arrType := e.result.ExprTypes[s.Iterable]
	b.WriteString(e.generateExpr(s.Iterable))
	b.WriteString("    mov rsi, rax\n")

	e.stackPointer += 8
	idxOff := e.stackPointer
	e.stackPointer += 8
	varOff := e.stackPointer
	elemType := types.Any
	if arrType != nil {
		elemType = arrType.Elem
	}
	e.locations[s.Variable] = &varLocation{offset: varOff, typ: elemType, slots: 1}

	b.WriteString("    push rsi\n")
	b.WriteString("    mov rax, 0\n")
	fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", idxOff)
	fmt.Fprintf(&b, "%s:\n", start)
	length := arrayLengthOf(s.Iterable, e.result)
	fmt.Fprintf(&b, "    mov rax, [rbp - %d]\n", idxOff)
	fmt.Fprintf(&b, "    cmp rax, %d\n", length)
	fmt.Fprintf(&b, "    jge %s\n", end)
	b.WriteString("    pop rsi\n")
	b.WriteString("    push rsi\n")
	b.WriteString("    mov rbx, [rsi + rax*8]\n")
	fmt.Fprintf(&b, "    mov [rbp - %d], rbx\n", varOff)
	b.WriteString(e.generateStmt(s.Body))
	fmt.Fprintf(&b, "    mov rax, [rbp - %d]\n", idxOff)
	b.WriteString("    inc rax\n")
	fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", idxOff)
	fmt.Fprintf(&b, "    jmp %s\n", start)
	fmt.Fprintf(&b, "%s:\n", end)
	b.WriteString("    pop rsi\n")

	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	return b.String()
}

func arrayLengthOf(expr ast.Expression, result *checker.CheckResult) int {
	if t, ok := result.ExprTypes[expr]; ok && t != nil && t.Kind == types.ArrayKind && t.Len >= 0 {
		return t.Len
	}
	return 0
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (e *Emitter) generateExpr(expr ast.Expression) string {
	switch ex := expr.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("    mov rax, %s\n", ex.Value)
	case *ast.HexLit:
		return fmt.Sprintf("    mov rax, %s\n", ex.Value)
	case *ast.FloatLit:
		idx := e.internFloat(parseFloatLiteral(ex.Value))
		return fmt.Sprintf("    movsd xmm0, [float_%d]\n", idx)
	case *ast.CharLit:
		return fmt.Sprintf("    mov rax, %d\n", ex.Value)
	case *ast.BoolLit:
		if ex.Value {
			return "    mov rax, 1\n"
		}
		return "    mov rax, 0\n"
	case *ast.NullLit:
		return "    xor rax, rax\n"
	case *ast.StringLit:
		idx := e.internString(ex.Value)
		return fmt.Sprintf("    lea rax, [str_%d]\n", idx)
	case *ast.InterpStringExpr:
		return e.generateInterpString(ex)
	case *ast.Identifier:
		return e.loadVar(ex.Name)
	case *ast.SelfExpr:
		return e.loadVar("self")
	case *ast.BinaryExpr:
		return e.generateBinary(ex)
	case *ast.UnaryExpr:
		return e.generateUnary(ex)
	case *ast.PostfixExpr:
		return e.generatePostfix(ex)
	case *ast.TernaryExpr:
		return e.generateTernary(ex)
	case *ast.RangeExpr:
		return e.generateExpr(ex.Start)
	case *ast.ArrayLit:
		return e.generateArrayLit(ex)
	case *ast.StructLit:
		return e.generateStructLit(ex)
	case *ast.CallExpr:
		return e.generateCall(ex)
	case *ast.MemberExpr:
		return e.generateMember(ex)
	case *ast.IndexExpr:
		return e.generateIndex(ex)
	case *ast.EnumAccessExpr:
		info := e.result.Enums[ex.EnumName]
		if info == nil {
			return "    xor rax, rax\n"
		}
		return fmt.Sprintf("    mov rax, %d\n", info.Values[ex.Variant])
	case *ast.SizeofExpr:
		return fmt.Sprintf("    mov rax, %d\n", sizeofType(ex.Type))
	case *ast.TryExpr:
		// Result<T,E> is modeled as an opaque handle in rax (the checker
		// guarantees the surrounding function also returns Result); no
		// unwrap lowering is attempted here.
		return e.generateExpr(ex.Expr)
	case *ast.AwaitExpr:
		// await lowering is stubbed (spec.md §5, SPEC_FULL.md §9): the
		// handle produced by the async call is forwarded to an external
		// runtime symbol rather than actually suspended/resumed.
		var b strings.Builder
		b.WriteString(e.generateExpr(ex.Expr))
		b.WriteString("    mov rcx, rax\n")
		fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
		b.WriteString("    call _future_new\n")
		fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
		return b.String()
	case *ast.ChannelSendExpr:
		var b strings.Builder
		b.WriteString(e.generateExpr(ex.Value))
		b.WriteString("    mov rdx, rax\n")
		b.WriteString(e.generateExpr(ex.Channel))
		b.WriteString("    mov rcx, rax\n")
		fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
		b.WriteString("    call _chan_send\n")
		fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
		return b.String()
	case *ast.ChannelRecvExpr:
		var b strings.Builder
		b.WriteString(e.generateExpr(ex.Channel))
		b.WriteString("    mov rcx, rax\n")
		fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
		b.WriteString("    call _chan_recv\n")
		fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
		return b.String()
	case *ast.LambdaExpr:
		return e.generateLambda(ex)
	case *ast.BlockExpr:
		return e.generateStmt(ex.Body)
	case *ast.MatchExpr:
		return e.generateMatch(ex)
	case *ast.DefaultPatternExpr:
		return "    xor rax, rax\n"
	default:
		return ""
	}
}

func parseFloatLiteral(s string) float64 {
	var whole, frac float64
	var fracDiv float64 = 1
	seenDot := false
	neg := false
	for i, ch := range s {
		if i == 0 && ch == '-' {
			neg = true
			continue
		}
		if ch == '.' {
			seenDot = true
			continue
		}
		if ch < '0' || ch > '9' {
			break
		}
		d := float64(ch - '0')
		if !seenDot {
			whole = whole*10 + d
		} else {
			fracDiv *= 10
			frac = frac*10 + d
		}
	}
	v := whole + frac/fracDiv
	if neg {
		v = -v
	}
	return v
}

func sizeofType(t *ast.TypeRef) int {
	if t == nil {
		return 8
	}
	switch t.Name {
	case "i8", "u8", "byte", "bit", "hex", "bool", "char":
		return 1
	case "i16", "u16":
		return 2
	case "i32", "u32", "f32", "d32":
		return 4
	default:
		return 8
	}
}

func (e *Emitter) loadVar(name string) string {
	loc, ok := e.locations[name]
	if !ok {
		return "    xor rax, rax\n"
	}
	if loc.typ != nil && loc.typ.Kind == types.FloatKind {
		return fmt.Sprintf("    movsd xmm0, [rbp - %d]\n", loc.offset)
	}
	return fmt.Sprintf("    mov rax, [rbp - %d]\n", loc.offset)
}

func (e *Emitter) generateInterpString(ex *ast.InterpStringExpr) string {
	var literal strings.Builder
	for _, part := range ex.Parts {
		if part.Expr == nil {
			literal.WriteString(part.Literal)
		} else {
			literal.WriteString("%s")
		}
	}
	idx := e.internString(literal.String())
	var b strings.Builder
	b.WriteString(fmt.Sprintf("    lea rax, [str_%d]\n", idx))
	return b.String()
}

// generateBinary lowers a binary operator following spec.md §4.5's
// stack-machine recipe: evaluate RHS, spill it, evaluate LHS (result stays
// in rax/xmm0), reload RHS into rbx/xmm1, then apply the operator.
func (e *Emitter) generateBinary(ex *ast.BinaryExpr) string {
	leftType := e.result.ExprTypes[ex.Left]
	rightType := e.result.ExprTypes[ex.Right]
	isFloat := (leftType != nil && leftType.Kind == types.FloatKind) || (rightType != nil && rightType.Kind == types.FloatKind)

	switch ex.Op {
	case token.LAND:
		return e.generateShortCircuit(ex, true)
	case token.LOR:
		return e.generateShortCircuit(ex, false)
	}

	var b strings.Builder
	if isFloat {
		b.WriteString(e.generateExpr(ex.Right))
		b.WriteString("    sub rsp, 8\n    movsd [rsp], xmm0\n")
		b.WriteString(e.generateExpr(ex.Left))
		b.WriteString("    movsd xmm1, [rsp]\n    add rsp, 8\n")
		switch ex.Op {
		case token.PLUS:
			b.WriteString("    addsd xmm0, xmm1\n")
		case token.MINUS:
			b.WriteString("    subsd xmm0, xmm1\n")
		case token.STAR:
			b.WriteString("    mulsd xmm0, xmm1\n")
		case token.SLASH:
			b.WriteString("    divsd xmm0, xmm1\n")
		case token.PERCENT:
			b.WriteString(fmt.Sprintf("    sub rsp, %d\n", e.conv.ShadowSpace))
			b.WriteString("    call _fmod\n")
			b.WriteString(fmt.Sprintf("    add rsp, %d\n", e.conv.ShadowSpace))
		}
		return b.String()
	}

	b.WriteString(e.generateExpr(ex.Right))
	b.WriteString("    push rax\n")
	b.WriteString(e.generateExpr(ex.Left))
	b.WriteString("    pop rbx\n")

	switch ex.Op {
	case token.PLUS:
		b.WriteString("    add rax, rbx\n")
	case token.MINUS:
		b.WriteString("    sub rax, rbx\n")
	case token.STAR:
		b.WriteString("    imul rbx\n")
	case token.SLASH:
		b.WriteString("    cqo\n    idiv rbx\n")
	case token.PERCENT:
		b.WriteString("    cqo\n    idiv rbx\n    mov rax, rdx\n")
	case token.AMP:
		b.WriteString("    and rax, rbx\n")
	case token.PIPE:
		b.WriteString("    or rax, rbx\n")
	case token.CARET:
		b.WriteString("    xor rax, rbx\n")
	case token.SHL:
		b.WriteString("    mov rcx, rbx\n    shl rax, cl\n")
	case token.SHR:
		b.WriteString("    mov rcx, rbx\n    sar rax, cl\n")
	case token.EQ, token.STRICT_EQ:
		b.WriteString("    cmp rax, rbx\n    sete al\n    movzx rax, al\n")
	case token.NEQ, token.STRICT_NEQ, token.DIAMOND:
		b.WriteString("    cmp rax, rbx\n    setne al\n    movzx rax, al\n")
	case token.LT:
		b.WriteString("    cmp rax, rbx\n    setl al\n    movzx rax, al\n")
	case token.GT:
		b.WriteString("    cmp rax, rbx\n    setg al\n    movzx rax, al\n")
	case token.LEQ:
		b.WriteString("    cmp rax, rbx\n    setle al\n    movzx rax, al\n")
	case token.GEQ:
		b.WriteString("    cmp rax, rbx\n    setge al\n    movzx rax, al\n")
	case token.AND, token.OR, token.XOR:
		switch ex.Op {
		case token.AND:
			b.WriteString("    and rax, rbx\n")
		case token.OR:
			b.WriteString("    or rax, rbx\n")
		case token.XOR:
			b.WriteString("    xor rax, rbx\n")
		}
	}
	return b.String()
}

func (e *Emitter) generateShortCircuit(ex *ast.BinaryExpr, isAnd bool) string {
	var b strings.Builder
	shortLabel := e.newLabel("L_sc_short")
	endLabel := e.newLabel("L_sc_end")

	b.WriteString(e.generateExpr(ex.Left))
	b.WriteString("    test rax, rax\n")
	if isAnd {
		fmt.Fprintf(&b, "    jz %s\n", shortLabel)
	} else {
		fmt.Fprintf(&b, "    jnz %s\n", shortLabel)
	}
	b.WriteString(e.generateExpr(ex.Right))
	b.WriteString("    test rax, rax\n")
	if isAnd {
		fmt.Fprintf(&b, "    jz %s\n", shortLabel)
		b.WriteString("    mov rax, 1\n")
	} else {
		fmt.Fprintf(&b, "    jnz %s\n", shortLabel)
		b.WriteString("    mov rax, 0\n")
	}
	fmt.Fprintf(&b, "    jmp %s\n", endLabel)
	fmt.Fprintf(&b, "%s:\n", shortLabel)
	if isAnd {
		b.WriteString("    mov rax, 0\n")
	} else {
		b.WriteString("    mov rax, 1\n")
	}
	fmt.Fprintf(&b, "%s:\n", endLabel)
	return b.String()
}

func (e *Emitter) generateUnary(ex *ast.UnaryExpr) string {
	var b strings.Builder
	operandType := e.result.ExprTypes[ex.Operand]
	switch ex.Op {
	case token.MINUS:
		b.WriteString(e.generateExpr(ex.Operand))
		if operandType != nil && operandType.Kind == types.FloatKind {
			b.WriteString("    xorps xmm1, xmm1\n    subsd xmm1, xmm0\n    movsd xmm0, xmm1\n")
		} else {
			b.WriteString("    neg rax\n")
		}
	case token.BANG:
		b.WriteString(e.generateExpr(ex.Operand))
		b.WriteString("    test rax, rax\n    sete al\n    movzx rax, al\n")
	case token.TILDE:
		b.WriteString(e.generateExpr(ex.Operand))
		b.WriteString("    not rax\n")
	case token.AMP:
		b.WriteString(e.addressOf(ex.Operand))
	case token.STAR:
		b.WriteString(e.generateExpr(ex.Operand))
		b.WriteString("    mov rax, [rax]\n")
	case token.INC, token.DEC_OP:
		b.WriteString(e.generateIncDec(ex.Operand, ex.Op, true))
	}
	return b.String()
}

func (e *Emitter) generatePostfix(ex *ast.PostfixExpr) string {
	return e.generateIncDec(ex.Operand, ex.Op, false)
}

// generateIncDec loads the operand, keeps a copy for post-form results,
// adjusts, stores back, and selects the pre- or post-adjustment value
// (spec.md §4.5).
func (e *Emitter) generateIncDec(operand ast.Expression, op token.Kind, pre bool) string {
	ident, ok := operand.(*ast.Identifier)
	if !ok {
		return e.generateExpr(operand)
	}
	loc, ok := e.locations[ident.Name]
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "    mov rax, [rbp - %d]\n", loc.offset)
	b.WriteString("    mov rbx, rax\n")
	if op == token.INC {
		b.WriteString("    add rbx, 1\n")
	} else {
		b.WriteString("    sub rbx, 1\n")
	}
	fmt.Fprintf(&b, "    mov [rbp - %d], rbx\n", loc.offset)
	if !pre {
		return b.String() // rax already holds the pre-increment value
	}
	b.WriteString("    mov rax, rbx\n")
	return b.String()
}

func (e *Emitter) addressOf(expr ast.Expression) string {
	if ident, ok := expr.(*ast.Identifier); ok {
		if loc, ok := e.locations[ident.Name]; ok {
			return fmt.Sprintf("    lea rax, [rbp - %d]\n", loc.offset)
		}
	}
	return e.generateExpr(expr)
}

func (e *Emitter) generateTernary(ex *ast.TernaryExpr) string {
	var b strings.Builder
	elseLabel := e.newLabel("L_tern_else")
	endLabel := e.newLabel("L_tern_end")
	b.WriteString(e.generateExpr(ex.Condition))
	b.WriteString("    test rax, rax\n")
	fmt.Fprintf(&b, "    jz %s\n", elseLabel)
	b.WriteString(e.generateExpr(ex.Then))
	fmt.Fprintf(&b, "    jmp %s\n", endLabel)
	fmt.Fprintf(&b, "%s:\n", elseLabel)
	b.WriteString(e.generateExpr(ex.Else))
	fmt.Fprintf(&b, "%s:\n", endLabel)
	return b.String()
}

func (e *Emitter) generateArrayLit(arr *ast.ArrayLit) string {
	var b strings.Builder
	base := e.stackPointer + 8
	for i, el := range arr.Elements {
		b.WriteString(e.generateExpr(el))
		fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", base+i*8)
	}
	e.stackPointer = base + len(arr.Elements)*8
	fmt.Fprintf(&b, "    lea rax, [rbp - %d]\n", base)
	return b.String()
}

func (e *Emitter) generateStructLit(s *ast.StructLit) string {
	info := e.result.Structs[s.Name]
	var b strings.Builder
	base := e.stackPointer + 8
	if info != nil {
		e.stackPointer = base + len(info.Fields)*8
		for _, f := range s.Fields {
			idx, ok := info.FieldIndex[f.Name]
			if !ok {
				continue
			}
			b.WriteString(e.generateExpr(f.Value))
			fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", base+idx*8)
		}
	}
	fmt.Fprintf(&b, "    lea rax, [rbp - %d]\n", base)
	return b.String()
}

func (e *Emitter) generateIndex(idx *ast.IndexExpr) string {
	var b strings.Builder
	b.WriteString(e.generateExpr(idx.Object))
	b.WriteString("    mov rsi, rax\n")
	b.WriteString(e.generateExpr(idx.Index))
	b.WriteString("    mov rax, [rsi + rax*8]\n")
	return b.String()
}

func (e *Emitter) structFieldOf(m *ast.MemberExpr) (*checker.StructInfo, int, bool) {
	objType := e.result.ExprTypes[m.Object]
	if objType == nil {
		return nil, 0, false
	}
	name := objType.Name
	if (objType.Kind == types.PtrKind || objType.Kind == types.RefKind) && objType.Elem != nil {
		name = objType.Elem.Name
	}
	info, ok := e.result.Structs[name]
	if !ok {
		return nil, 0, false
	}
	idx, ok := info.FieldIndex[m.Field]
	if !ok {
		return nil, 0, false
	}
	return info, idx, true
}

func (e *Emitter) generateMember(m *ast.MemberExpr) string {
	var b strings.Builder
	if _, idx, ok := e.structFieldOf(m); ok {
		b.WriteString(e.generateExpr(m.Object))
		fmt.Fprintf(&b, "    mov rax, [rax + %d]\n", idx*8)
		return b.String()
	}
	// Method reference used as a value (e.g. passed to routine()): leave
	// the receiver address in rax for the call site to consume.
	b.WriteString(e.generateExpr(m.Object))
	return b.String()
}

// generateCall evaluates each argument, spills to temporary stack slots,
// then reloads up to len(conv.IntArgRegs) into argument registers (plus
// stack-pushed remainder in reverse for the rest), reserves the target's
// shadow space, and calls (spec.md §4.5). rsp is not realigned to a
// 16-byte boundary before the call.
func (e *Emitter) generateCall(call *ast.CallExpr) string {
	var b strings.Builder

	ident, isIdent := call.Callee.(*ast.Identifier)
	// A bare identifier naming a local variable or parameter holds a
	// function *value* (e.g. a lambda assigned with `let f = fn(x: i32): i32 -> ...`)
	// and must be called indirectly through the register that loads it;
	// only an identifier naming a top-level function/method is a true
	// direct label call.
	isDirect := isIdent
	if isIdent {
		if _, isLocal := e.locations[ident.Name]; isLocal {
			isDirect = false
		}
	}
	callee := "rax"
	if isDirect {
		callee = ident.Name
	} else {
		b.WriteString(e.generateExpr(call.Callee))
		b.WriteString("    mov r11, rax\n")
		callee = "r11"
	}

	argValues := make([]string, len(call.Args))
	for i, a := range call.Args {
		b.WriteString(e.generateExpr(a.Value))
		e.stackPointer += 8
		slot := e.stackPointer
		fmt.Fprintf(&b, "    mov [rbp - %d], rax\n", slot)
		argValues[i] = fmt.Sprintf("[rbp - %d]", slot)
	}

	regs := e.conv.IntArgRegs
	for i := len(argValues) - 1; i >= len(regs); i-- {
		fmt.Fprintf(&b, "    mov rax, %s\n", argValues[i])
		b.WriteString("    push rax\n")
	}
	for i := 0; i < len(argValues) && i < len(regs); i++ {
		fmt.Fprintf(&b, "    mov %s, %s\n", regs[i], argValues[i])
	}

	fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
	if isDirect {
		fmt.Fprintf(&b, "    call %s\n", callee)
	} else {
		fmt.Fprintf(&b, "    call %s\n", callee)
	}
	fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
	if extra := len(argValues) - len(regs); extra > 0 {
		fmt.Fprintf(&b, "    add rsp, %d\n", extra*8)
	}
	return b.String()
}

// generatePrint unifies print/println/eprint/echo into one format-string
// builder, per spec.md §4.5. Each argument is printed with its own `_print`
// call. An interpolated string is printed as its literal fragments with
// `%s` in place of each `{...}` placeholder; the placeholder expressions are
// not evaluated. Floats are stringified through _ftoa first so the
// final call passes only integer/pointer argument slots. A non-empty
// escape wraps the whole call in a style's ANSI prefix and a trailing
// reset, resolved by the caller via checker.ResolveEchoStyle.
func (e *Emitter) generatePrint(args []ast.Expression, newline bool, escape string) string {
	var b strings.Builder
	if escape != "" {
		b.WriteString(e.generateRawStringPrint(escape))
	}
	for _, a := range args {
		argType := e.result.ExprTypes[a]
		b.WriteString(e.generateExpr(a))
		if argType != nil && argType.Kind == types.FloatKind {
			b.WriteString("    call _ftoa\n")
		}
		b.WriteString("    mov rcx, rax\n")
		fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
		b.WriteString("    call _print\n")
		fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
	}
	if escape != "" {
		b.WriteString(e.generateRawStringPrint(checker.AnsiReset))
	}
	if newline {
		b.WriteString(e.generateRawStringPrint("\n"))
	}
	return b.String()
}

// generateRawStringPrint interns s and emits a single `_print` call on it,
// used for the literal newline suffix and for ANSI style prefix/reset text.
func (e *Emitter) generateRawStringPrint(s string) string {
	var b strings.Builder
	idx := e.internString(s)
	fmt.Fprintf(&b, "    lea rcx, [str_%d]\n", idx)
	fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace)
	b.WriteString("    call _print\n")
	fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace)
	return b.String()
}

func (e *Emitter) generateMatch(m *ast.MatchExpr) string {
	var b strings.Builder
	b.WriteString(e.generateExpr(m.Discriminant))
	b.WriteString("    push rax\n")
	endLabel := e.newLabel("L_match_end")
	var armLabels []string
	for range m.Arms {
		armLabels = append(armLabels, e.newLabel("L_match_arm"))
	}
	for i, arm := range m.Arms {
		nextLabel := endLabel
		if i+1 < len(armLabels) {
			nextLabel = armLabels[i+1]
		}
		if !arm.Pattern.IsDefault {
			b.WriteString("    mov rax, [rsp]\n")
			if arm.Pattern.EnumName != "" {
				info := e.result.Enums[arm.Pattern.EnumName]
				var val int64
				if info != nil {
					val = info.Values[arm.Pattern.VariantName]
				}
				fmt.Fprintf(&b, "    cmp rax, %d\n", val)
			} else if arm.Pattern.Literal != nil {
				b.WriteString(e.generateExpr(arm.Pattern.Literal))
				b.WriteString("    mov rbx, rax\n    mov rax, [rsp]\n    cmp rax, rbx\n")
			}
			fmt.Fprintf(&b, "    jne %s\n", nextLabel)
		}
		b.WriteString(e.generateExpr(arm.Body))
		b.WriteString("    add rsp, 8\n")
		fmt.Fprintf(&b, "    jmp %s\n", endLabel)
		if i+1 < len(armLabels) {
			fmt.Fprintf(&b, "%s:\n", armLabels[i+1])
		}
	}
	fmt.Fprintf(&b, "%s:\n", endLabel)
	return b.String()
}

// generateBuiltinsLibrary emits the fixed runtime helper block: _atoi,
// _itoa, _ftoa, and their shared scratch buffer (spec.md §4.5). `_print`
// and `_sprint` are linked from an external helper object supplied by the
// toolchain, not emitted here.
func (e *Emitter) generateBuiltinsLibrary() string {
	var b strings.Builder
	b.WriteString("\n# --- Built-in helpers ---\n")
	b.WriteString(".section .data\n")
	b.WriteString("_conv_buffer: .space 1024\n")
	b.WriteString("_fmt_float_str: .asciz \"%f\"\n")
	b.WriteString(".section .text\n")

	b.WriteString("_atoi:\n")
	b.WriteString("    xor rax, rax\n    xor r8, r8\n    mov r9, 1\n")
	b.WriteString("    movzx r8, byte ptr [rcx]\n    cmp r8b, '-'\n    jne .Latoi_loop\n")
	b.WriteString("    mov r9, -1\n    inc rcx\n")
	b.WriteString(".Latoi_loop:\n    movzx r8, byte ptr [rcx]\n    test r8b, r8b\n    jz .Latoi_done\n")
	b.WriteString("    cmp r8b, '0'\n    jl .Latoi_done\n    cmp r8b, '9'\n    jg .Latoi_done\n")
	b.WriteString("    sub r8b, '0'\n    imul rax, 10\n    add rax, r8\n    inc rcx\n    jmp .Latoi_loop\n")
	b.WriteString(".Latoi_done:\n    imul rax, r9\n    ret\n\n")

	b.WriteString("_itoa:\n")
	b.WriteString("    lea rax, [_conv_buffer]\n    add rax, 64\n    mov byte ptr [rax], 0\n")
	b.WriteString("    mov r8, rcx\n    mov r10, 10\n    mov r11, rax\n    test r8, r8\n    jns .Litoa_loop\n    neg r8\n")
	b.WriteString(".Litoa_loop:\n    xor rdx, rdx\n    mov rax, r8\n    div r10\n    mov r8, rax\n")
	b.WriteString("    add dl, '0'\n    dec r11\n    mov [r11], dl\n    test r8, r8\n    jnz .Litoa_loop\n")
	b.WriteString("    cmp rcx, 0\n    jge .Litoa_done\n    dec r11\n    mov byte ptr [r11], '-'\n")
	b.WriteString(".Litoa_done:\n    mov rax, r11\n    ret\n\n")

	b.WriteString("_ftoa:\n")
	fmt.Fprintf(&b, "    sub rsp, %d\n", e.conv.ShadowSpace+16)
	b.WriteString("    lea rcx, [_conv_buffer]\n")
	b.WriteString("    lea rdx, [_fmt_float_str]\n")
	b.WriteString("    movaps xmm2, xmm0\n")
	b.WriteString("    movq r8, xmm0\n")
	b.WriteString("    call _sprint\n")
	b.WriteString("    lea rax, [_conv_buffer]\n")
	fmt.Fprintf(&b, "    add rsp, %d\n", e.conv.ShadowSpace+16)
	b.WriteString("    ret\n")

	return b.String()
}
