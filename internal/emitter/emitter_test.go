package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimlang/nimc/internal/checker"
	"github.com/nimlang/nimc/internal/parser"
)

func mustEmit(t *testing.T, source string, target Target) string {
	t.Helper()
	p := parser.New(source)
	prog := p.Parse()
	require.False(t, p.Diagnostics().HasErrors(), "parse errors: %s", p.Diagnostics().Format("test.nim"))
	result := checker.Check(prog)
	require.False(t, result.Diagnostics.HasErrors(), "check errors: %s", result.Diagnostics.Format("test.nim"))
	return Emit(prog, result, target)
}

func TestEmit_MainFunctionUsesLinuxEntryAndExit(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 { return 0; }
`, Linux)
	require.Contains(t, out, ".global _start")
	require.Contains(t, out, "_start:")
	require.Contains(t, out, "mov rax, 60")
	require.Contains(t, out, "syscall")
}

func TestEmit_MainFunctionUsesWindowsEntryAndExit(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 { return 0; }
`, Windows)
	require.Contains(t, out, ".global main")
	require.Contains(t, out, "call ExitProcess")
}

func TestEmit_FunctionGetsLabelAndPrologueEpilogue(t *testing.T) {
	out := mustEmit(t, `
fn add(a: i32, b: i32): i32 { return a + b; }
fn main(): i32 { return add(1, 2); }
`, Linux)
	require.Contains(t, out, "add:")
	require.Contains(t, out, "push rbp")
	require.Contains(t, out, "mov rbp, rsp")
	require.Contains(t, out, ".fn_exit_add:")
	require.Contains(t, out, "pop rbp")
	require.Contains(t, out, "ret")
}

func TestEmit_WindowsCallingConventionSpillsFirstFourArgsToRegisters(t *testing.T) {
	out := mustEmit(t, `
fn sum4(a: i32, b: i32, c: i32, d: i32): i32 { return a + b + c + d; }
`, Windows)
	require.Contains(t, out, "mov [rbp - ")
	require.Contains(t, out, "rcx")
	require.Contains(t, out, "rdx")
	require.Contains(t, out, "r8")
	require.Contains(t, out, "r9")
}

func TestEmit_LinuxCallingConventionUsesSysVRegisters(t *testing.T) {
	out := mustEmit(t, `
fn sum2(a: i32, b: i32): i32 { return a + b; }
`, Linux)
	require.Contains(t, out, "rdi")
	require.Contains(t, out, "rsi")
}

func TestEmit_FloatBinaryUsesSSEInstructions(t *testing.T) {
	out := mustEmit(t, `
fn scale(x: f64): f64 { return x * 2.0; }
`, Linux)
	require.Contains(t, out, "mulsd")
}

func TestEmit_IntegerDivisionUsesCqoIdiv(t *testing.T) {
	out := mustEmit(t, `
fn half(x: i32): i32 { return x / 2; }
`, Linux)
	require.Contains(t, out, "cqo")
	require.Contains(t, out, "idiv")
}

func TestEmit_ShortCircuitAndGeneratesBranchLabels(t *testing.T) {
	out := mustEmit(t, `
fn both(a: bool, b: bool): bool { return a && b; }
`, Linux)
	require.Contains(t, out, "L_sc_short")
	require.Contains(t, out, "L_sc_end")
}

func TestEmit_IfStmtGeneratesElseAndEndLabels(t *testing.T) {
	out := mustEmit(t, `
fn sign(x: i32): i32 {
  if (x < 0) { return -1; } else { return 1; }
}
`, Linux)
	require.Contains(t, out, "L_else")
	require.Contains(t, out, "L_if_end")
}

func TestEmit_WhileLoopGeneratesStartAndEndLabels(t *testing.T) {
	out := mustEmit(t, `
fn countdown(n: i32): i32 {
  while (n > 0) { n = n - 1; }
  return n;
}
`, Linux)
	require.Contains(t, out, "L_while_start")
	require.Contains(t, out, "L_while_end")
}

func TestEmit_ForInOverArrayIndexesAndCopies(t *testing.T) {
	out := mustEmit(t, `
fn sum(): i32 {
  let items = [1, 2, 3];
  var total: i32 = 0;
  for x in items {
    total = total + x;
  }
  return total;
}
`, Linux)
	require.Contains(t, out, "L_for_start")
	require.Contains(t, out, "L_for_end")
}

func TestEmit_StringLiteralInternedIntoDataSegment(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 {
  echo("hello");
  return 0;
}
`, Linux)
	require.Contains(t, out, ".section .data")
	require.Contains(t, out, `str_0: .asciz "hello"`)
	require.Contains(t, out, "call _print")
}

func TestEmit_EnumAccessResolvesToIntegerConstant(t *testing.T) {
	out := mustEmit(t, `
enum Color { Red, Green, Blue }
fn pick(): Color { return Color::Blue; }
`, Linux)
	require.Contains(t, out, "mov rax, 2")
}

func TestEmit_StructLiteralWritesFieldsToStackSlots(t *testing.T) {
	out := mustEmit(t, `
struct Point { x: i32, y: i32 }
fn origin(): Point { return Point { x: 0, y: 0 }; }
`, Linux)
	require.Contains(t, out, "lea rax, [rbp - ")
}

func TestEmit_BuiltinsLibraryIncludesAtoiItoaFtoa(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 { return 0; }
`, Linux)
	require.Contains(t, out, "_atoi:")
	require.Contains(t, out, "_itoa:")
	require.Contains(t, out, "_ftoa:")
	require.Contains(t, out, "_conv_buffer")
}

func TestEmit_AwaitLowersToStubRuntimeCall(t *testing.T) {
	out := mustEmit(t, `
async fn fetch(): i32 { return 1; }
async fn main(): i32 {
  let v = await fetch();
  return v;
}
`, Linux)
	require.Contains(t, out, "call _future_new")
}

func TestEmit_RoutineStmtLowersToSpawnStub(t *testing.T) {
	out := mustEmit(t, `
fn worker(): i32 { return 1; }
fn main(): i32 {
  routine(worker());
  return 0;
}
`, Linux)
	require.Contains(t, out, "call _routine_spawn")
}

func TestEmit_MethodGroupEmitsFunctionForEachMethod(t *testing.T) {
	out := mustEmit(t, `
struct Counter { value: i32 }
group Counter {
  increment => fn(self: Counter): i32 -> { return self.value + 1; }
}
`, Linux)
	require.Contains(t, out, "increment:")
}

func TestEmit_LambdaAssignedAndCalledLowersToIndirectCall(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 {
  let add1 = fn(x: i32): i32 -> x + 1;
  return add1(4);
}
`, Linux)
	require.Contains(t, out, "lambda_0:")
	require.Contains(t, out, "lea rax, [lambda_0]")
	require.Contains(t, out, "call r11")
}

func TestEmit_LambdaWithBlockBodyUsesOwnExitLabel(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 {
  let double = fn(x: i32): i32 -> { return x * 2; };
  return double(3);
}
`, Linux)
	require.Contains(t, out, ".fn_exit_lambda_0:")
}

func TestEmit_StyledEchoWrapsWithAnsiPrefixAndReset(t *testing.T) {
	out := mustEmit(t, `
style Alert = "\x1b[31m";
fn main(): i32 {
  echo(Alert, "boom");
  return 0;
}
`, Linux)
	require.Contains(t, out, `\033[31m`)
	require.Contains(t, out, `\033[0m`)
}

func TestEmit_BuiltinErrorStyleWrapsEcho(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 {
  echo(error, "boom");
  return 0;
}
`, Linux)
	require.Contains(t, out, `\033[31m`)
}

func TestEmit_PlainEchoHasNoAnsiWrapping(t *testing.T) {
	out := mustEmit(t, `
fn main(): i32 {
  echo("plain");
  return 0;
}
`, Linux)
	require.NotContains(t, out, `\033[`)
}
