package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimlang/nimc/internal/ast"
	"github.com/nimlang/nimc/internal/diagnostic"
	"github.com/nimlang/nimc/internal/parser"
)

func mustCheck(t *testing.T, source string) *CheckResult {
	t.Helper()
	p := parser.New(source)
	prog := p.Parse()
	require.False(t, p.Diagnostics().HasErrors(), "parse errors: %s", p.Diagnostics().Format("test.nim"))
	return Check(prog)
}

func TestCheck_FunctionReturnTypeMismatch(t *testing.T) {
	result := mustCheck(t, `
fn add(a: i32, b: i32): i32 { return a + b; }
fn bad(): i32 { return true; }
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_VarDeclInferredAndMismatch(t *testing.T) {
	result := mustCheck(t, `
fn main(): i32 {
  let x: i32 = 5;
  let y = 10;
  const z: i32 = "nope";
  return x + y;
}
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_AssignmentToImmutableFails(t *testing.T) {
	result := mustCheck(t, `
fn main(): i32 {
  let x: i32 = 1;
  x = 2;
  return x;
}
`)
	require.True(t, result.Diagnostics.HasErrors())
	found := false
	for _, d := range result.Diagnostics.Errors() {
		if d.Message == `cannot assign to immutable variable "x" (declare with 'mut' or 'var')` {
			found = true
		}
	}
	require.True(t, found)
}

func TestCheck_AssignmentToMutableSucceeds(t *testing.T) {
	result := mustCheck(t, `
fn main(): i32 {
  var x: i32 = 1;
  x = 2;
  return x;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_StructFieldsResolvedAndLiteralChecked(t *testing.T) {
	result := mustCheck(t, `
struct Point { x: i32, y: i32 }
fn origin(): Point {
  return Point { x: 0, y: 0 };
}
fn bad(): Point {
  return Point { x: 0 };
}
`)
	require.Contains(t, result.Structs, "Point")
	require.Len(t, result.Structs["Point"].Fields, 2)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_EnumVariantValuesAndAccess(t *testing.T) {
	result := mustCheck(t, `
enum Color { Red, Green, Blue }
fn pick(): Color { return Color::Green; }
`)
	info := result.Enums["Color"]
	require.NotNil(t, info)
	require.Equal(t, int64(0), info.Values["Red"])
	require.Equal(t, int64(1), info.Values["Green"])
	require.Equal(t, int64(2), info.Values["Blue"])
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_EnumExplicitInitializerContinuesSequence(t *testing.T) {
	result := mustCheck(t, `
enum Status { Ok = 10, Warn, Error = 20 }
`)
	info := result.Enums["Status"]
	require.Equal(t, int64(10), info.Values["Ok"])
	require.Equal(t, int64(11), info.Values["Warn"])
	require.Equal(t, int64(20), info.Values["Error"])
}

func TestCheck_StructMethodGroupRegistersAndChecksSelf(t *testing.T) {
	result := mustCheck(t, `
struct Counter { value: i32 }
group Counter {
  increment => fn(self: Counter): i32 -> { return self.value + 1; }
}
`)
	require.Contains(t, result.Methods, "Counter")
	require.Contains(t, result.Methods["Counter"], "increment")
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_NamespaceGroupFunctionsJoinTopLevel(t *testing.T) {
	result := mustCheck(t, `
group mathutils {
  fn square(n: i32): i32 { return n * n; }
}
fn main(): i32 { return square(3); }
`)
	require.Contains(t, result.Functions, "square")
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_IfConditionMustBeBool(t *testing.T) {
	result := mustCheck(t, `
fn main(): i32 {
  if (1) { return 1; }
  return 0;
}
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_ForInOverArray(t *testing.T) {
	result := mustCheck(t, `
fn sum(): i32 {
  let items = [1, 2, 3];
  var total: i32 = 0;
  for x in items {
    total = total + x;
  }
  return total;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_BreakContinueOutsideLoopFails(t *testing.T) {
	result := mustCheck(t, `
fn main(): i32 {
  break;
  return 0;
}
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_TryRequiresResultAndResultReturningFunction(t *testing.T) {
	result := mustCheck(t, `
fn risky(): Result<i32, str> { return Result { x: 0 }; }
fn caller(): i32 {
  let v = risky()?;
  return v;
}
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_AwaitRequiresAsyncContext(t *testing.T) {
	result := mustCheck(t, `
async fn fetch(): i32 { return 1; }
fn main(): i32 {
  let v = await fetch();
  return v;
}
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_AwaitInsideAsyncFunctionSucceeds(t *testing.T) {
	result := mustCheck(t, `
async fn fetch(): i32 { return 1; }
async fn main(): i32 {
  let v = await fetch();
  return v;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_CallArgumentsNamedOutOfOrder(t *testing.T) {
	result := mustCheck(t, `
fn greet(name: str, times: i32): void {}
fn main(): i32 {
  greet(times: 3, name: "hi");
  return 0;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_UndefinedFunctionReportsError(t *testing.T) {
	result := mustCheck(t, `
fn main(): i32 {
  return mystery(1, 2);
}
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_MatchArmTypesMustUnify(t *testing.T) {
	result := mustCheck(t, `
enum Dir { North, South }
fn describe(d: Dir): i32 {
  return match d {
    Dir::North => 1,
    def => 0,
  };
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_TypedefResolvesToUnderlyingType(t *testing.T) {
	result := mustCheck(t, `
typedef UserId = i64;
fn makeId(): UserId { return 42; }
`)
	resolved, ok := result.Typedefs["UserId"]
	require.True(t, ok)
	require.Equal(t, "i64", resolved.String())
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_PointerAndReferenceAssignability(t *testing.T) {
	result := mustCheck(t, `
fn takesPtr(p: *i32): void {}
fn main(): i32 {
  let x: i32 = 1;
  let r: &i32 = &x;
  return x;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_GroupConstResolvesInsideFunctionBody(t *testing.T) {
	result := mustCheck(t, `
group limits {
  const Max: i32 = 5;
}
fn main(): i32 { return Max; }
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func TestCheck_GroupConstDuplicateIsRejected(t *testing.T) {
	result := mustCheck(t, `
group a {
  const Max: i32 = 5;
}
group b {
  const Max: i32 = 9;
}
fn main(): i32 { return Max; }
`)
	require.True(t, result.Diagnostics.HasErrors())
}

func TestCheck_UseWildcardImportsPublicFunction(t *testing.T) {
	dep := mustCheck(t, `
pub fn square(n: i32): i32 { return n * n; }
fn hidden(): i32 { return 0; }
`)
	result := CheckWithImports(parseOK(t, `
use mathutils::*;
fn main(): i32 { return square(3); }
`), map[string]*CheckResult{"mathutils": dep})
	require.False(t, result.Diagnostics.HasErrors())
	require.Contains(t, result.Functions, "square")
	require.NotContains(t, result.Functions, "hidden")
}

func TestCheck_UseSpecificImportsAndRenames(t *testing.T) {
	dep := mustCheck(t, `
pub fn square(n: i32): i32 { return n * n; }
`)
	result := CheckWithImports(parseOK(t, `
use mathutils::{square as sq};
fn main(): i32 { return sq(3); }
`), map[string]*CheckResult{"mathutils": dep})
	require.False(t, result.Diagnostics.HasErrors())
	require.Contains(t, result.Functions, "sq")
	require.NotContains(t, result.Functions, "square")
}

func TestCheck_UseAliasInstallsNoSymbols(t *testing.T) {
	dep := mustCheck(t, `
pub fn square(n: i32): i32 { return n * n; }
`)
	result := CheckWithImports(parseOK(t, `
use mathutils as m;
fn main(): i32 { return 0; }
`), map[string]*CheckResult{"mathutils": dep})
	require.False(t, result.Diagnostics.HasErrors())
	require.NotContains(t, result.Functions, "square")
}

func TestCheck_UseDoubleImportIsIdempotent(t *testing.T) {
	dep := mustCheck(t, `
pub fn square(n: i32): i32 { return n * n; }
`)
	result := CheckWithImports(parseOK(t, `
use mathutils::*;
use mathutils::{square};
fn main(): i32 { return square(3); }
`), map[string]*CheckResult{"mathutils": dep})
	require.False(t, result.Diagnostics.HasErrors())
	warned := false
	for _, d := range result.Diagnostics.All() {
		if d.Severity == diagnostic.Warning {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestCheck_ExportUseReExportsToSecondImporter(t *testing.T) {
	base := mustCheck(t, `
pub fn square(n: i32): i32 { return n * n; }
`)
	mid := CheckWithImports(parseOK(t, `
export use base::*;
`), map[string]*CheckResult{"base": base})
	require.False(t, mid.Diagnostics.HasErrors())
	require.Contains(t, mid.Importable.Functions, "square")

	top := CheckWithImports(parseOK(t, `
use mid::*;
fn main(): i32 { return square(3); }
`), map[string]*CheckResult{"mid": mid})
	require.False(t, top.Diagnostics.HasErrors())
	require.Contains(t, top.Functions, "square")
}

func TestCheck_PlainUseIsNotReExported(t *testing.T) {
	base := mustCheck(t, `
pub fn square(n: i32): i32 { return n * n; }
`)
	mid := CheckWithImports(parseOK(t, `
use base::*;
`), map[string]*CheckResult{"base": base})
	require.NotContains(t, mid.Importable.Functions, "square")
}

func TestCheck_StyleDeclRegisteredAndEchoSelectorSkipped(t *testing.T) {
	result := mustCheck(t, `
style Highlight = "\x1b[35m";
fn main(): i32 {
  echo(Highlight, "hi");
  return 0;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
	require.Equal(t, "\x1b[35m", result.Styles["Highlight"])
}

func TestCheck_EnumComparesAgainstIntegerLiteral(t *testing.T) {
	result := mustCheck(t, `
enum Color { Red, Green, Blue }
fn main(): i32 {
  let c: Color = Color::Green;
  if (c == 2) { return 1; }
  return 0;
}
`)
	require.False(t, result.Diagnostics.HasErrors())
}

func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	p := parser.New(source)
	prog := p.Parse()
	require.False(t, p.Diagnostics().HasErrors(), "parse errors: %s", p.Diagnostics().Format("test.nim"))
	return prog
}
