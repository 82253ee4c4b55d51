// Package checker performs the two-pass semantic analysis described in
// spec.md §4.4: Pass A populates registries (functions, structs, enums,
// typedefs, groups, use-imports); Pass B walks each function body against
// those registries with a lexical scope stack.
package checker

import (
	"github.com/nimlang/nimc/internal/ast"
	"github.com/nimlang/nimc/internal/diagnostic"
	"github.com/nimlang/nimc/internal/token"
	"github.com/nimlang/nimc/internal/types"
)

// FieldInfo is one resolved struct field.
type FieldInfo struct {
	Name string
	Type *types.Type
}

// StructInfo is a fully resolved struct declaration.
type StructInfo struct {
	Name       string
	Fields     []FieldInfo
	FieldIndex map[string]int
	IsPublic   bool
}

// EnumInfo is a fully resolved enum declaration.
type EnumInfo struct {
	Name     string
	Variants []string
	Values   map[string]int64
	Width    int
	IsPublic bool
}

// ParamInfo is one resolved function/method parameter.
type ParamInfo struct {
	Name    string
	Type    *types.Type
	Default ast.Expression
	IsSelf  bool
}

// FuncInfo is a fully resolved function, extern function, or method
// signature.
type FuncInfo struct {
	Name     string
	Params   []ParamInfo
	Return   *types.Type
	IsAsync  bool
	IsExtern bool
	IsPublic bool
}

// CheckResult is the immutable output of Check, consumed by the emitter.
// Keeping it immutable and separate from the Checker fixes the "interior
// mutability on the type checker during emission" issue (spec.md §9): the
// emitter never drives the checker as a live collaborator, only reads these
// tables.
type CheckResult struct {
	Diagnostics *diagnostic.Diagnostics
	ExprTypes   map[ast.Expression]*types.Type
	Structs     map[string]*StructInfo
	Enums       map[string]*EnumInfo
	Functions   map[string]*FuncInfo
	Methods     map[string]map[string]*FuncInfo // struct name -> method name -> info
	Typedefs    map[string]*types.Type
	Styles      map[string]string // style name -> ANSI escape sequence (spec.md §4.5)

	// Importable is this module's exposed surface: its own `pub` decls plus
	// anything it re-exported with `export use` (spec.md §4.4). A dependent
	// module's `use` resolves against Importable, never against the raw
	// registries above, so a plain (non-exported) `use` never leaks.
	Importable ImportableSurface
}

// ImportableSurface is what a module offers a dependent module that `use`s
// it: its own public declarations plus any `export use` re-exports.
type ImportableSurface struct {
	Functions map[string]*FuncInfo
	Structs   map[string]*StructInfo
	Enums     map[string]*EnumInfo
	Typedefs  map[string]*types.Type
}

// Checker is the mutable working state of one semantic-analysis run. It is
// discarded once Check returns; only the CheckResult survives.
type Checker struct {
	prog *ast.Program
	diag *diagnostic.Diagnostics

	structs   map[string]*StructInfo
	enums     map[string]*EnumInfo
	typedefs  map[string]*types.Type
	functions map[string]*FuncInfo
	methods   map[string]map[string]*FuncInfo
	globals   map[string]*Symbol
	styles    map[string]string

	imports       map[string]*CheckResult // raw `use` path -> already-checked dependency
	moduleAliases map[string]string       // alias -> raw `use` path (spec.md §4.4: "module aliases")

	scope       *Scope
	exprTypes   map[ast.Expression]*types.Type
	loopDepth   int
	currentFunc *FuncInfo
	inAsync     bool
	inFastexec  bool
}

// Check runs both passes over a single module with no cross-module imports
// resolved (used directly by tests and by any module with no `use`
// declarations). CheckWithImports is the general entry point.
func Check(prog *ast.Program) *CheckResult {
	return CheckWithImports(prog, nil)
}

// CheckWithImports runs both passes over prog, resolving its `use`/
// `export use` declarations against imports: a raw `use` path string (as
// written in source, e.g. "collections/list") mapped to that dependency
// module's own already-computed CheckResult. The driver builds this map by
// checking modules in dependency order (spec.md §4.3/§4.4).
func CheckWithImports(prog *ast.Program, imports map[string]*CheckResult) *CheckResult {
	c := &Checker{
		prog:          prog,
		diag:          diagnostic.New(),
		structs:       make(map[string]*StructInfo),
		enums:         make(map[string]*EnumInfo),
		typedefs:      make(map[string]*types.Type),
		functions:     make(map[string]*FuncInfo),
		methods:       make(map[string]map[string]*FuncInfo),
		globals:       make(map[string]*Symbol),
		styles:        make(map[string]string),
		imports:       imports,
		moduleAliases: make(map[string]string),
		scope:         NewScope(nil),
		exprTypes:     make(map[ast.Expression]*types.Type),
	}

	c.registerStructAndEnumNames()
	c.registerTypedefs()
	c.registerStructFields()
	c.registerEnumVariants()
	c.registerFunctions()
	c.registerExterns()
	c.registerGroups()
	c.registerStyles()
	c.registerUses()

	c.checkFunctions()
	c.checkMethods()

	return &CheckResult{
		Diagnostics: c.diag,
		ExprTypes:   c.exprTypes,
		Structs:     c.structs,
		Enums:       c.enums,
		Functions:   c.functions,
		Methods:     c.methods,
		Typedefs:    c.typedefs,
		Styles:      c.styles,
		Importable:  c.buildImportableSurface(),
	}
}

// ---------------------------------------------------------------------
// Pass A: registry population
// ---------------------------------------------------------------------

func (c *Checker) registerStructAndEnumNames() {
	for _, s := range c.prog.Structs {
		c.structs[s.Name] = &StructInfo{Name: s.Name, FieldIndex: make(map[string]int), IsPublic: s.IsPublic}
	}
	for _, e := range c.prog.Enums {
		c.enums[e.Name] = &EnumInfo{Name: e.Name, Values: make(map[string]int64), Width: 32, IsPublic: e.IsPublic}
	}
}

func (c *Checker) registerTypedefs() {
	for _, t := range c.prog.Typedefs {
		c.typedefs[t.Name] = c.resolveTypeRef(t.Target, t.Pos())
	}
}

func (c *Checker) registerStructFields() {
	for _, s := range c.prog.Structs {
		info := c.structs[s.Name]
		for _, f := range s.Fields {
			info.FieldIndex[f.Name] = len(info.Fields)
			info.Fields = append(info.Fields, FieldInfo{Name: f.Name, Type: c.resolveTypeRef(f.Type, f.Pos())})
		}
	}
}

// registerEnumVariants computes each variant's integer value (explicit
// initializer, or previous+1 starting at 0) the way spec.md §4.4 describes:
// the enum's integer base is decided from these initializers rather than a
// fixed declared width.
func (c *Checker) registerEnumVariants() {
	for _, e := range c.prog.Enums {
		info := c.enums[e.Name]
		var next int64
		sawExplicit := false
		for _, v := range e.Variants {
			val := next
			if v.Initializer != nil {
				sawExplicit = true
				if lit, ok := v.Initializer.(*ast.IntLit); ok {
					val = parseIntLiteral(lit.Value)
				} else {
					c.diag.Errorf(v.Pos(), "enum variant %s.%s initializer must be an integer literal", e.Name, v.Name)
				}
			}
			info.Variants = append(info.Variants, v.Name)
			info.Values[v.Name] = val
			next = val + 1
		}
		if sawExplicit {
			info.Width = 32
		} else {
			info.Width = 8
		}
	}
}

func (c *Checker) registerFunctions() {
	for _, fn := range c.prog.Functions {
		c.functions[fn.Name] = &FuncInfo{
			Name:     fn.Name,
			Params:   c.resolveParams(fn.Params),
			Return:   c.resolveOptionalType(fn.ReturnType, fn.Pos()),
			IsAsync:  fn.IsAsync,
			IsPublic: fn.IsPublic,
		}
	}
}

func (c *Checker) registerExterns() {
	for _, fn := range c.prog.Externs {
		c.functions[fn.Name] = &FuncInfo{
			Name:     fn.Name,
			Params:   c.resolveParams(fn.Params),
			Return:   c.resolveOptionalType(fn.ReturnType, fn.Pos()),
			IsExtern: true,
			IsPublic: fn.IsPublic,
		}
	}
}

// registerGroups implements the Group entity's dual role (spec.md's
// GLOSSARY entry): when a group's name matches a struct, its labeled
// `name => fn(self: T, ...) -> body` entries become that struct's methods;
// otherwise the group is a plain namespace and its functions join the
// top-level function registry.
func (c *Checker) registerGroups() {
	for _, g := range c.prog.Groups {
		if _, isStruct := c.structs[g.Name]; isStruct {
			if c.methods[g.Name] == nil {
				c.methods[g.Name] = make(map[string]*FuncInfo)
			}
			for _, fn := range g.Functions {
				c.methods[g.Name][fn.Name] = &FuncInfo{
					Name:     fn.Name,
					Params:   c.resolveParams(fn.Params),
					Return:   c.resolveOptionalType(fn.ReturnType, fn.Pos()),
					IsPublic: fn.IsPublic,
				}
			}
			continue
		}
		for _, fn := range g.Functions {
			c.functions[fn.Name] = &FuncInfo{
				Name:     fn.Name,
				Params:   c.resolveParams(fn.Params),
				Return:   c.resolveOptionalType(fn.ReturnType, fn.Pos()),
				IsPublic: fn.IsPublic,
			}
		}
		for _, cnst := range g.Consts {
			c.registerGlobalConst(cnst)
		}
	}
}

// registerGlobalConst records a normal group's top-level `const` into the
// global table, so a function body anywhere in the module can resolve it
// even though checkFunctionBody roots each body's scope at nil rather than
// chaining it under a module scope (spec.md §4.4 Pass A: "A normal group
// records only functions and const declarations").
func (c *Checker) registerGlobalConst(v *ast.VarDecl) {
	var declared *types.Type
	if v.Type != nil {
		declared = c.resolveTypeRef(v.Type, v.Pos())
	}
	var valueType *types.Type
	if v.Value != nil {
		valueType = c.checkExpr(v.Value)
	}
	if declared == nil {
		declared = valueType
	}
	if declared == nil {
		declared = types.Any
	}
	if _, exists := c.globals[v.Name]; exists {
		c.diag.Errorf(v.Pos(), "%q already declared as a group const", v.Name)
		return
	}
	c.globals[v.Name] = &Symbol{Name: v.Name, Type: declared, Kind: SymVariable, IsConst: true}
}

// registerStyles populates the style registry from `style Name = "...";`
// declarations (spec.md §4.5), so generatePrint/echo can resolve a style
// name to its ANSI escape sequence. Redeclaring a style name warns rather
// than erroring, the same idempotence spec.md §8 requires of `use`.
func (c *Checker) registerStyles() {
	for _, s := range c.prog.Styles {
		if _, exists := c.styles[s.Name]; exists {
			c.diag.Warningf(s.Pos(), "style %q already declared, keeping the first definition", s.Name)
			continue
		}
		c.styles[s.Name] = s.Escape
	}
}

// registerUses implements spec.md §4.4 Pass A's import resolution:
//
//   - All(Some(alias))  records a module alias, no symbols are imported.
//   - All(None)/Wildcard merges every entry of the dependency's Importable
//     surface into this module's own registries.
//   - Specific(items)   merges only the named (optionally renamed) entries.
//
// A name collision with an already-registered entry is warned, not
// overwritten — first import wins (spec.md §8's idempotence property: two
// aliases, or `use m::*` followed by `use m::{f}`, never double-register).
func (c *Checker) registerUses() {
	for _, u := range c.prog.Uses {
		dep, ok := c.imports[u.Path]
		if !ok {
			// Unresolved import: the loader/driver already reported a
			// missing-module error, or this module is being checked
			// standalone (e.g. in a unit test) with no imports wired.
			continue
		}
		switch {
		case u.Spec.All && u.Spec.Alias != "":
			c.moduleAliases[u.Spec.Alias] = u.Path
		case u.Spec.All, u.Spec.Wildcard:
			c.mergeImportable(dep.Importable, u.Pos())
		case len(u.Spec.Specific) > 0:
			for _, item := range u.Spec.Specific {
				name := item.Rename
				if name == "" {
					name = item.Original
				}
				c.mergeImportableItem(dep.Importable, item.Original, name, u.Pos())
			}
		}
	}
}

func (c *Checker) mergeImportable(surface ImportableSurface, line int) {
	for name := range surface.Functions {
		c.mergeImportableItem(surface, name, name, line)
	}
	for name := range surface.Structs {
		c.mergeImportableItem(surface, name, name, line)
	}
	for name := range surface.Enums {
		c.mergeImportableItem(surface, name, name, line)
	}
	for name := range surface.Typedefs {
		c.mergeImportableItem(surface, name, name, line)
	}
}

// mergeImportableItem imports one named entry of surface (looked up as
// original, installed as localName), whichever of Functions/Structs/Enums/
// Typedefs it's found in. Already-registered local names are warned and
// left untouched.
func (c *Checker) mergeImportableItem(surface ImportableSurface, original, localName string, line int) {
	if fn, ok := surface.Functions[original]; ok {
		if _, exists := c.functions[localName]; exists {
			c.diag.Warningf(line, "import %q already declared, keeping the existing definition", localName)
		} else {
			imported := *fn
			imported.Name = localName
			imported.IsPublic = false // a plain import is not part of this module's own surface
			c.functions[localName] = &imported
		}
		return
	}
	if s, ok := surface.Structs[original]; ok {
		if _, exists := c.structs[localName]; exists {
			c.diag.Warningf(line, "import %q already declared, keeping the existing definition", localName)
		} else {
			imported := *s
			imported.Name = localName
			imported.IsPublic = false
			c.structs[localName] = &imported
		}
		return
	}
	if en, ok := surface.Enums[original]; ok {
		if _, exists := c.enums[localName]; exists {
			c.diag.Warningf(line, "import %q already declared, keeping the existing definition", localName)
		} else {
			imported := *en
			imported.Name = localName
			imported.IsPublic = false
			c.enums[localName] = &imported
		}
		return
	}
	if td, ok := surface.Typedefs[original]; ok {
		if _, exists := c.typedefs[localName]; exists {
			c.diag.Warningf(line, "import %q already declared, keeping the existing definition", localName)
		} else {
			c.typedefs[localName] = td
		}
		return
	}
	c.diag.Errorf(line, "import %q is not a public member of the used module", original)
}

// buildImportableSurface computes what this module exposes to a module that
// `use`s it: its own public declarations, plus whatever it re-exports with
// `export use` (spec.md §4.4). A plain `use` is never re-exported, so a
// second-level importer only ever sees Importable, never the raw registries.
func (c *Checker) buildImportableSurface() ImportableSurface {
	surface := ImportableSurface{
		Functions: make(map[string]*FuncInfo),
		Structs:   make(map[string]*StructInfo),
		Enums:     make(map[string]*EnumInfo),
		Typedefs:  make(map[string]*types.Type),
	}
	for name, fn := range c.functions {
		if fn.IsPublic {
			surface.Functions[name] = fn
		}
	}
	for name, s := range c.structs {
		if s.IsPublic {
			surface.Structs[name] = s
		}
	}
	for name, e := range c.enums {
		if e.IsPublic {
			surface.Enums[name] = e
		}
	}
	for _, u := range c.prog.Uses {
		if !u.ReExport {
			continue
		}
		dep, ok := c.imports[u.Path]
		if !ok {
			continue
		}
		reExportAll := func(from ImportableSurface) {
			for name, fn := range from.Functions {
				surface.Functions[name] = fn
			}
			for name, s := range from.Structs {
				surface.Structs[name] = s
			}
			for name, e := range from.Enums {
				surface.Enums[name] = e
			}
			for name, td := range from.Typedefs {
				surface.Typedefs[name] = td
			}
		}
		switch {
		case u.Spec.All && u.Spec.Alias != "":
			// a re-exported alias still installs no symbols
		case u.Spec.All, u.Spec.Wildcard:
			reExportAll(dep.Importable)
		case len(u.Spec.Specific) > 0:
			for _, item := range u.Spec.Specific {
				name := item.Rename
				if name == "" {
					name = item.Original
				}
				if fn, ok := dep.Importable.Functions[item.Original]; ok {
					surface.Functions[name] = fn
				}
				if s, ok := dep.Importable.Structs[item.Original]; ok {
					surface.Structs[name] = s
				}
				if e, ok := dep.Importable.Enums[item.Original]; ok {
					surface.Enums[name] = e
				}
				if td, ok := dep.Importable.Typedefs[item.Original]; ok {
					surface.Typedefs[name] = td
				}
			}
		}
	}
	return surface
}

func (c *Checker) resolveParams(params []*ast.Param) []ParamInfo {
	out := make([]ParamInfo, len(params))
	for i, p := range params {
		if p.IsSelf {
			var selfType *types.Type
			if p.Type != nil {
				selfType = c.resolveTypeRef(p.Type, p.Pos())
			}
			out[i] = ParamInfo{Name: "self", Type: selfType, IsSelf: true}
			continue
		}
		out[i] = ParamInfo{Name: p.Name, Type: c.resolveOptionalType(p.Type, p.Pos()), Default: p.Default}
	}
	return out
}

func (c *Checker) resolveOptionalType(t *ast.TypeRef, line int) *types.Type {
	if t == nil {
		return types.Any
	}
	return c.resolveTypeRef(t, line)
}

// resolveTypeRef converts a parsed TypeRef into a concrete types.Type,
// resolving any Custom name against the struct/enum/typedef registries
// right here during Pass A. This is the "Type::Custom(String) late
// binding" REDESIGN FLAG from spec.md §9: by the time Pass B runs, no
// *types.Type should carry Kind == types.CustomKind.
func (c *Checker) resolveTypeRef(t *ast.TypeRef, line int) *types.Type {
	if t == nil {
		return types.Any
	}
	if t.IsPtr {
		return types.Pointer(c.resolveTypeRef(t.Elem, line))
	}
	if t.IsRef {
		return types.Reference(c.resolveTypeRef(t.Elem, line))
	}
	if t.Length != nil {
		length := -1
		if lit, ok := t.Length.(*ast.IntLit); ok {
			length = int(parseIntLiteral(lit.Value))
		}
		base := &ast.TypeRef{Base: t.Base, Name: t.Name, TypeArgs: t.TypeArgs, Elements: t.Elements, Params: t.Params, Return: t.Return}
		return types.Array(c.resolveTypeRef(base, line), length)
	}

	switch t.Name {
	case "Tuple":
		elems := make([]*types.Type, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = c.resolveTypeRef(e, line)
		}
		return types.Tuple(elems...)
	case "Fn":
		params := make([]*types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = c.resolveTypeRef(p, line)
		}
		return types.Fn(params, c.resolveOptionalType(t.Return, line))
	case "Channel":
		return types.Channel(c.firstArg(t, line))
	case "Future":
		return types.Future(c.firstArg(t, line))
	case "Result":
		if len(t.TypeArgs) >= 2 {
			return types.Result(c.resolveTypeRef(t.TypeArgs[0], line), c.resolveTypeRef(t.TypeArgs[1], line))
		}
		return types.Result(types.Any, types.Any)
	case "i8":
		return types.Int(8, true)
	case "i16":
		return types.Int(16, true)
	case "i32":
		return types.Int(32, true)
	case "i64":
		return types.Int(64, true)
	case "i128":
		return types.Int(128, true)
	case "u8":
		return types.Int(8, false)
	case "u16":
		return types.Int(16, false)
	case "u32":
		return types.Int(32, false)
	case "u64":
		return types.Int(64, false)
	case "u128":
		return types.Int(128, false)
	case "f32":
		return types.Float(32)
	case "f64":
		return types.Float(64)
	case "f80":
		return types.Float(80)
	case "f128":
		return types.Float(128)
	case "d32":
		return types.Decimal(32)
	case "d64":
		return types.Decimal(64)
	case "d128":
		return types.Decimal(128)
	case "bool":
		return types.Bool
	case "char":
		return types.Char
	case "void":
		return types.Void
	case "any":
		return types.Any
	case "str":
		return types.Str
	case "byte":
		return types.Int(8, false)
	case "bit":
		return types.Int(1, false)
	case "hex":
		return types.Int(8, false)
	case "arr":
		var elem *types.Type = types.Any
		if len(t.TypeArgs) > 0 {
			elem = c.resolveTypeRef(t.TypeArgs[0], line)
		}
		return types.ArrOf(elem)
	default:
		if info, ok := c.structs[t.Name]; ok {
			return types.Struct(info.Name)
		}
		if info, ok := c.enums[t.Name]; ok {
			return types.Enum(info.Name, info.Width)
		}
		if target, ok := c.typedefs[t.Name]; ok {
			return target
		}
		c.diag.Errorf(line, "unknown type %q", t.Name)
		return types.Invalid2
	}
}

func (c *Checker) firstArg(t *ast.TypeRef, line int) *types.Type {
	if len(t.TypeArgs) == 0 {
		return types.Any
	}
	return c.resolveTypeRef(t.TypeArgs[0], line)
}

func parseIntLiteral(s string) int64 {
	var v int64
	neg := false
	for i, ch := range s {
		if i == 0 && ch == '-' {
			neg = true
			continue
		}
		if ch < '0' || ch > '9' {
			break
		}
		v = v*10 + int64(ch-'0')
	}
	if neg {
		v = -v
	}
	return v
}

// ---------------------------------------------------------------------
// Pass B: per-function body checking
// ---------------------------------------------------------------------

func (c *Checker) checkFunctions() {
	for _, fn := range c.prog.Functions {
		info := c.functions[fn.Name]
		c.checkFunctionBody(info, fn.Params, fn.Body, nil)
	}
}

func (c *Checker) checkMethods() {
	for _, g := range c.prog.Groups {
		if _, isStruct := c.structs[g.Name]; !isStruct {
			continue
		}
		for _, fn := range g.Functions {
			info := c.methods[g.Name][fn.Name]
			selfType := types.Struct(g.Name)
			c.checkFunctionBody(info, fn.Params, fn.Body, selfType)
		}
	}
}

func (c *Checker) checkFunctionBody(info *FuncInfo, params []*ast.Param, body *ast.BlockStmt, selfType *types.Type) {
	if info == nil || body == nil {
		return
	}
	prevScope, prevFunc, prevAsync, prevLoop := c.scope, c.currentFunc, c.inAsync, c.loopDepth
	c.scope = NewScope(nil)
	c.currentFunc = info
	c.inAsync = info.IsAsync
	c.loopDepth = 0

	for i, p := range params {
		if p.IsSelf {
			c.define(p.Pos(), "self", &Symbol{Name: "self", Type: selfType, Kind: SymParam})
			continue
		}
		c.define(p.Pos(), p.Name, &Symbol{Name: p.Name, Type: info.Params[i].Type, Kind: SymParam, IsMutable: true})
	}

	c.checkBlock(body)

	c.scope, c.currentFunc, c.inAsync, c.loopDepth = prevScope, prevFunc, prevAsync, prevLoop
}

func (c *Checker) define(line int, name string, sym *Symbol) {
	if err := c.scope.Define(name, sym); err != nil {
		c.diag.Errorf(line, "%s", err.Error())
	}
}

func (c *Checker) checkBlock(b *ast.BlockStmt) {
	prev := c.scope
	c.scope = NewScope(prev)
	for _, stmt := range b.Statements {
		c.checkStmt(stmt)
	}
	c.scope = prev
}

func (c *Checker) checkStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		c.checkBlock(s)
	case *ast.VarDecl:
		c.checkVarDecl(s)
	case *ast.AssignStmt:
		c.checkAssign(s)
	case *ast.ReturnStmt:
		c.checkReturn(s)
	case *ast.IfStmt:
		c.requireBool(c.checkExpr(s.Condition), s.Pos(), "if")
		c.checkBlock(s.Then)
		if s.Else != nil {
			c.checkStmt(s.Else)
		}
	case *ast.WhileStmt:
		c.requireBool(c.checkExpr(s.Condition), s.Pos(), "while")
		c.loopDepth++
		c.checkBlock(s.Body)
		c.loopDepth--
	case *ast.LoopStmt:
		c.loopDepth++
		c.checkBlock(s.Body)
		c.loopDepth--
	case *ast.ForCStmt:
		prev := c.scope
		c.scope = NewScope(prev)
		if s.Init != nil {
			c.checkVarDecl(s.Init)
		}
		if s.Cond != nil {
			c.requireBool(c.checkExpr(s.Cond), s.Pos(), "for")
		}
		if s.Incr != nil {
			c.checkStmt(s.Incr)
		}
		c.loopDepth++
		c.checkBlock(s.Body)
		c.loopDepth--
		c.scope = prev
	case *ast.ForInStmt:
		iterType := c.checkExpr(s.Iterable)
		elemType := types.Any
		switch iterType.Kind {
		case types.ArrayKind, types.ArrKind:
			elemType = iterType.Elem
		case types.IntKind:
			// range a..b yields an integer of the range's own type
			elemType = iterType
		default:
			if iterType.Kind != types.Invalid {
				c.diag.Errorf(s.Pos(), "for-in requires an array, arr, or range, found %s", iterType)
			}
		}
		prev := c.scope
		c.scope = NewScope(prev)
		c.define(s.Pos(), s.Variable, &Symbol{Name: s.Variable, Type: elemType, Kind: SymVariable})
		c.loopDepth++
		c.checkBlock(s.Body)
		c.loopDepth--
		c.scope = prev
	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.diag.Errorf(s.Pos(), "'break' outside a loop")
		}
	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.diag.Errorf(s.Pos(), "'continue' outside a loop")
		}
	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
	case *ast.EchoStmt:
		_, rest, _ := ResolveEchoStyle(c.styles, s.Args)
		for _, a := range rest {
			c.checkExpr(a)
		}
	case *ast.RoutineStmt:
		if s.Call != nil {
			c.checkExpr(s.Call)
		}
	case *ast.UnsafeStmt:
		c.checkBlock(s.Body)
	case *ast.FastexecStmt:
		prevFastexec := c.inFastexec
		c.inFastexec = true
		c.checkBlock(s.Body)
		c.inFastexec = prevFastexec
	case *ast.AsmStmt:
		if !c.inFastexec {
			c.diag.Errorf(s.Pos(), "'asm' blocks are only permitted inside 'fastexec'")
		}
	case *ast.LabeledStmt:
		c.checkStmt(s.Body)
	case *ast.LabeledExprStmt:
		c.checkExpr(s.Expr)
	case *ast.RollingTagRefStmt, *ast.TagStmt, *ast.EmptyStmt:
		// no type information to check
	}
}

func (c *Checker) checkVarDecl(v *ast.VarDecl) {
	if v.IsConst && v.IsMutable {
		c.diag.Errorf(v.Pos(), "'const' cannot be combined with 'mut'")
	}
	if v.IsConst && v.Value == nil {
		c.diag.Errorf(v.Pos(), "'const %s' requires an initializer", v.Name)
	}

	var declared *types.Type
	if v.Type != nil {
		declared = c.resolveTypeRef(v.Type, v.Pos())
	}
	var valueType *types.Type
	if v.Value != nil {
		valueType = c.checkExpr(v.Value)
		if declared != nil && valueType.Kind != types.Invalid && !types.AssignableTo(valueType, declared) {
			c.diag.Errorf(v.Pos(), "cannot assign %s to %s %s", valueType, declared, v.Name)
		}
	}

	finalType := declared
	if finalType == nil {
		finalType = valueType
	}
	if finalType == nil {
		finalType = types.Any
	}

	mutable := v.IsMutable || (!v.IsConst && !v.IsLet)
	c.define(v.Pos(), v.Name, &Symbol{Name: v.Name, Type: finalType, Kind: SymVariable, IsConst: v.IsConst, IsMutable: mutable})
}

// checkAssign enforces spec.md §4.4's mutability rule: assignment fails on
// a const, or on a plain `let` that was never declared `mut`.
func (c *Checker) checkAssign(a *ast.AssignStmt) {
	targetType := c.checkLValue(a.Target)
	valueType := c.checkExpr(a.Value)

	effectiveValueType := valueType
	if a.Op != token.ASSIGN {
		effectiveValueType = c.binaryResultType(targetType, a.Op, valueType, a.Pos())
	}
	if targetType.Kind != types.Invalid && effectiveValueType.Kind != types.Invalid &&
		!types.AssignableTo(effectiveValueType, targetType) {
		c.diag.Errorf(a.Pos(), "cannot assign %s to %s", effectiveValueType, targetType)
	}
}

// checkLValue validates that target is a variable, member access, or array
// access, and that it is mutable; returns its type.
func (c *Checker) checkLValue(target ast.Expression) *types.Type {
	switch t := target.(type) {
	case *ast.Identifier:
		sym := c.scope.Resolve(t.Name)
		if sym == nil {
			sym = c.globals[t.Name]
		}
		if sym == nil {
			c.diag.Errorf(t.Pos(), "undefined variable %q", t.Name)
			return types.Invalid2
		}
		if sym.IsConst {
			c.diag.Errorf(t.Pos(), "cannot assign to const %q", t.Name)
		} else if !sym.IsMutable {
			c.diag.Errorf(t.Pos(), "cannot assign to immutable variable %q (declare with 'mut' or 'var')", t.Name)
		}
		c.exprTypes[target] = sym.Type
		return sym.Type
	case *ast.MemberExpr, *ast.IndexExpr:
		return c.checkExpr(target)
	default:
		c.diag.Errorf(target.Pos(), "invalid assignment target")
		return types.Invalid2
	}
}

func (c *Checker) checkReturn(r *ast.ReturnStmt) {
	if c.currentFunc == nil {
		c.diag.Errorf(r.Pos(), "'return' outside a function")
		return
	}
	want := c.currentFunc.Return
	if c.currentFunc.IsAsync && want != nil && want.Kind == types.FutureKind {
		want = want.Elem
	}
	if r.Value == nil {
		if want != nil && want.Kind != types.VoidKind && want.Kind != types.Invalid {
			c.diag.Errorf(r.Pos(), "missing return value, expected %s", want)
		}
		return
	}
	got := c.checkExpr(r.Value)
	if want != nil && got.Kind != types.Invalid && !types.AssignableTo(got, want) {
		c.diag.Errorf(r.Pos(), "return type %s does not match declared %s", got, want)
	}
}

func (c *Checker) requireBool(t *types.Type, line int, construct string) {
	if t.Kind != types.BoolKind && t.Kind != types.Invalid {
		c.diag.Errorf(line, "%s condition must be bool, found %s", construct, t)
	}
}

// ---------------------------------------------------------------------
// Expression checking
// ---------------------------------------------------------------------

func (c *Checker) checkExpr(expr ast.Expression) *types.Type {
	if expr == nil {
		return types.Void
	}
	t := c.checkExprUncached(expr)
	if t == nil {
		t = types.Invalid2
	}
	c.exprTypes[expr] = t
	return t
}

func (c *Checker) checkExprUncached(expr ast.Expression) *types.Type {
	switch e := expr.(type) {
	case *ast.IntLit:
		return types.IntLiteral(parseIntLiteral(e.Value))
	case *ast.FloatLit:
		return types.Float(64)
	case *ast.HexLit:
		return types.Int(32, false)
	case *ast.CharLit:
		return types.Char
	case *ast.StringLit:
		return types.Str
	case *ast.BoolLit:
		return types.Bool
	case *ast.NullLit:
		return types.Any
	case *ast.InterpStringExpr:
		for _, part := range e.Parts {
			if part.Expr != nil {
				c.checkExpr(part.Expr)
			}
		}
		return types.Str
	case *ast.Identifier:
		return c.checkIdentifier(e)
	case *ast.SelfExpr:
		sym := c.scope.Resolve("self")
		if sym == nil {
			c.diag.Errorf(e.Pos(), "'self' used outside a method")
			return types.Invalid2
		}
		return sym.Type
	case *ast.TupleExpr:
		elems := make([]*types.Type, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = c.checkExpr(el)
		}
		return types.Tuple(elems...)
	case *ast.ArrayLit:
		if len(e.Elements) == 0 {
			return types.Array(types.Any, 0)
		}
		elem := c.checkExpr(e.Elements[0])
		for _, el := range e.Elements[1:] {
			t := c.checkExpr(el)
			if t.Kind != types.Invalid && elem.Kind != types.Invalid && !types.Equal(t, elem) {
				c.diag.Errorf(el.Pos(), "array element type %s does not match earlier element type %s", t, elem)
			}
		}
		return types.Array(elem, len(e.Elements))
	case *ast.StructLit:
		return c.checkStructLit(e)
	case *ast.RangeExpr:
		start := c.checkExpr(e.Start)
		end := c.checkExpr(e.End)
		if !types.IsInteger(start) && start.Kind != types.Invalid {
			c.diag.Errorf(e.Pos(), "range start must be an integer, found %s", start)
		}
		if !types.IsInteger(end) && end.Kind != types.Invalid {
			c.diag.Errorf(e.Pos(), "range end must be an integer, found %s", end)
		}
		return start
	case *ast.BinaryExpr:
		left := c.checkExpr(e.Left)
		right := c.checkExpr(e.Right)
		return c.binaryResultType(left, e.Op, right, e.Pos())
	case *ast.UnaryExpr:
		return c.checkUnary(e)
	case *ast.PostfixExpr:
		operand := c.checkExpr(e.Operand)
		if !types.IsNumeric(operand) && operand.Kind != types.Invalid {
			c.diag.Errorf(e.Pos(), "'%s' requires a numeric operand, found %s", e.Op, operand)
		}
		return operand
	case *ast.TernaryExpr:
		c.requireBool(c.checkExpr(e.Condition), e.Pos(), "ternary")
		thenT := c.checkExpr(e.Then)
		elseT := c.checkExpr(e.Else)
		if thenT.Kind != types.Invalid && elseT.Kind != types.Invalid && !types.Equal(thenT, elseT) {
			c.diag.Errorf(e.Pos(), "ternary branches have mismatched types %s and %s", thenT, elseT)
		}
		return thenT
	case *ast.CallExpr:
		return c.checkCall(e)
	case *ast.MemberExpr:
		return c.checkMember(e)
	case *ast.IndexExpr:
		return c.checkIndex(e)
	case *ast.EnumAccessExpr:
		info, ok := c.enums[e.EnumName]
		if !ok {
			c.diag.Errorf(e.Pos(), "unknown enum %q", e.EnumName)
			return types.Invalid2
		}
		if _, ok := info.Values[e.Variant]; !ok {
			c.diag.Errorf(e.Pos(), "enum %s has no variant %q", e.EnumName, e.Variant)
		}
		return types.Enum(info.Name, info.Width)
	case *ast.SizeofExpr:
		c.resolveTypeRef(e.Type, e.Pos())
		return types.Int(64, false)
	case *ast.TryExpr:
		inner := c.checkExpr(e.Expr)
		if inner.Kind != types.ResultKind {
			if inner.Kind != types.Invalid {
				c.diag.Errorf(e.Pos(), "'?' requires a Result value, found %s", inner)
			}
			return types.Invalid2
		}
		if c.currentFunc != nil && c.currentFunc.Return != nil && c.currentFunc.Return.Kind != types.ResultKind {
			c.diag.Errorf(e.Pos(), "'?' used in a function that does not return Result")
		}
		return inner.Ok
	case *ast.AwaitExpr:
		inner := c.checkExpr(e.Expr)
		if inner.Kind != types.FutureKind {
			if inner.Kind != types.Invalid {
				c.diag.Errorf(e.Pos(), "'await' requires a Future value, found %s", inner)
			}
			return types.Invalid2
		}
		if !c.inAsync {
			c.diag.Errorf(e.Pos(), "'await' used outside an async function")
		}
		return inner.Elem
	case *ast.ChannelSendExpr:
		ch := c.checkExpr(e.Channel)
		val := c.checkExpr(e.Value)
		if ch.Kind != types.ChannelKind {
			if ch.Kind != types.Invalid {
				c.diag.Errorf(e.Pos(), "'<-' send target must be a Channel, found %s", ch)
			}
			return types.Void
		}
		if val.Kind != types.Invalid && !types.AssignableTo(val, ch.Elem) {
			c.diag.Errorf(e.Pos(), "cannot send %s on %s", val, ch)
		}
		return types.Void
	case *ast.ChannelRecvExpr:
		ch := c.checkExpr(e.Channel)
		if ch.Kind != types.ChannelKind {
			if ch.Kind != types.Invalid {
				c.diag.Errorf(e.Pos(), "'<-' receive target must be a Channel, found %s", ch)
			}
			return types.Invalid2
		}
		return ch.Elem
	case *ast.LambdaExpr:
		return c.checkLambda(e)
	case *ast.BlockExpr:
		return c.checkBlockExpr(e)
	case *ast.MatchExpr:
		return c.checkMatch(e)
	case *ast.DefaultPatternExpr:
		return types.Any
	case *ast.AssignStmt:
		c.checkAssign(e)
		return types.Void
	default:
		return types.Invalid2
	}
}

func (c *Checker) checkIdentifier(id *ast.Identifier) *types.Type {
	if sym := c.scope.Resolve(id.Name); sym != nil {
		return sym.Type
	}
	if sym, ok := c.globals[id.Name]; ok {
		return sym.Type
	}
	if fn, ok := c.functions[id.Name]; ok {
		params := make([]*types.Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		return types.Fn(params, fn.Return)
	}
	c.diag.Errorf(id.Pos(), "undefined name %q", id.Name)
	return types.Invalid2
}

func (c *Checker) checkStructLit(s *ast.StructLit) *types.Type {
	info, ok := c.structs[s.Name]
	if !ok {
		c.diag.Errorf(s.Pos(), "unknown struct %q", s.Name)
		return types.Invalid2
	}
	seen := make(map[string]bool)
	for _, f := range s.Fields {
		idx, ok := info.FieldIndex[f.Name]
		valType := c.checkExpr(f.Value)
		if !ok {
			c.diag.Errorf(s.Pos(), "%s has no field %q", s.Name, f.Name)
			continue
		}
		seen[f.Name] = true
		want := info.Fields[idx].Type
		if valType.Kind != types.Invalid && !types.AssignableTo(valType, want) {
			c.diag.Errorf(s.Pos(), "field %s.%s expects %s, found %s", s.Name, f.Name, want, valType)
		}
	}
	for _, f := range info.Fields {
		if !seen[f.Name] {
			c.diag.Errorf(s.Pos(), "missing field %q in %s literal", f.Name, s.Name)
		}
	}
	return types.Struct(info.Name)
}

func (c *Checker) checkUnary(u *ast.UnaryExpr) *types.Type {
	operand := c.checkExpr(u.Operand)
	switch u.Op {
	case token.MINUS:
		if !types.IsNumeric(operand) && operand.Kind != types.Invalid {
			c.diag.Errorf(u.Pos(), "unary '-' requires a numeric operand, found %s", operand)
		}
		if operand.IsLiteral {
			return types.IntLiteral(-operand.LiteralValue)
		}
		return operand
	case token.BANG:
		c.requireBool(operand, u.Pos(), "'!'")
		return types.Bool
	case token.TILDE:
		if !types.IsInteger(operand) && operand.Kind != types.Invalid {
			c.diag.Errorf(u.Pos(), "unary '~' requires an integer operand, found %s", operand)
		}
		return operand
	case token.AMP:
		return types.Reference(operand)
	case token.STAR:
		if operand.Kind == types.PtrKind || operand.Kind == types.RefKind {
			return operand.Elem
		}
		if operand.Kind != types.Invalid {
			c.diag.Errorf(u.Pos(), "cannot dereference non-pointer type %s", operand)
		}
		return types.Invalid2
	case token.INC, token.DEC_OP:
		if !types.IsNumeric(operand) && operand.Kind != types.Invalid {
			c.diag.Errorf(u.Pos(), "'%s' requires a numeric operand, found %s", u.Op, operand)
		}
		return operand
	default:
		return operand
	}
}

// binaryResultType implements spec.md's operator typing rules: arithmetic
// requires both operands numeric (and unifies to the wider type),
// comparisons yield bool, logical operators require bool operands, bitwise
// operators require integer operands, and enum values may be compared for
// equality with their own operator-alias handling unified here rather than
// duplicated per enum (one of the REDESIGN FLAGS, spec.md §9).
func (c *Checker) binaryResultType(left *types.Type, op token.Kind, right *types.Type, line int) *types.Type {
	if left.Kind == types.Invalid || right.Kind == types.Invalid {
		return types.Invalid2
	}
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		if left.Kind == types.StrKind && right.Kind == types.StrKind && op == token.PLUS {
			return types.Str
		}
		if !types.IsNumeric(left) || !types.IsNumeric(right) {
			c.diag.Errorf(line, "operator '%s' requires numeric operands, found %s and %s", op, left, right)
			return types.Invalid2
		}
		return widerNumeric(left, right)
	case token.AMP, token.PIPE, token.CARET, token.SHL, token.SHR:
		if !types.IsInteger(left) || !types.IsInteger(right) {
			c.diag.Errorf(line, "operator '%s' requires integer operands, found %s and %s", op, left, right)
			return types.Invalid2
		}
		return left
	case token.LAND, token.LOR, token.AND, token.OR, token.XOR:
		if left.Kind != types.BoolKind || right.Kind != types.BoolKind {
			c.diag.Errorf(line, "operator '%s' requires bool operands, found %s and %s", op, left, right)
			return types.Invalid2
		}
		return types.Bool
	case token.EQ, token.NEQ, token.STRICT_EQ, token.STRICT_NEQ, token.DIAMOND:
		if !types.Equal(left, right) && !(types.IsNumeric(left) && types.IsNumeric(right)) {
			c.diag.Errorf(line, "cannot compare %s and %s", left, right)
		}
		return types.Bool
	case token.LT, token.GT, token.LEQ, token.GEQ:
		if !types.IsNumeric(left) || !types.IsNumeric(right) {
			c.diag.Errorf(line, "operator '%s' requires numeric operands, found %s and %s", op, left, right)
		}
		return types.Bool
	default:
		return left
	}
}

func widerNumeric(a, b *types.Type) *types.Type {
	if a.Kind == types.FloatKind || b.Kind == types.FloatKind {
		w := a.Width
		if b.Kind == types.FloatKind && b.Width > w {
			w = b.Width
		}
		return types.Float(w)
	}
	if a.Width >= b.Width {
		return a
	}
	return b
}

func (c *Checker) checkCall(call *ast.CallExpr) *types.Type {
	ident, ok := call.Callee.(*ast.Identifier)
	if !ok {
		// Method-style or computed call: still check the callee and
		// arguments for their own errors, but the resolved type is
		// whatever the callee's Fn type reports.
		calleeType := c.checkExpr(call.Callee)
		for _, a := range call.Args {
			c.checkExpr(a.Value)
		}
		if calleeType.Kind == types.FnKind {
			return calleeType.Result
		}
		return types.Any
	}

	fn, ok := c.functions[ident.Name]
	if !ok {
		// Not a registered function/method: may be a local variable or
		// parameter holding a lambda (a Fn-typed value, spec.md §4.5),
		// callable the same way a named function is.
		if sym := c.scope.Resolve(ident.Name); sym != nil && sym.Type != nil && sym.Type.Kind == types.FnKind {
			for _, a := range call.Args {
				c.checkExpr(a.Value)
			}
			return sym.Type.Result
		}
		c.diag.Errorf(call.Pos(), "undefined function %q", ident.Name)
		for _, a := range call.Args {
			c.checkExpr(a.Value)
		}
		return types.Invalid2
	}

	c.checkArgs(call.Pos(), ident.Name, fn.Params, call.Args)
	if fn.IsAsync {
		return types.Future(fn.Return)
	}
	return fn.Return
}

// checkArgs resolves named and positional arguments against params,
// skipping parameters already filled by name before assigning remaining
// positional arguments in declared order (spec.md §4.4).
func (c *Checker) checkArgs(line int, name string, params []ParamInfo, args []ast.Arg) {
	filled := make([]bool, len(params))
	byName := make(map[string]int, len(params))
	for i, p := range params {
		byName[p.Name] = i
	}

	var positional []ast.Arg
	for _, a := range args {
		if a.Name == "" {
			positional = append(positional, a)
			continue
		}
		idx, ok := byName[a.Name]
		if !ok {
			c.diag.Errorf(line, "%s has no parameter named %q", name, a.Name)
			c.checkExpr(a.Value)
			continue
		}
		filled[idx] = true
		valType := c.checkExpr(a.Value)
		if valType.Kind != types.Invalid && params[idx].Type != nil && !types.AssignableTo(valType, params[idx].Type) {
			c.diag.Errorf(line, "argument %s expects %s, found %s", a.Name, params[idx].Type, valType)
		}
	}

	posIdx := 0
	for i, p := range params {
		if filled[i] {
			continue
		}
		if posIdx >= len(positional) {
			if p.Default == nil {
				c.diag.Errorf(line, "missing argument for parameter %q of %s", p.Name, name)
			}
			continue
		}
		arg := positional[posIdx]
		posIdx++
		valType := c.checkExpr(arg.Value)
		if valType.Kind != types.Invalid && p.Type != nil && !types.AssignableTo(valType, p.Type) {
			c.diag.Errorf(line, "argument %d to %s expects %s, found %s", posIdx, name, p.Type, valType)
		}
	}
	if posIdx < len(positional) {
		c.diag.Errorf(line, "too many arguments to %s", name)
	}
}

func (c *Checker) checkMember(m *ast.MemberExpr) *types.Type {
	objType := c.checkExpr(m.Object)
	structName := ""
	switch objType.Kind {
	case types.StructKind:
		structName = objType.Name
	case types.PtrKind, types.RefKind:
		if objType.Elem != nil && objType.Elem.Kind == types.StructKind {
			structName = objType.Elem.Name
		}
	case types.Invalid:
		return types.Invalid2
	default:
		c.diag.Errorf(m.Pos(), "cannot access field %q on non-struct type %s", m.Field, objType)
		return types.Invalid2
	}

	info, ok := c.structs[structName]
	if !ok {
		return types.Invalid2
	}
	if idx, ok := info.FieldIndex[m.Field]; ok {
		return info.Fields[idx].Type
	}
	if methods, ok := c.methods[structName]; ok {
		if fn, ok := methods[m.Field]; ok {
			params := make([]*types.Type, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.Type
			}
			return types.Fn(params, fn.Return)
		}
	}
	c.diag.Errorf(m.Pos(), "%s has no field or method %q", structName, m.Field)
	return types.Invalid2
}

func (c *Checker) checkIndex(idx *ast.IndexExpr) *types.Type {
	objType := c.checkExpr(idx.Object)
	indexType := c.checkExpr(idx.Index)
	if !types.IsInteger(indexType) && indexType.Kind != types.Invalid {
		c.diag.Errorf(idx.Pos(), "index must be an integer, found %s", indexType)
	}
	switch objType.Kind {
	case types.ArrayKind, types.ArrKind:
		return objType.Elem
	case types.TupleKind:
		return types.Any
	case types.Invalid:
		return types.Invalid2
	default:
		c.diag.Errorf(idx.Pos(), "cannot index non-array type %s", objType)
		return types.Invalid2
	}
}

func (c *Checker) checkLambda(l *ast.LambdaExpr) *types.Type {
	prevScope := c.scope
	c.scope = NewScope(prevScope)
	params := make([]*types.Type, len(l.Params))
	for i, p := range l.Params {
		pt := c.resolveOptionalType(p.Type, p.Pos())
		params[i] = pt
		c.define(p.Pos(), p.Name, &Symbol{Name: p.Name, Type: pt, Kind: SymParam, IsMutable: true})
	}
	var result *types.Type
	if l.ReturnType != nil {
		result = c.resolveTypeRef(l.ReturnType, l.Pos())
	} else {
		result = c.checkExpr(l.Body)
	}
	if l.ReturnType != nil {
		c.checkExpr(l.Body)
	}
	c.scope = prevScope
	return types.Fn(params, result)
}

func (c *Checker) checkBlockExpr(b *ast.BlockExpr) *types.Type {
	prevScope := c.scope
	c.scope = NewScope(prevScope)
	var last *types.Type = types.Void
	for _, stmt := range b.Body.Statements {
		c.checkStmt(stmt)
		if es, ok := stmt.(*ast.ExprStmt); ok {
			last = c.exprTypes[es.Expr]
		}
	}
	c.scope = prevScope
	if last == nil {
		return types.Void
	}
	return last
}

func (c *Checker) checkMatch(m *ast.MatchExpr) *types.Type {
	discType := c.checkExpr(m.Discriminant)
	var resultType *types.Type
	for _, arm := range m.Arms {
		prevScope := c.scope
		c.scope = NewScope(prevScope)
		c.checkPattern(arm.Pattern, discType)
		armType := c.checkExpr(arm.Body)
		if resultType == nil {
			resultType = armType
		} else if armType.Kind != types.Invalid && resultType.Kind != types.Invalid && !types.Equal(armType, resultType) {
			c.diag.Errorf(arm.Pos(), "match arm type %s does not match earlier arm type %s", armType, resultType)
		}
		c.scope = prevScope
	}
	if resultType == nil {
		return types.Void
	}
	return resultType
}

func (c *Checker) checkPattern(p *ast.MatchPattern, discType *types.Type) {
	if p == nil || p.IsDefault {
		return
	}
	if p.EnumName != "" {
		info, ok := c.enums[p.EnumName]
		if !ok {
			c.diag.Errorf(p.Pos(), "unknown enum %q in match pattern", p.EnumName)
			return
		}
		if _, ok := info.Values[p.VariantName]; !ok {
			c.diag.Errorf(p.Pos(), "enum %s has no variant %q", p.EnumName, p.VariantName)
		}
		for _, b := range p.Bindings {
			c.define(p.Pos(), b, &Symbol{Name: b, Type: types.Any, Kind: SymVariable})
		}
		return
	}
	if p.Literal != nil {
		litType := c.checkExpr(p.Literal)
		if litType.Kind != types.Invalid && discType.Kind != types.Invalid && !types.Equal(litType, discType) {
			c.diag.Errorf(p.Pos(), "match pattern type %s does not match discriminant type %s", litType, discType)
		}
	}
}
