// Package types is the resolved type representation produced by the
// checker and consumed by the emitter (spec.md §3, §4.4).
//
// A Type is a tagged union implemented as a single struct with one field per
// shape, following the teacher's checker.Type pattern: a resolved type is
// cheap to compare and print without a type switch over an interface tree.
package types

import (
	"fmt"
	"strings"
)

// Kind tags which fields of a Type are meaningful.
type Kind int

const (
	Invalid Kind = iota
	VoidKind
	BoolKind
	CharKind
	AnyKind
	StrKind
	IntKind     // Width + Signed describe the concrete integer type
	FloatKind   // Width describes f32/f64/f80/f128
	DecimalKind // Width describes d32/d64/d128
	ArrKind     // homogeneous dynamic array: arr
	ArrayKind   // Array<Elem, Len>: fixed-length generic array
	PtrKind
	RefKind
	TupleKind
	FnKind
	StructKind
	EnumKind
	ChannelKind
	FutureKind
	ResultKind
	CustomKind // unresolved name pending Pass A resolution; never survives past Pass A
)

// Type is the resolved type of an expression, field, or declaration.
type Type struct {
	Kind Kind

	Width  int  // IntKind, FloatKind, DecimalKind: bit width
	Signed bool // IntKind only

	Elem *Type // PtrKind, RefKind, ArrKind, ArrayKind, ChannelKind, FutureKind element type
	Len  int   // ArrayKind: fixed length, -1 if not a compile-time constant

	Elements []*Type // TupleKind

	Params []*Type // FnKind parameter types
	Result *Type   // FnKind return type

	Name string // StructKind, EnumKind, CustomKind

	Ok  *Type // ResultKind success type
	Err *Type // ResultKind error type

	IsLiteral    bool  // IntKind: came from an untyped integer literal (spec.md §4.4 narrowing)
	LiteralValue int64 // valid only when IsLiteral
}

// Common singleton types, safe to share since Type carries no identity.
var (
	Void    = &Type{Kind: VoidKind}
	Bool    = &Type{Kind: BoolKind}
	Char    = &Type{Kind: CharKind}
	Any     = &Type{Kind: AnyKind}
	Str     = &Type{Kind: StrKind}
	Invalid2 = &Type{Kind: Invalid}
)

// Int returns the interned signed/unsigned integer type of the given width.
func Int(width int, signed bool) *Type {
	return &Type{Kind: IntKind, Width: width, Signed: signed}
}

// IntLiteral returns an i32 carrying its source value, so AssignableTo can
// narrow it to a smaller or differently-signed integer type the way a
// literal (rather than a typed expression) is allowed to (spec.md §4.4).
func IntLiteral(value int64) *Type {
	return &Type{Kind: IntKind, Width: 32, Signed: true, IsLiteral: true, LiteralValue: value}
}

// Float returns the float type of the given width.
func Float(width int) *Type {
	return &Type{Kind: FloatKind, Width: width}
}

// Decimal returns the decimal type of the given width.
func Decimal(width int) *Type {
	return &Type{Kind: DecimalKind, Width: width}
}

// Custom constructs an unresolved name reference. The checker's Pass A
// resolves names directly to a StructKind/EnumKind type or to a typedef's
// target type, so Custom must never reach the emitter.
func Custom(name string) *Type {
	return &Type{Kind: CustomKind, Name: name}
}

// Array builds an Array<Elem, Len> type. Len is -1 when the length is not a
// compile-time constant.
func Array(elem *Type, length int) *Type {
	return &Type{Kind: ArrayKind, Elem: elem, Len: length}
}

// ArrOf builds the homogeneous dynamic `arr` type.
func ArrOf(elem *Type) *Type {
	return &Type{Kind: ArrKind, Elem: elem}
}

// Pointer builds a *T pointer type.
func Pointer(elem *Type) *Type {
	return &Type{Kind: PtrKind, Elem: elem}
}

// Reference builds a &T reference type.
func Reference(elem *Type) *Type {
	return &Type{Kind: RefKind, Elem: elem}
}

// Tuple builds a tuple type of two or more elements.
func Tuple(elements ...*Type) *Type {
	return &Type{Kind: TupleKind, Elements: elements}
}

// Fn builds a function type.
func Fn(params []*Type, result *Type) *Type {
	return &Type{Kind: FnKind, Params: params, Result: result}
}

// Struct builds a named struct reference.
func Struct(name string) *Type {
	return &Type{Kind: StructKind, Name: name}
}

// Enum builds a named enum reference, backed by the given integer width.
func Enum(name string, width int) *Type {
	return &Type{Kind: EnumKind, Name: name, Width: width}
}

// Channel builds a Channel<T> type.
func Channel(elem *Type) *Type {
	return &Type{Kind: ChannelKind, Elem: elem}
}

// Future builds a Future<T> type.
func Future(elem *Type) *Type {
	return &Type{Kind: FutureKind, Elem: elem}
}

// Result builds a Result<T, E> type.
func Result(ok, err *Type) *Type {
	return &Type{Kind: ResultKind, Ok: ok, Err: err}
}

// Equal reports structural equality between two resolved types.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case IntKind:
		return a.Width == b.Width && a.Signed == b.Signed
	case FloatKind, DecimalKind:
		return a.Width == b.Width
	case PtrKind, RefKind, ArrKind, ChannelKind, FutureKind:
		return Equal(a.Elem, b.Elem)
	case ArrayKind:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case TupleKind:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case FnKind:
		if len(a.Params) != len(b.Params) || !Equal(a.Result, b.Result) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case StructKind, EnumKind, CustomKind:
		return a.Name == b.Name
	case ResultKind:
		return Equal(a.Ok, b.Ok) && Equal(a.Err, b.Err)
	default:
		return true // Void, Bool, Char, Any, Str, Invalid carry no payload
	}
}

// AssignableTo reports whether a value of type from may be assigned to a
// variable of type to. This is intentionally broader than Equal: spec.md
// §9 keeps Arr and Array(Any, _) distinct types related only through this
// relation, never unified into one representation.
func AssignableTo(from, to *Type) bool {
	if Equal(from, to) {
		return true
	}
	if to.Kind == AnyKind {
		return true
	}
	if from.Kind == ArrayKind && to.Kind == ArrKind {
		return AssignableTo(from.Elem, to.Elem) || to.Elem.Kind == AnyKind
	}
	if from.Kind == ArrKind && to.Kind == ArrayKind {
		return AssignableTo(from.Elem, to.Elem) || to.Elem.Kind == AnyKind
	}
	// Widening numeric conversions: same signedness, non-decreasing width.
	if from.Kind == IntKind && to.Kind == IntKind && from.Signed == to.Signed {
		return from.Width <= to.Width
	}
	if from.Kind == FloatKind && to.Kind == FloatKind {
		return from.Width <= to.Width
	}
	// An untyped integer literal may narrow to any width and cross
	// signedness, as long as a negative literal is never assigned to an
	// unsigned type (spec.md §4.4: "positive i32 literal -> any unsigned
	// integer", "integer literal narrowing to byte/hex/bit").
	if from.Kind == IntKind && from.IsLiteral && to.Kind == IntKind {
		return to.Signed || from.LiteralValue >= 0
	}
	// Any integer, typed or literal, widens to any float (spec.md §4.4).
	if from.Kind == IntKind && to.Kind == FloatKind {
		return true
	}
	// An enum value is assignable to/from its declared integer base
	// (spec.md §4.4, §8 scenario 3).
	if from.Kind == EnumKind && to.Kind == IntKind {
		return true
	}
	if from.Kind == IntKind && to.Kind == EnumKind {
		return true
	}
	if from.Kind == RefKind && to.Kind == PtrKind {
		return AssignableTo(from.Elem, to.Elem)
	}
	return false
}

// IsNumeric reports whether t is an integer, float, decimal, or enum type
// (an enum's values are its declared integer base, spec.md §4.4).
func IsNumeric(t *Type) bool {
	return t != nil && (t.Kind == IntKind || t.Kind == FloatKind || t.Kind == DecimalKind || t.Kind == EnumKind)
}

// IsInteger reports whether t is any width/signedness of integer.
func IsInteger(t *Type) bool {
	return t != nil && t.Kind == IntKind
}

// String renders a human-readable type name, used in diagnostics and the
// emitter's debug output.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Invalid:
		return "<invalid>"
	case VoidKind:
		return "void"
	case BoolKind:
		return "bool"
	case CharKind:
		return "char"
	case AnyKind:
		return "any"
	case StrKind:
		return "str"
	case IntKind:
		sign := "i"
		if !t.Signed {
			sign = "u"
		}
		return fmt.Sprintf("%s%d", sign, t.Width)
	case FloatKind:
		return fmt.Sprintf("f%d", t.Width)
	case DecimalKind:
		return fmt.Sprintf("d%d", t.Width)
	case ArrKind:
		return fmt.Sprintf("arr<%s>", t.Elem)
	case ArrayKind:
		if t.Len < 0 {
			return fmt.Sprintf("Array<%s>", t.Elem)
		}
		return fmt.Sprintf("Array<%s,%d>", t.Elem, t.Len)
	case PtrKind:
		return fmt.Sprintf("*%s", t.Elem)
	case RefKind:
		return fmt.Sprintf("&%s", t.Elem)
	case TupleKind:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = e.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	case FnKind:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.Result)
	case StructKind:
		return t.Name
	case EnumKind:
		return t.Name
	case ChannelKind:
		return fmt.Sprintf("Channel<%s>", t.Elem)
	case FutureKind:
		return fmt.Sprintf("Future<%s>", t.Elem)
	case ResultKind:
		return fmt.Sprintf("Result<%s,%s>", t.Ok, t.Err)
	case CustomKind:
		return t.Name
	default:
		return "<unknown>"
	}
}
