package ast

import (
	"fmt"
	"strings"
)

// Print returns a tree-like string representation of a node, for debugging.
// Nothing in the compiler pipeline calls it.
func Print(node Node) string {
	var sb strings.Builder
	printNode(&sb, node, 0)
	return sb.String()
}

func printNode(sb *strings.Builder, node Node, indent int) {
	if node == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *Program:
		sb.WriteString(prefix + "Program\n")
		if n.Module != nil {
			printNode(sb, n.Module, indent+1)
		}
		for _, u := range n.Uses {
			printNode(sb, u, indent+1)
		}
		for _, s := range n.Structs {
			printNode(sb, s, indent+1)
		}
		for _, e := range n.Enums {
			printNode(sb, e, indent+1)
		}
		for _, g := range n.Groups {
			printNode(sb, g, indent+1)
		}
		for _, fn := range n.Functions {
			printNode(sb, fn, indent+1)
		}

	case *ModuleDecl:
		sb.WriteString(fmt.Sprintf("%sModule: %s\n", prefix, n.Name))

	case *UseDecl:
		sb.WriteString(fmt.Sprintf("%sUse: %s\n", prefix, n.Path))

	case *StructDecl:
		vis := ""
		if n.IsPublic {
			vis = " (public)"
		}
		sb.WriteString(fmt.Sprintf("%sStruct: %s%s\n", prefix, n.Name, vis))
		for _, f := range n.Fields {
			printNode(sb, f, indent+1)
		}

	case *FieldDecl:
		sb.WriteString(fmt.Sprintf("%s%s: %s\n", prefix, n.Name, typeRefString(n.Type)))

	case *EnumDecl:
		sb.WriteString(fmt.Sprintf("%sEnum: %s\n", prefix, n.Name))
		for _, v := range n.Variants {
			sb.WriteString(fmt.Sprintf("%s  %s\n", prefix, v.Name))
		}

	case *GroupDecl:
		sb.WriteString(fmt.Sprintf("%sGroup: %s\n", prefix, n.Name))
		for _, fn := range n.Functions {
			printNode(sb, fn, indent+1)
		}

	case *FunctionDecl:
		modifiers := ""
		if n.IsPublic {
			modifiers += "public "
		}
		if n.IsAsync {
			modifiers += "async "
		}
		if modifiers != "" {
			modifiers = " (" + strings.TrimSpace(modifiers) + ")"
		}
		sb.WriteString(fmt.Sprintf("%sFunction: %s%s\n", prefix, n.Name, modifiers))
		for _, p := range n.Params {
			printNode(sb, p, indent+1)
		}
		if n.Body != nil {
			printNode(sb, n.Body, indent+1)
		}

	case *Param:
		self := ""
		if n.IsSelf {
			self = " (self)"
		}
		sb.WriteString(fmt.Sprintf("%s%s: %s%s\n", prefix, n.Name, typeRefString(n.Type), self))

	case *BlockStmt:
		for _, stmt := range n.Statements {
			printNode(sb, stmt, indent)
		}

	case *VarDecl:
		sb.WriteString(fmt.Sprintf("%sVarDecl: %s\n", prefix, n.Name))
		if n.Value != nil {
			printNode(sb, n.Value, indent+1)
		}

	case *AssignStmt:
		sb.WriteString(fmt.Sprintf("%sAssignStmt\n", prefix))
		printNode(sb, n.Target, indent+1)
		printNode(sb, n.Value, indent+1)

	case *ReturnStmt:
		sb.WriteString(fmt.Sprintf("%sReturnStmt\n", prefix))
		if n.Value != nil {
			printNode(sb, n.Value, indent+1)
		}

	case *IfStmt:
		sb.WriteString(fmt.Sprintf("%sIfStmt\n", prefix))
		printNode(sb, n.Condition, indent+1)
		printNode(sb, n.Then, indent+1)
		if n.Else != nil {
			printNode(sb, n.Else, indent+1)
		}

	case *WhileStmt:
		sb.WriteString(fmt.Sprintf("%sWhileStmt\n", prefix))
		printNode(sb, n.Condition, indent+1)
		printNode(sb, n.Body, indent+1)

	case *ForInStmt:
		sb.WriteString(fmt.Sprintf("%sForInStmt: %s\n", prefix, n.Variable))
		printNode(sb, n.Iterable, indent+1)
		printNode(sb, n.Body, indent+1)

	case *ExprStmt:
		sb.WriteString(fmt.Sprintf("%sExprStmt\n", prefix))
		printNode(sb, n.Expr, indent+1)

	case *BinaryExpr:
		sb.WriteString(fmt.Sprintf("%sBinaryExpr: %s\n", prefix, n.Op))
		printNode(sb, n.Left, indent+1)
		printNode(sb, n.Right, indent+1)

	case *UnaryExpr:
		sb.WriteString(fmt.Sprintf("%sUnaryExpr: %s\n", prefix, n.Op))
		printNode(sb, n.Operand, indent+1)

	case *CallExpr:
		sb.WriteString(fmt.Sprintf("%sCallExpr\n", prefix))
		printNode(sb, n.Callee, indent+1)
		for _, a := range n.Args {
			printNode(sb, a.Value, indent+1)
		}

	case *MemberExpr:
		sb.WriteString(fmt.Sprintf("%sMemberExpr: .%s\n", prefix, n.Field))
		printNode(sb, n.Object, indent+1)

	case *Identifier:
		sb.WriteString(fmt.Sprintf("%sIdentifier: %s\n", prefix, n.Name))

	case *SelfExpr:
		sb.WriteString(fmt.Sprintf("%sSelfExpr\n", prefix))

	case *IntLit:
		sb.WriteString(fmt.Sprintf("%sIntLit: %s\n", prefix, n.Value))

	case *FloatLit:
		sb.WriteString(fmt.Sprintf("%sFloatLit: %s\n", prefix, n.Value))

	case *StringLit:
		sb.WriteString(fmt.Sprintf("%sStringLit: %q\n", prefix, n.Value))

	case *BoolLit:
		sb.WriteString(fmt.Sprintf("%sBoolLit: %t\n", prefix, n.Value))

	default:
		sb.WriteString(fmt.Sprintf("%sUnknown node type: %T\n", prefix, node))
	}
}

func typeRefString(t *TypeRef) string {
	if t == nil {
		return "<infer>"
	}
	return t.Name
}
