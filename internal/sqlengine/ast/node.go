// Package ast defines the filter/select AST used by the SQL parser and
// planner: a tagged sum of opcodes with typed payloads (spec §3.4),
// rather than the RTTI-downcast node hierarchy of the source this
// engine is modeled on.
package ast

import "fmt"

// Op is the node opcode. Every Node carries exactly one Op, and its
// NodeType (below) is a pure function of Op.
type Op int

const (
	OpNone Op = iota

	// Logical
	OpAnd
	OpOr

	// Relational
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpLike
	OpIn
	OpContainAll
	OpContainAny
	OpIsNull
	OpIsNotNull

	// Constants
	OpInt
	OpFloat
	OpString
	OpBool
	OpNull
	OpVectorMatrix
	OpInValueList

	// Identifier
	OpIdentifier

	// Function call
	OpFuncCall
)

func (o Op) String() string {
	switch o {
	case OpNone:
		return "NONE"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpEQ:
		return "="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	case OpLike:
		return "LIKE"
	case OpIn:
		return "IN"
	case OpContainAll:
		return "CONTAIN_ALL"
	case OpContainAny:
		return "CONTAIN_ANY"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpInt:
		return "INT"
	case OpFloat:
		return "FLOAT"
	case OpString:
		return "STRING"
	case OpBool:
		return "BOOL"
	case OpNull:
		return "NULL"
	case OpVectorMatrix:
		return "VECTOR_MATRIX"
	case OpInValueList:
		return "IN_VALUE_LIST"
	case OpIdentifier:
		return "ID"
	case OpFuncCall:
		return "FUNC"
	default:
		return "UNKNOWN"
	}
}

// NodeType classifies an Op into its opcode class (spec §3.4's table).
type NodeType int

const (
	NoType NodeType = iota
	LogicExpr
	RelExpr
	Const
	Identifier
	FuncCall
)

func typeOf(op Op) NodeType {
	switch op {
	case OpAnd, OpOr:
		return LogicExpr
	case OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE, OpLike, OpIn, OpContainAll, OpContainAny, OpIsNull, OpIsNotNull:
		return RelExpr
	case OpInt, OpFloat, OpString, OpBool, OpNull, OpVectorMatrix, OpInValueList:
		return Const
	case OpIdentifier:
		return Identifier
	case OpFuncCall:
		return FuncCall
	default:
		return NoType
	}
}

// Node is one element of the filter/select condition tree. Only the
// fields relevant to its Op are populated; the rest are zero. This is
// the tagged-sum representation spec §9 ("Union type for vector
// literals") asks for in place of an RTTI-downcast class hierarchy.
type Node struct {
	Op   Op
	Type NodeType

	Left  *Node
	Right *Node

	// Identifier
	FieldName string

	// Constants
	IntValue    int64
	FloatValue  float64
	StringValue string
	BoolValue   bool

	// VECTOR_MATRIX: a flat vector is Matrix[0]; a matrix has len(Matrix) > 1.
	Matrix [][]float32

	// IN_VALUE_LIST / function-call arguments.
	Children []*Node

	// Function call
	FuncName string

	// vectorPlaceholder marks a VECTOR_MATRIX node as the plan cache's
	// substitution slot rather than a literal parsed from this query.
	vectorPlaceholder bool
}

// NewLeaf builds a node with no children, deriving Type from op.
func NewLeaf(op Op) *Node {
	return &Node{Op: op, Type: typeOf(op)}
}

// NewBinary builds a LOGIC_EXPR or REL_EXPR node with the given operands.
func NewBinary(op Op, left, right *Node) *Node {
	return &Node{Op: op, Type: typeOf(op), Left: left, Right: right}
}

// NewUnary builds a REL_EXPR node with a single operand (IS_NULL,
// IS_NOT_NULL), stored in Left.
func NewUnary(op Op, operand *Node) *Node {
	return &Node{Op: op, Type: typeOf(op), Left: operand}
}

// OpName mirrors the source's Node::op_name().
func (n *Node) OpName() string {
	return n.Op.String()
}

// Text renders the node's infix form, mirroring Node::text() for the
// classes it covers (LOGIC_EXPR, REL_EXPR); other classes render a
// short literal form useful for debugging and plan-cache diagnostics.
func (n *Node) Text() string {
	switch n.Type {
	case LogicExpr:
		return fmt.Sprintf("(%s) %s (%s)", n.Left.Text(), n.OpName(), n.Right.Text())
	case RelExpr:
		if n.Right == nil {
			return fmt.Sprintf("%s%s", n.Left.Text(), n.OpName())
		}
		return fmt.Sprintf("%s%s%s", n.Left.Text(), n.OpName(), n.Right.Text())
	case Identifier:
		return n.FieldName
	case Const:
		return n.literalText()
	case FuncCall:
		return n.FuncName + "(...)"
	default:
		return ""
	}
}

func (n *Node) literalText() string {
	switch n.Op {
	case OpInt:
		return fmt.Sprintf("%d", n.IntValue)
	case OpFloat:
		return fmt.Sprintf("%g", n.FloatValue)
	case OpString:
		return n.StringValue
	case OpBool:
		return fmt.Sprintf("%t", n.BoolValue)
	case OpNull:
		return "NULL"
	case OpVectorMatrix:
		return "[vector]"
	case OpInValueList:
		return "(...)"
	default:
		return ""
	}
}

// IsVectorLiteralPlaceholder reports whether this node is the
// plan-cache's placeholder standing in for a query-supplied vector
// literal (spec §4.4 "Plan cache").
func (n *Node) IsVectorLiteralPlaceholder() bool {
	return n.Op == OpVectorMatrix && n.vectorPlaceholder
}

// NewVectorPlaceholder builds the sentinel VECTOR_MATRIX node the
// fingerprinter substitutes for a literal vector/matrix (spec §4.4).
func NewVectorPlaceholder() *Node {
	return &Node{Op: OpVectorMatrix, Type: Const, vectorPlaceholder: true}
}

// Clone deep-copies the subtree rooted at n. Shared subtrees cloned
// from a cached plan are materialized independently (spec §3.4
// "Ownership"), so mutating one clone (e.g. grafting a fresh vector
// literal into a placeholder slot) never affects another.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Left = n.Left.Clone()
	clone.Right = n.Right.Clone()
	if n.Matrix != nil {
		clone.Matrix = make([][]float32, len(n.Matrix))
		for i, row := range n.Matrix {
			clone.Matrix[i] = append([]float32(nil), row...)
		}
	}
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = c.Clone()
		}
	}
	return &clone
}

// FindVectorPlaceholder walks the subtree for the first placeholder
// node created by NewVectorPlaceholder, returning nil if none exists.
func (n *Node) FindVectorPlaceholder() *Node {
	if n == nil {
		return nil
	}
	if n.IsVectorLiteralPlaceholder() {
		return n
	}
	if found := n.Left.FindVectorPlaceholder(); found != nil {
		return found
	}
	if found := n.Right.FindVectorPlaceholder(); found != nil {
		return found
	}
	for _, c := range n.Children {
		if found := c.FindVectorPlaceholder(); found != nil {
			return found
		}
	}
	return nil
}
