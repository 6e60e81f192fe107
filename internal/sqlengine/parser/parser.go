// Package parser implements a recursive-descent parser for the SELECT
// subset described in spec §4.4:
//
//	SELECT element_list FROM table [WHERE logic] [ORDER BY elem [, ...]] [LIMIT int]
//
// replacing the source's ANTLR-generated grammar with hand-written
// descent, in the style of the teacher's other hand-rolled readers.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zvecdb/zvec-core/internal/sqlengine/ast"
	"github.com/zvecdb/zvec-core/internal/sqlengine/lexer"
)

// Error is a structured parse error with source position (spec §4.4).
type Error struct {
	Line, Col int
	Msg       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

// Parser consumes a token stream produced by lexer.Lexer.
type Parser struct {
	lex  *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
}

// New creates a Parser over query and primes its two-token lookahead.
func New(query string) (*Parser, error) {
	p := &Parser{lex: lexer.New(query)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		if lexErr, ok := err.(*lexer.Error); ok {
			return &Error{Line: lexErr.Line, Col: lexErr.Col, Msg: lexErr.Msg}
		}
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return &Error{Line: p.cur.Line, Col: p.cur.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errf("expected %s, found %q", what, p.cur.Text)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

// ParseSelect parses a single SELECT statement (optionally terminated
// by ';') into a SelectInfo.
func (p *Parser) ParseSelect() (*ast.SelectInfo, error) {
	if p.cur.Kind != lexer.Select {
		return nil, p.errf("expected SELECT, found %q", p.cur.Text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	elems, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.From, "FROM"); err != nil {
		return nil, err
	}
	tableTok, err := p.expect(lexer.Ident, "table name")
	if err != nil {
		return nil, err
	}

	info := ast.NewSelectInfo(tableTok.Text)
	info.SelectedElems = elems
	for _, e := range elems {
		if e.Asterisk {
			info.IncludeVector = true
			info.IncludeDocID = true
		}
		if strings.EqualFold(e.FieldName, "vector") || strings.EqualFold(e.FieldName, "embedding") {
			info.IncludeVector = true
		}
		if strings.EqualFold(e.FieldName, "id") || strings.EqualFold(e.FieldName, "doc_id") {
			info.IncludeDocID = true
		}
	}

	if p.cur.Kind == lexer.Where {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseLogicOr()
		if err != nil {
			return nil, err
		}
		info.SearchCond = cond
	}

	if p.cur.Kind == lexer.Group {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.By, "BY"); err != nil {
			return nil, err
		}
		gb, err := p.parseFieldList()
		if err != nil {
			return nil, err
		}
		info.GroupBy = &ast.GroupBy{Fields: gb}
	}

	if p.cur.Kind == lexer.Order {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.By, "BY"); err != nil {
			return nil, err
		}
		obElems, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		info.OrderByElems = obElems
	}

	if p.cur.Kind == lexer.Limit {
		if err := p.advance(); err != nil {
			return nil, err
		}
		numTok, err := p.expect(lexer.Number, "integer")
		if err != nil {
			return nil, err
		}
		info.Limit = int(numTok.Num)
	}

	if p.cur.Kind == lexer.Semicolon {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return info, nil
}

func (p *Parser) parseSelectList() ([]ast.SelectedElem, error) {
	var elems []ast.SelectedElem
	for {
		elem, err := p.parseSelectedElem()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.cur.Kind != lexer.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return elems, nil
}

func (p *Parser) parseSelectedElem() (ast.SelectedElem, error) {
	if p.cur.Kind == lexer.Star {
		if err := p.advance(); err != nil {
			return ast.SelectedElem{}, err
		}
		return ast.SelectedElem{Asterisk: true}, nil
	}

	nameTok, err := p.expect(lexer.Ident, "column name or function call")
	if err != nil {
		return ast.SelectedElem{}, err
	}

	elem := ast.SelectedElem{FieldName: nameTok.Text}

	if p.cur.Kind == lexer.LParen {
		if err := p.advance(); err != nil {
			return ast.SelectedElem{}, err
		}
		elem.FuncName = nameTok.Text
		elem.FieldName = ""
		if p.cur.Kind == lexer.Star {
			elem.FuncParamStar = true
			if err := p.advance(); err != nil {
				return ast.SelectedElem{}, err
			}
		} else if p.cur.Kind == lexer.Ident {
			elem.FuncParam = p.cur.Text
			if err := p.advance(); err != nil {
				return ast.SelectedElem{}, err
			}
		}
		if _, err := p.expect(lexer.RParen, ")"); err != nil {
			return ast.SelectedElem{}, err
		}
	}

	if p.cur.Kind == lexer.As {
		if err := p.advance(); err != nil {
			return ast.SelectedElem{}, err
		}
		aliasTok, err := p.expect(lexer.Ident, "alias")
		if err != nil {
			return ast.SelectedElem{}, err
		}
		elem.Alias = aliasTok.Text
	}

	return elem, nil
}

func (p *Parser) parseFieldList() ([]string, error) {
	var fields []string
	for {
		tok, err := p.expect(lexer.Ident, "field name")
		if err != nil {
			return nil, err
		}
		fields = append(fields, tok.Text)
		if p.cur.Kind != lexer.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func (p *Parser) parseOrderByList() ([]ast.OrderByElem, error) {
	var elems []ast.OrderByElem
	for {
		tok, err := p.expect(lexer.Ident, "field name")
		if err != nil {
			return nil, err
		}
		ob := ast.OrderByElem{FieldName: tok.Text}
		if p.cur.Kind == lexer.Desc {
			ob.Desc = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.cur.Kind == lexer.Asc {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		elems = append(elems, ob)
		if p.cur.Kind != lexer.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return elems, nil
}

// parseLogicOr : parseLogicAnd (OR parseLogicAnd)*
func (p *Parser) parseLogicOr() (*ast.Node, error) {
	left, err := p.parseLogicAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.Or {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicAnd()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.OpOr, left, right)
	}
	return left, nil
}

// parseLogicAnd : parseLogicPrimary (AND parseLogicPrimary)*
func (p *Parser) parseLogicAnd() (*ast.Node, error) {
	left, err := p.parseLogicPrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.And {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicPrimary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.OpAnd, left, right)
	}
	return left, nil
}

func (p *Parser) parseLogicPrimary() (*ast.Node, error) {
	if p.cur.Kind == lexer.LParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		node, err := p.parseLogicOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, ")"); err != nil {
			return nil, err
		}
		return node, nil
	}
	return p.parseComparison()
}

var relOps = map[lexer.Kind]ast.Op{
	lexer.Eq:    ast.OpEQ,
	lexer.NotEq: ast.OpNE,
	lexer.Lt:    ast.OpLT,
	lexer.Le:    ast.OpLE,
	lexer.Gt:    ast.OpGT,
	lexer.Ge:    ast.OpGE,
}

func (p *Parser) parseComparison() (*ast.Node, error) {
	field, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case lexer.Is:
		if err := p.advance(); err != nil {
			return nil, err
		}
		op := ast.OpIsNull
		if p.cur.Kind == lexer.Not {
			op = ast.OpIsNotNull
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(lexer.Null, "NULL"); err != nil {
			return nil, err
		}
		return ast.NewUnary(op, field), nil

	case lexer.Like:
		if err := p.advance(); err != nil {
			return nil, err
		}
		pattern, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(ast.OpLike, field, pattern), nil

	case lexer.In:
		if err := p.advance(); err != nil {
			return nil, err
		}
		list, err := p.parseInValueList()
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(ast.OpIn, field, list), nil

	case lexer.ContainAll, lexer.ContainAny:
		op := ast.OpContainAll
		if p.cur.Kind == lexer.ContainAny {
			op = ast.OpContainAny
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		list, err := p.parseInValueList()
		if err != nil {
			return nil, err
		}
		return ast.NewBinary(op, field, list), nil
	}

	relOp, ok := relOps[p.cur.Kind]
	if !ok {
		return nil, p.errf("expected a relational operator, found %q", p.cur.Text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return ast.NewBinary(relOp, field, right), nil
}

func (p *Parser) parseInValueList() (*ast.Node, error) {
	if _, err := p.expect(lexer.LParen, "("); err != nil {
		return nil, err
	}
	var children []*ast.Node
	for {
		val, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		children = append(children, val)
		if p.cur.Kind != lexer.Comma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Node{Op: ast.OpInValueList, Type: ast.Const, Children: children}, nil
}

// parseOperand parses a single identifier, constant or function call:
// field reference, number, string, bool, NULL, vector/matrix literal,
// or name(args...).
func (p *Parser) parseOperand() (*ast.Node, error) {
	tok := p.cur
	switch tok.Kind {
	case lexer.Ident:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == lexer.LParen {
			return p.parseFuncCallOperand(tok.Text)
		}
		return &ast.Node{Op: ast.OpIdentifier, Type: ast.Identifier, FieldName: tok.Text}, nil
	case lexer.Number:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if strings.ContainsAny(tok.Text, ".eE") {
			return &ast.Node{Op: ast.OpFloat, Type: ast.Const, FloatValue: tok.Num}, nil
		}
		n, _ := strconv.ParseInt(tok.Text, 10, 64)
		return &ast.Node{Op: ast.OpInt, Type: ast.Const, IntValue: n}, nil
	case lexer.String:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Node{Op: ast.OpString, Type: ast.Const, StringValue: tok.Text}, nil
	case lexer.True, lexer.False:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Node{Op: ast.OpBool, Type: ast.Const, BoolValue: tok.Kind == lexer.True}, nil
	case lexer.Null:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Node{Op: ast.OpNull, Type: ast.Const}, nil
	case lexer.Vector:
		rows, err := parseVectorLiteral(tok.Text)
		if err != nil {
			return nil, &Error{Line: tok.Line, Col: tok.Col, Msg: err.Error()}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Node{Op: ast.OpVectorMatrix, Type: ast.Const, Matrix: rows}, nil
	}
	return nil, p.errf("expected an identifier or literal, found %q", tok.Text)
}

// parseFuncCallOperand parses the argument list of a function call used
// as a rel/value_expr operand (spec §6.2 "function_call rel_op
// value_expr", "value_expr = const | function_call"). name has already
// been consumed; p.cur is the opening "(".
func (p *Parser) parseFuncCallOperand(name string) (*ast.Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []*ast.Node
	if p.cur.Kind != lexer.RParen {
		for {
			arg, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Kind != lexer.Comma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.RParen, ")"); err != nil {
		return nil, err
	}
	return &ast.Node{Op: ast.OpFuncCall, Type: ast.FuncCall, FuncName: name, Children: args}, nil
}

// parseVectorLiteral parses the raw bracketed text of a Vector token
// into rows of float32 (spec §3.4 "VECTOR/MATRIX"). A flat literal like
// "[1, 2, 3]" yields a single row; a nested literal like "[[1,2],[3,4]]"
// yields one row per inner bracket.
func parseVectorLiteral(raw string) ([][]float32, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", raw)
	}
	inner := trimmed[1 : len(trimmed)-1]
	if strings.Contains(inner, "[") {
		var rows [][]float32
		depth := 0
		start := -1
		for i, r := range inner {
			switch r {
			case '[':
				if depth == 0 {
					start = i + 1
				}
				depth++
			case ']':
				depth--
				if depth == 0 {
					row, err := parseFloatList(inner[start:i])
					if err != nil {
						return nil, err
					}
					rows = append(rows, row)
				}
			}
		}
		return rows, nil
	}
	row, err := parseFloatList(inner)
	if err != nil {
		return nil, err
	}
	return [][]float32{row}, nil
}

func parseFloatList(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric component %q", part)
		}
		out = append(out, float32(v))
	}
	return out, nil
}
