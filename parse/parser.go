// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
)

// Parser is a one-token-lookahead recursive-descent parser over a
// fully-lexed token stream.
type Parser struct {
	tokens []*Token
	pos    int
	err    error

	windows map[string]ast.WindowSpec
}

// Parse lexes and parses a single SDBQL query.
func Parse(src string) (*ast.Query, error) {
	l := NewLexer(strings.NewReader(src))
	tokens, err := l.Run()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens, windows: map[string]ast.WindowSpec{}}
	q := p.parseQuery()
	if p.err != nil {
		return nil, p.err
	}
	return q, nil
}

func (p *Parser) cur() *Token {
	if p.pos >= len(p.tokens) {
		return &Token{Type: EOFToken}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() *Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) fail(format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf("parse error at token %d: %s", p.pos, fmt.Sprintf(format, args...))
	}
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Type == KeywordToken && upper(t.Value) == kw
}

func (p *Parser) expectKeyword(kw string) {
	if !p.isKeyword(kw) {
		p.fail("expected keyword %s, got %q", kw, p.cur().Value)
		return
	}
	p.advance()
}

func (p *Parser) expectIdent() string {
	t := p.cur()
	if t.Type != IdentifierToken {
		p.fail("expected identifier, got %q", t.Value)
		return ""
	}
	p.advance()
	return t.Value
}

func (p *Parser) isOp(op string) bool {
	t := p.cur()
	return t.Type == OpToken && t.Value == op
}

func (p *Parser) eat(t TokenType) bool {
	if p.cur().Type == t {
		p.advance()
		return true
	}
	return false
}

// parseQuery parses leading top-level LET bindings, the body clause
// list, and the trailing SORT/LIMIT/RETURN, per spec §4.1.
func (p *Parser) parseQuery() *ast.Query {
	q := &ast.Query{}

	p.parseQueryTail(q)

	if p.cur().Type != EOFToken {
		p.fail("unexpected trailing token %q", p.cur().Value)
	}
	return q
}

// parseQueryTail parses the body clause list and trailing
// SORT/LIMIT/RETURN shared by both a top-level query and a subquery
// expression.
func (p *Parser) parseQueryTail(q *ast.Query) {
	for p.isKeyword("LET") && p.err == nil {
		q.Lets = append(q.Lets, p.parseLetBinding())
	}

	for p.err == nil && p.clauseFollows() {
		q.Body = append(q.Body, p.parseClause())
	}

	if p.isKeyword("SORT") {
		p.advance()
		q.Sort = append(q.Sort, p.parseSortKey())
		for p.eat(CommaToken) {
			q.Sort = append(q.Sort, p.parseSortKey())
		}
	}

	if p.isKeyword("LIMIT") {
		p.advance()
		first := p.parseExpr()
		if p.eat(CommaToken) {
			q.Offset = first
			q.Limit = p.parseExpr()
		} else {
			q.Limit = first
		}
	}

	if p.isKeyword("RETURN") {
		p.advance()
		q.Return = p.parseExpr()
	}
}

func (p *Parser) clauseFollows() bool {
	for _, kw := range []string{"FOR", "LET", "FILTER", "JOIN", "COLLECT", "INSERT", "UPDATE", "REMOVE", "UPSERT", "TRAVERSE", "SHORTEST_PATH", "WINDOW"} {
		if p.isKeyword(kw) {
			return true
		}
	}
	return false
}

func (p *Parser) parseLetBinding() ast.LetBinding {
	p.expectKeyword("LET")
	name := p.expectIdent()
	if !p.isOp("=") {
		p.fail("expected = in LET binding")
	} else {
		p.advance()
	}
	return ast.LetBinding{Var: name, Expr: p.parseExpr()}
}

func (p *Parser) parseSortKey() ast.SortKey {
	e := p.parseExpr()
	asc := true
	if p.isKeyword("DESC") {
		asc = false
		p.advance()
	} else if p.isKeyword("ASC") {
		p.advance()
	}
	return ast.SortKey{Expr: e, Ascending: asc}
}

func (p *Parser) parseClause() ast.Clause {
	switch {
	case p.isKeyword("FOR"):
		return p.parseFor()
	case p.isKeyword("LET"):
		b := p.parseLetBinding()
		return ast.LetClause{Var: b.Var, Expr: b.Expr}
	case p.isKeyword("FILTER"):
		p.advance()
		return ast.FilterClause{Expr: p.parseExpr()}
	case p.isKeyword("JOIN"):
		return p.parseJoin()
	case p.isKeyword("COLLECT"):
		return p.parseCollect()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("REMOVE"):
		return p.parseRemove()
	case p.isKeyword("UPSERT"):
		return p.parseUpsert()
	case p.isKeyword("TRAVERSE"):
		return p.parseTraverse()
	case p.isKeyword("SHORTEST_PATH"):
		return p.parseShortestPath()
	case p.isKeyword("WINDOW"):
		return p.parseWindow()
	}
	p.fail("unexpected token %q in clause position", p.cur().Value)
	return nil
}

// parseFor handles both "FOR v IN <source>" and the range shorthand
// "FOR v IN a..b" (RangeExpr is produced by the expression parser's
// range-precedence level, so no special case is needed here).
func (p *Parser) parseFor() ast.Clause {
	p.expectKeyword("FOR")
	v := p.expectIdent()
	p.expectKeyword("IN")
	src := p.parseExpr()
	if ident, ok := src.(ast.Var); ok && !p.isBoundVar(ident.Name) {
		src = ast.CollectionSource{Name: ident.Name}
	}
	return ast.ForClause{Var: v, Source: src}
}

// isBoundVar is always false here: the parser has no symbol table of
// in-scope variables, so a bare identifier used as a FOR source is
// always treated as a collection name. A query that does
// "FOR x IN outer FOR y IN x" (iterating a previously bound variable)
// must spell the source as a LET-bound array instead.
func (p *Parser) isBoundVar(string) bool { return false }

func (p *Parser) parseJoin() ast.Clause {
	p.expectKeyword("JOIN")
	typ := ast.JoinInner
	switch {
	case p.isKeyword("LEFT"):
		p.advance()
		typ = ast.JoinLeft
	case p.isKeyword("RIGHT"):
		p.advance()
		typ = ast.JoinRight
	case p.isKeyword("FULL"):
		p.advance()
		typ = ast.JoinFullOuter
	case p.isKeyword("INNER"):
		p.advance()
	}
	if p.isKeyword("OUTER") {
		p.advance()
	}
	v := p.expectIdent()
	p.expectKeyword("IN")
	coll := p.expectIdent()
	p.expectKeyword("ON")
	cond := p.parseExpr()
	return ast.JoinClause{Var: v, Collection: coll, Condition: cond, Type: typ}
}

func (p *Parser) parseCollect() ast.Clause {
	p.expectKeyword("COLLECT")
	c := ast.CollectClause{}
	if !p.isKeyword("AGGREGATE") && !p.isKeyword("WITH") {
		c.Groups = append(c.Groups, p.parseCollectGroup())
		for p.eat(CommaToken) {
			c.Groups = append(c.Groups, p.parseCollectGroup())
		}
	}
	if p.isKeyword("WITH") {
		p.advance()
		p.expectKeyword("COUNT")
		p.expectIntoKeyword()
		name := p.expectIdent()
		c.CountVar = &name
	}
	if p.isKeyword("AGGREGATE") {
		p.advance()
		c.Aggregates = append(c.Aggregates, p.parseAggregateSpec())
		for p.eat(CommaToken) {
			c.Aggregates = append(c.Aggregates, p.parseAggregateSpec())
		}
	}
	if p.isKeyword("INTO") {
		p.advance()
		name := p.expectIdent()
		c.Into = &name
	}
	return c
}

func (p *Parser) expectIntoKeyword() {
	if p.isKeyword("INTO") {
		p.advance()
	}
}

func (p *Parser) parseCollectGroup() ast.CollectGroup {
	name := p.expectIdent()
	p.expectEq()
	return ast.CollectGroup{Var: name, Expr: p.parseExpr()}
}

func (p *Parser) parseAggregateSpec() ast.AggregateSpec {
	name := p.expectIdent()
	p.expectEq()
	fn := p.expectIdent()
	if !p.eat(LeftParenToken) {
		p.fail("expected ( after aggregate function name")
	}
	var arg ast.Expr
	if p.cur().Type != RightParenToken {
		arg = p.parseExpr()
	}
	if !p.eat(RightParenToken) {
		p.fail("expected ) to close aggregate function call")
	}
	return ast.AggregateSpec{Var: name, Func: fn, Arg: arg}
}

func (p *Parser) expectEq() {
	if !p.isOp("=") {
		p.fail("expected =")
		return
	}
	p.advance()
}

func (p *Parser) parseInsert() ast.Clause {
	p.expectKeyword("INSERT")
	doc := p.parseExpr()
	p.expectKeyword("INTO")
	coll := p.expectIdent()
	return ast.InsertClause{Doc: doc, Into: coll}
}

func (p *Parser) parseUpdate() ast.Clause {
	p.expectKeyword("UPDATE")
	sel := p.parseExpr()
	p.expectKeyword("WITH")
	changes := p.parseExpr()
	p.expectKeyword("IN")
	coll := p.expectIdent()
	return ast.UpdateClause{Selector: sel, Changes: changes, In: coll}
}

func (p *Parser) parseRemove() ast.Clause {
	p.expectKeyword("REMOVE")
	sel := p.parseExpr()
	p.expectKeyword("IN")
	coll := p.expectIdent()
	return ast.RemoveClause{Selector: sel, In: coll}
}

func (p *Parser) parseUpsert() ast.Clause {
	p.expectKeyword("UPSERT")
	search := p.parseExpr()
	p.expectKeyword("INSERT")
	ins := p.parseExpr()
	p.expectKeyword("UPDATE")
	upd := p.parseExpr()
	p.expectKeyword("IN")
	coll := p.expectIdent()
	return ast.UpsertClause{Search: search, Insert: ins, Update: upd, In: coll}
}

func (p *Parser) parseDirection() ast.Direction {
	switch {
	case p.isKeyword("OUTBOUND"):
		p.advance()
		return ast.Outbound
	case p.isKeyword("INBOUND"):
		p.advance()
		return ast.Inbound
	case p.isKeyword("ANY"):
		p.advance()
		return ast.AnyDirection
	}
	p.fail("expected OUTBOUND, INBOUND or ANY")
	return ast.Outbound
}

func (p *Parser) parseTraverse() ast.Clause {
	p.expectKeyword("TRAVERSE")
	vertexVar := p.expectIdent()
	var edgeVar *string
	if p.eat(CommaToken) {
		e := p.expectIdent()
		edgeVar = &e
	}
	p.expectKeyword("FROM")
	start := p.parseExpr()
	p.expectKeyword("IN")
	edgeColl := p.expectIdent()
	minDepth, maxDepth := 0, 1
	if p.isKeyword("MINDEPTH") {
		p.advance()
		minDepth = p.expectInt()
	}
	if p.isKeyword("MAXDEPTH") {
		p.advance()
		maxDepth = p.expectInt()
	}
	p.expectKeyword("DIRECTION")
	dir := p.parseDirection()
	return ast.GraphTraversalClause{
		Start: start, EdgeCollection: edgeColl,
		MinDepth: minDepth, MaxDepth: maxDepth, Direction: dir,
		VertexVar: vertexVar, EdgeVar: edgeVar,
	}
}

func (p *Parser) parseShortestPath() ast.Clause {
	p.expectKeyword("SHORTEST_PATH")
	vertexVar := p.expectIdent()
	var edgeVar *string
	if p.eat(CommaToken) {
		e := p.expectIdent()
		edgeVar = &e
	}
	p.expectKeyword("FROM")
	start := p.parseExpr()
	p.expectKeyword("TO")
	end := p.parseExpr()
	p.expectKeyword("IN")
	edgeColl := p.expectIdent()
	p.expectKeyword("DIRECTION")
	dir := p.parseDirection()
	return ast.ShortestPathClause{
		Start: start, End: end, EdgeCollection: edgeColl,
		Direction: dir, VertexVar: vertexVar, EdgeVar: edgeVar,
	}
}

func (p *Parser) parseWindow() ast.Clause {
	p.expectKeyword("WINDOW")
	name := p.expectIdent()
	spec := p.parseWindowBody()
	p.windows[name] = spec
	return ast.WindowClause{Name: name, Spec: spec}
}

func (p *Parser) parseWindowBody() ast.WindowSpec {
	var spec ast.WindowSpec
	if p.isKeyword("PARTITION") {
		p.advance()
		p.expectKeyword("BY")
		spec.PartitionBy = append(spec.PartitionBy, p.parseExpr())
		for p.eat(CommaToken) {
			spec.PartitionBy = append(spec.PartitionBy, p.parseExpr())
		}
	}
	if p.isKeyword("ORDER") {
		p.advance()
		p.expectKeyword("BY")
		spec.OrderBy = append(spec.OrderBy, p.parseSortKey())
		for p.eat(CommaToken) {
			spec.OrderBy = append(spec.OrderBy, p.parseSortKey())
		}
	}
	return spec
}

func (p *Parser) expectInt() int {
	t := p.cur()
	if t.Type != IntToken {
		p.fail("expected integer, got %q", t.Value)
		return 0
	}
	p.advance()
	n, _ := strconv.Atoi(t.Value)
	return n
}

// ---- expressions ----

func (p *Parser) parseExpr() ast.Expr {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expr {
	cond := p.parseOr()
	if p.isOp("?") {
		p.advance()
		then := p.parseExpr()
		if !p.eat(ColonToken) {
			p.fail("expected : in ternary expression")
		}
		els := p.parseExpr()
		return ast.Ternary{Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.isKeyword("OR") {
		p.advance()
		left = ast.BinaryOp{Op: ast.OpOr, Left: left, Right: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.isKeyword("AND") {
		p.advance()
		left = ast.BinaryOp{Op: ast.OpAnd, Left: left, Right: p.parseNot()}
	}
	return left
}

func (p *Parser) parseNot() ast.Expr {
	if p.isKeyword("NOT") {
		p.advance()
		return ast.UnaryOp{Op: ast.OpNot, Operand: p.parseNot()}
	}
	return p.parseComparison()
}

var comparisonOps = map[string]ast.BinOp{
	"==": ast.OpEq, "=": ast.OpEq, "!=": ast.OpNeq,
	"<": ast.OpLt, "<=": ast.OpLte, ">": ast.OpGt, ">=": ast.OpGte,
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseMembership()
	if p.cur().Type == OpToken {
		if op, ok := comparisonOps[p.cur().Value]; ok {
			p.advance()
			return ast.BinaryOp{Op: op, Left: left, Right: p.parseMembership()}
		}
	}
	return left
}

func (p *Parser) parseMembership() ast.Expr {
	left := p.parseAdditive()
	for {
		switch {
		case p.isKeyword("IN"):
			p.advance()
			left = ast.BinaryOp{Op: ast.OpIn, Left: left, Right: p.parseAdditive()}
		case p.isKeyword("LIKE"):
			p.advance()
			left = ast.BinaryOp{Op: ast.OpLike, Left: left, Right: p.parseAdditive()}
		case p.isKeyword("REGEX"):
			p.advance()
			left = ast.BinaryOp{Op: ast.OpRegex, Left: left, Right: p.parseAdditive()}
		case p.isKeyword("NOT"):
			save := p.pos
			p.advance()
			switch {
			case p.isKeyword("LIKE"):
				p.advance()
				left = ast.BinaryOp{Op: ast.OpNotLike, Left: left, Right: p.parseAdditive()}
			case p.isKeyword("REGEX"):
				p.advance()
				left = ast.BinaryOp{Op: ast.OpNotRegex, Left: left, Right: p.parseAdditive()}
			default:
				p.pos = save
				return left
			}
		default:
			return left
		}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseRange()
	for p.cur().Type == OpToken && (p.cur().Value == "+" || p.cur().Value == "-") {
		op := ast.OpAdd
		if p.cur().Value == "-" {
			op = ast.OpSub
		}
		p.advance()
		left = ast.BinaryOp{Op: op, Left: left, Right: p.parseRange()}
	}
	return left
}

func (p *Parser) parseRange() ast.Expr {
	left := p.parseMultiplicative()
	if p.cur().Type == RangeToken {
		p.advance()
		return ast.RangeExpr{From: left, To: p.parseMultiplicative()}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parsePower()
	for p.cur().Type == OpToken && (p.cur().Value == "*" || p.cur().Value == "/" || p.cur().Value == "%") {
		var op ast.BinOp
		switch p.cur().Value {
		case "*":
			op = ast.OpMul
		case "/":
			op = ast.OpDiv
		case "%":
			op = ast.OpMod
		}
		p.advance()
		left = ast.BinaryOp{Op: op, Left: left, Right: p.parsePower()}
	}
	return left
}

func (p *Parser) parsePower() ast.Expr {
	left := p.parseUnary()
	if p.cur().Type == OpToken && p.cur().Value == "**" {
		p.advance()
		return ast.BinaryOp{Op: ast.OpPow, Left: left, Right: p.parsePower()}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur().Type == OpToken && p.cur().Value == "-" {
		p.advance()
		return ast.UnaryOp{Op: ast.OpNeg, Operand: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur().Type {
		case DotToken:
			p.advance()
			field := p.expectIdent()
			e = ast.FieldAccess{Base: e, Field: field}
		case LeftBracketToken:
			p.advance()
			idx := p.parseExpr()
			if !p.eat(RightBracketToken) {
				p.fail("expected ]")
			}
			e = ast.DynamicAccess{Base: e, Index: idx}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Type {
	case IntToken:
		p.advance()
		n, _ := strconv.ParseInt(t.Value, 10, 64)
		return ast.Literal{Value: sdb.IntValue(n)}
	case FloatToken:
		p.advance()
		f, _ := strconv.ParseFloat(t.Value, 64)
		return ast.Literal{Value: sdb.FloatValue(f)}
	case StringToken:
		p.advance()
		return ast.Literal{Value: sdb.StringValue(Unquote(t.Value))}
	case BindVarToken:
		p.advance()
		return ast.BindVar{Name: t.Value}
	case LeftParenToken:
		p.advance()
		e := p.parseExpr()
		if !p.eat(RightParenToken) {
			p.fail("expected )")
		}
		return e
	case LeftBracketToken:
		return p.parseArrayLiteral()
	case LeftBraceToken:
		return p.parseObjectLiteral()
	case KeywordToken:
		switch upper(t.Value) {
		case "TRUE":
			p.advance()
			return ast.Literal{Value: sdb.BoolValue(true)}
		case "FALSE":
			p.advance()
			return ast.Literal{Value: sdb.BoolValue(false)}
		case "NULL":
			p.advance()
			return ast.Literal{Value: sdb.NullValue()}
		case "FOR":
			return p.parseSubquery()
		}
		p.fail("unexpected keyword %q in expression", t.Value)
		return nil
	case IdentifierToken:
		p.advance()
		name := t.Value
		if p.cur().Type == LeftParenToken {
			return p.parseCall(name)
		}
		return ast.Var{Name: name}
	}
	p.fail("unexpected token %q in expression", t.Value)
	return nil
}

// parseSubquery parses a nested query used as a subquery expression.
// SDBQL writes these unparenthesized (a FOR...RETURN chain is
// self-terminating once RETURN's expression ends), so the enclosing
// context (a closing paren, bracket, comma, or EOF) is what stops it.
func (p *Parser) parseSubquery() ast.Expr {
	q := &ast.Query{}
	p.parseQueryTail(q)
	return ast.Subquery{Query: q}
}

func (p *Parser) parseCall(name string) ast.Expr {
	p.advance() // '('
	var args []ast.Expr
	if p.cur().Type != RightParenToken {
		args = append(args, p.parseExpr())
		for p.eat(CommaToken) {
			args = append(args, p.parseExpr())
		}
	}
	if !p.eat(RightParenToken) {
		p.fail("expected ) to close call to %s", name)
	}
	fc := ast.FunctionCall{Name: name, Args: args}
	if p.isKeyword("OVER") {
		p.advance()
		if p.eat(LeftParenToken) {
			spec := p.parseWindowBody()
			if !p.eat(RightParenToken) {
				p.fail("expected ) to close OVER(...)")
			}
			fc.Over = &spec
		} else {
			wname := p.expectIdent()
			spec := p.windows[wname]
			fc.Over = &spec
		}
	}
	return fc
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	p.advance() // '['
	var elems []ast.Expr
	if p.cur().Type != RightBracketToken {
		elems = append(elems, p.parseExpr())
		for p.eat(CommaToken) {
			elems = append(elems, p.parseExpr())
		}
	}
	if !p.eat(RightBracketToken) {
		p.fail("expected ] to close array literal")
	}
	return ast.ArrayLiteral{Elements: elems}
}

func (p *Parser) parseObjectLiteral() ast.Expr {
	p.advance() // '{'
	var fields []ast.ObjectField
	if p.cur().Type != RightBraceToken {
		fields = append(fields, p.parseObjectField())
		for p.eat(CommaToken) {
			fields = append(fields, p.parseObjectField())
		}
	}
	if !p.eat(RightBraceToken) {
		p.fail("expected } to close object literal")
	}
	return ast.ObjectLiteral{Fields: fields}
}

func (p *Parser) parseObjectField() ast.ObjectField {
	if p.cur().Type == LeftBracketToken {
		p.advance()
		keyExpr := p.parseExpr()
		if !p.eat(RightBracketToken) {
			p.fail("expected ] closing computed object key")
		}
		if !p.eat(ColonToken) {
			p.fail("expected : after computed object key")
		}
		return ast.ObjectField{KeyExpr: keyExpr, Value: p.parseExpr()}
	}

	t := p.cur()
	var key string
	switch t.Type {
	case IdentifierToken, KeywordToken:
		key = t.Value
		p.advance()
	case StringToken:
		key = Unquote(t.Value)
		p.advance()
	default:
		p.fail("expected object field key, got %q", t.Value)
	}
	if !p.eat(ColonToken) {
		// Shorthand { name } meaning { name: name }.
		return ast.ObjectField{Key: key, Value: ast.Var{Name: key}}
	}
	return ast.ObjectField{Key: key, Value: p.parseExpr()}
}
