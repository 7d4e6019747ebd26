/*
 * Copyright 2026 The DocVault Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package schemas

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/pkg/errors"
)

var (
	// ErrInvalidFormula is returned when a formula does not parse.
	ErrInvalidFormula = errors.InvalidArgument("invalid formula").WithCode("ErrInvalidFormula")

	// ErrDivisionByZero is returned when a formula divides by zero.
	ErrDivisionByZero = errors.InvalidArgument("division by zero").WithCode("ErrDivisionByZero")
)

// Formula is a parsed arithmetic expression of a computed field:
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := number | identifier | '(' expr ')' | '-' factor
type Formula struct {
	src  string
	root node
}

// node is an expression of the formula AST.
type node interface {
	eval(values types.Values) (float64, error)
	collect(fields []string) []string
}

type numberNode struct {
	value float64
}

type fieldNode struct {
	name string
}

type negNode struct {
	operand node
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n numberNode) eval(types.Values) (float64, error) {
	return n.value, nil
}

func (n numberNode) collect(fields []string) []string {
	return fields
}

// eval returns the number held by the field. Missing and non-number values
// count as 0.
func (n fieldNode) eval(values types.Values) (float64, error) {
	v, ok := values[n.name]
	if !ok || v.Kind() != types.KindNumber {
		return 0, nil
	}
	return v.AsNumber(), nil
}

func (n fieldNode) collect(fields []string) []string {
	if slices.Contains(fields, n.name) {
		return fields
	}
	return append(fields, n.name)
}

func (n negNode) eval(values types.Values) (float64, error) {
	v, err := n.operand.eval(values)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n negNode) collect(fields []string) []string {
	return n.operand.collect(fields)
}

func (n binaryNode) eval(values types.Values) (float64, error) {
	l, err := n.left.eval(values)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(values)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	default:
		return 0, fmt.Errorf("operator %q: %w", n.op, ErrInvalidFormula)
	}
}

func (n binaryNode) collect(fields []string) []string {
	return n.right.collect(n.left.collect(fields))
}

// ParseFormula parses the given source.
func ParseFormula(src string) (*Formula, error) {
	p := &parser{src: src}
	p.next()

	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}

	return &Formula{src: src, root: root}, nil
}

// Fields returns the field names the formula references, in order of first
// appearance.
func (f *Formula) Fields() []string {
	return f.root.collect(nil)
}

// Eval evaluates the formula over the given values.
func (f *Formula) Eval(values types.Values) (float64, error) {
	v, err := f.root.eval(values)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%q overflows: %w", f.src, ErrInvalidFormula)
	}
	return v, nil
}

// String returns the source of the formula.
func (f *Formula) String() string {
	return f.src
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokInvalid
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	src string
	pos int
	tok token
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%q at %d: %s: %w", p.src, p.tok.pos, fmt.Sprintf(format, args...), ErrInvalidFormula)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

// next advances to the next token.
func (p *parser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: p.pos}
		return
	}

	start := p.pos
	c := p.src[p.pos]
	switch {
	case isDigit(c) || c == '.':
		for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.pos], pos: start}
	case isIdentStart(c):
		for p.pos < len(p.src) && (isIdentStart(p.src[p.pos]) || isDigit(p.src[p.pos])) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos], pos: start}
	case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')':
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokInvalid, text: string(c), pos: start}
	}
}

func (p *parser) isOp(ops ...string) bool {
	return p.tok.kind == tokOp && slices.Contains(ops, p.tok.text)
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.isOp("+", "-") {
		op := p.tok.text[0]
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for p.isOp("*", "/") {
		op := p.tok.text[0]
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (node, error) {
	switch {
	case p.tok.kind == tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, p.errorf("malformed number %q", p.tok.text)
		}
		p.next()
		return numberNode{value: v}, nil
	case p.tok.kind == tokIdent:
		name := p.tok.text
		p.next()
		return fieldNode{name: name}, nil
	case p.isOp("("):
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.isOp(")") {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	case p.isOp("-"):
		p.next()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return negNode{operand: operand}, nil
	case p.tok.kind == tokEOF:
		return nil, p.errorf("unexpected end of formula")
	default:
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
}
