/*
 * sel.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

// Package sel implements a small atom selection language, in the spirit of the
// ones used by molecular visualization and analysis programs. A Selection is parsed
// once and can then be resolved against any topology:
//
//	protein and name CA
//	not resname TIP3
//	segid P0 P1 and backbone
//	resid 10 to 20 or (chain B and resid 5)
//	name C* and not hydrogen
//
// Atom names, residue names and segment identifiers accept shell-style patterns.
package sel

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	chem "github.com/rmera/mdrms"
)

// ErrSyntax is returned, wrapped, for selections that can't be parsed.
var ErrSyntax = errors.New("selection syntax error")

// Selection is a parsed atom selection.
type Selection struct {
	text string
	root node
}

// Parse parses text into a Selection.
func Parse(text string) (*Selection, error) {
	p := &parser{toks: tokenize(text), text: text}
	if len(p.toks) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrSyntax)
	}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, p.errorf("unexpected %q", p.toks[p.pos])
	}
	return &Selection{text: text, root: root}, nil
}

// MustParse is like Parse but panics on error. It is meant for selections
// known at compile time.
func MustParse(text string) *Selection {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the text the selection was parsed from.
func (S *Selection) String() string {
	return S.text
}

// Indexes returns the indexes of the atoms of top matched by the selection, in
// topology order. An empty result is not an error.
func (S *Selection) Indexes(top chem.Atomer) ([]int, error) {
	if top == nil {
		return nil, fmt.Errorf("selection %q: nil topology", S.text)
	}
	ret := make([]int, 0, top.Len())
	for i := 0; i < top.Len(); i++ {
		if S.root.match(top.Atom(i), i) {
			ret = append(ret, i)
		}
	}
	return ret, nil
}

// Matches returns true if the atom at with index i is selected.
func (S *Selection) Matches(at *chem.Atom, i int) bool {
	return S.root.match(at, i)
}

type node interface {
	match(at *chem.Atom, i int) bool
}

type andNode struct{ l, r node }

func (n andNode) match(at *chem.Atom, i int) bool { return n.l.match(at, i) && n.r.match(at, i) }

type orNode struct{ l, r node }

func (n orNode) match(at *chem.Atom, i int) bool { return n.l.match(at, i) || n.r.match(at, i) }

type notNode struct{ n node }

func (n notNode) match(at *chem.Atom, i int) bool { return !n.n.match(at, i) }

type funcNode func(at *chem.Atom, i int) bool

func (f funcNode) match(at *chem.Atom, i int) bool { return f(at, i) }

// patternNode matches a string attribute against a list of patterns.
type patternNode struct {
	attr     func(at *chem.Atom) string
	patterns []string
	fold     bool
}

func (n patternNode) match(at *chem.Atom, i int) bool {
	v := n.attr(at)
	if n.fold {
		v = strings.ToUpper(v)
	}
	for _, p := range n.patterns {
		if ok, _ := path.Match(p, v); ok {
			return true
		}
	}
	return false
}

// rangeNode matches an integer attribute against a list of closed intervals.
type rangeNode struct {
	attr   func(at *chem.Atom, i int) int
	ranges [][2]int
}

func (n rangeNode) match(at *chem.Atom, i int) bool {
	v := n.attr(at, i)
	for _, r := range n.ranges {
		if v >= r[0] && v <= r[1] {
			return true
		}
	}
	return false
}

var keywords = map[string]node{
	"all":      funcNode(func(*chem.Atom, int) bool { return true }),
	"none":     funcNode(func(*chem.Atom, int) bool { return false }),
	"protein":  funcNode(func(at *chem.Atom, _ int) bool { return chem.IsProteinRes(at.MolName) }),
	"water":    funcNode(func(at *chem.Atom, _ int) bool { return chem.IsWaterRes(at.MolName) }),
	"backbone": funcNode(func(at *chem.Atom, _ int) bool { return chem.IsBackbone(at) }),
	"hydrogen": funcNode(func(at *chem.Atom, _ int) bool { return chem.IsHydrogen(at) }),
	"noh":      funcNode(func(at *chem.Atom, _ int) bool { return !chem.IsHydrogen(at) }),
	"hetero":   funcNode(func(at *chem.Atom, _ int) bool { return at.Het }),
}

var stringAttrs = map[string]struct {
	get  func(at *chem.Atom) string
	fold bool
}{
	"name":    {func(at *chem.Atom) string { return at.Name }, false},
	"resname": {func(at *chem.Atom) string { return at.MolName }, false},
	"chain":   {func(at *chem.Atom) string { return at.Chain }, false},
	"segid":   {func(at *chem.Atom) string { return at.SegID }, false},
	"element": {func(at *chem.Atom) string { return at.Symbol }, true},
}

var intAttrs = map[string]func(at *chem.Atom, i int) int{
	"resid":  func(at *chem.Atom, _ int) int { return at.MolID },
	"index":  func(_ *chem.Atom, i int) int { return i },
	"serial": func(at *chem.Atom, _ int) int { return at.ID },
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(text, "(", " ( ")
	text = strings.ReplaceAll(text, ")", " ) ")
	return strings.Fields(text)
}

type parser struct {
	toks []string
	pos  int
	text string
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: selection %q, token %d: %s", ErrSyntax, p.text, p.pos+1, fmt.Sprintf(format, args...))
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return strings.ToLower(p.toks[p.pos])
}

func (p *parser) or() (node, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek() == "or" {
		p.pos++
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = orNode{l, r}
	}
	return l, nil
}

func (p *parser) and() (node, error) {
	l, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.peek() == "and" {
		p.pos++
		r, err := p.not()
		if err != nil {
			return nil, err
		}
		l = andNode{l, r}
	}
	return l, nil
}

func (p *parser) not() (node, error) {
	if p.peek() == "not" {
		p.pos++
		n, err := p.not()
		if err != nil {
			return nil, err
		}
		return notNode{n}, nil
	}
	return p.primary()
}

// isReserved returns true for the tokens that end a list of values.
func isReserved(tok string) bool {
	switch tok {
	case "and", "or", "not", "(", ")", "":
		return true
	}
	return false
}

func (p *parser) primary() (node, error) {
	tok := p.peek()
	switch {
	case tok == "":
		return nil, p.errorf("unexpected end of selection")
	case tok == "(":
		p.pos++
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return n, nil
	case keywords[tok] != nil:
		p.pos++
		return keywords[tok], nil
	}
	if a, ok := stringAttrs[tok]; ok {
		p.pos++
		vals := p.values()
		if len(vals) == 0 {
			return nil, p.errorf("%s needs at least one value", tok)
		}
		for i, v := range vals {
			if _, err := path.Match(v, ""); err != nil {
				return nil, p.errorf("bad pattern %q", v)
			}
			if a.fold {
				vals[i] = strings.ToUpper(v)
			}
		}
		return patternNode{attr: a.get, patterns: vals, fold: a.fold}, nil
	}
	if a, ok := intAttrs[tok]; ok {
		p.pos++
		vals := p.values()
		ranges, err := parseRanges(vals)
		if err != nil {
			return nil, p.errorf("%s: %s", tok, err.Error())
		}
		return rangeNode{attr: a, ranges: ranges}, nil
	}
	return nil, p.errorf("unknown keyword %q", p.toks[p.pos])
}

// values collects the tokens up to the next reserved word.
func (p *parser) values() []string {
	var ret []string
	for p.pos < len(p.toks) && !isReserved(p.peek()) {
		ret = append(ret, p.toks[p.pos])
		p.pos++
	}
	return ret
}

// parseRanges turns a list like "1 3 to 5 7:9" into closed intervals.
func parseRanges(vals []string) ([][2]int, error) {
	if len(vals) == 0 {
		return nil, errors.New("needs at least one value")
	}
	var ret [][2]int
	for i := 0; i < len(vals); i++ {
		v := vals[i]
		if strings.Contains(v, ":") {
			parts := strings.SplitN(v, ":", 2)
			a, err1 := strconv.Atoi(parts[0])
			b, err2 := strconv.Atoi(parts[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("bad range %q", v)
			}
			ret = append(ret, [2]int{a, b})
			continue
		}
		a, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", v)
		}
		if i+2 < len(vals) && strings.ToLower(vals[i+1]) == "to" {
			b, err := strconv.Atoi(vals[i+2])
			if err != nil {
				return nil, fmt.Errorf("bad number %q", vals[i+2])
			}
			ret = append(ret, [2]int{a, b})
			i += 2
			continue
		}
		ret = append(ret, [2]int{a, a})
	}
	return ret, nil
}
