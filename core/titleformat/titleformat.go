// Package titleformat compiles and evaluates bracketed field lookup expressions
// such as "[%play_count%]" or "%artist% - [%album%]".
//
// Supported syntax:
//
//	%name%     field reference, case-insensitive; renders "?" when missing
//	'text'     quoted literal ('' is a single quote)
//	[ ... ]    conditional section, rendered only if a field inside it resolved
//
// Anything else is literal text. Functions ($if, $left, ...) are not supported.
package titleformat

import (
	"fmt"
	"strings"
)

// Lookup resolves field names against a single track.
type Lookup interface {
	Field(name string) (string, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(name string) (string, bool)

// Field implements Lookup.
func (f LookupFunc) Field(name string) (string, bool) { return f(name) }

// SyntaxError is returned by Compile for malformed expressions.
type SyntaxError struct {
	Source string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("titleformat: %s at offset %d in %q", e.Msg, e.Offset, e.Source)
}

type nodeKind int

const (
	literalNode nodeKind = iota
	fieldNode
	sectionNode
)

type node struct {
	kind     nodeKind
	text     string // literal text or lower-cased field name
	children []node
}

// Script is a compiled expression. It is immutable and safe for concurrent use.
type Script struct {
	source string
	nodes  []node
}

// Compile parses source into a Script.
func Compile(source string) (*Script, error) {
	p := parser{src: source}
	nodes, err := p.parse(false)
	if err != nil {
		return nil, err
	}
	return &Script{source: source, nodes: nodes}, nil
}

// MustCompile is like Compile but panics on error. It is meant for constant expressions.
func MustCompile(source string) *Script {
	s, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return s
}

// Source returns the text the script was compiled from.
func (s *Script) Source() string { return s.source }

// Format evaluates the script. It never fails; unresolved sections render as "".
func (s *Script) Format(l Lookup) string {
	var b strings.Builder
	evalNodes(&b, s.nodes, l)
	return b.String()
}

func evalNodes(b *strings.Builder, nodes []node, l Lookup) bool {
	resolved := false
	for _, n := range nodes {
		switch n.kind {
		case literalNode:
			b.WriteString(n.text)
		case fieldNode:
			if v, ok := l.Field(n.text); ok {
				b.WriteString(v)
				resolved = true
			} else {
				b.WriteByte('?')
			}
		case sectionNode:
			var inner strings.Builder
			if evalNodes(&inner, n.children, l) {
				b.WriteString(inner.String())
				resolved = true
			}
		}
	}
	return resolved
}

type parser struct {
	src string
	pos int
}

func (p *parser) parse(inSection bool) ([]node, error) {
	var nodes []node
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, node{kind: literalNode, text: lit.String()})
			lit.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '%':
			start := p.pos
			end := strings.IndexByte(p.src[p.pos+1:], '%')
			if end < 0 {
				return nil, &SyntaxError{Source: p.src, Offset: start, Msg: "unterminated field reference"}
			}
			name := p.src[p.pos+1 : p.pos+1+end]
			if name == "" {
				return nil, &SyntaxError{Source: p.src, Offset: start, Msg: "empty field name"}
			}
			flush()
			nodes = append(nodes, node{kind: fieldNode, text: strings.ToLower(name)})
			p.pos += end + 2
		case '\'':
			start := p.pos
			p.pos++
			if p.pos < len(p.src) && p.src[p.pos] == '\'' {
				lit.WriteByte('\'')
				p.pos++
				continue
			}
			end := strings.IndexByte(p.src[p.pos:], '\'')
			if end < 0 {
				return nil, &SyntaxError{Source: p.src, Offset: start, Msg: "unterminated quoted literal"}
			}
			lit.WriteString(p.src[p.pos : p.pos+end])
			p.pos += end + 1
		case '[':
			start := p.pos
			p.pos++
			flush()
			children, err := p.parse(true)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.src) || p.src[p.pos] != ']' {
				return nil, &SyntaxError{Source: p.src, Offset: start, Msg: "unclosed section"}
			}
			p.pos++
			nodes = append(nodes, node{kind: sectionNode, children: children})
		case ']':
			if !inSection {
				return nil, &SyntaxError{Source: p.src, Offset: p.pos, Msg: "unexpected ']'"}
			}
			flush()
			return nodes, nil
		case '$':
			return nil, &SyntaxError{Source: p.src, Offset: p.pos, Msg: "functions are not supported"}
		default:
			lit.WriteByte(c)
			p.pos++
		}
	}
	flush()
	return nodes, nil
}
