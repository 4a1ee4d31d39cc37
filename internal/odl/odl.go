// Package odl parses the Object Description Language text stored in the
// StructMetadata attributes of HDF-EOS files.
package odl

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("odl: syntax error")

// Kind distinguishes GROUP and OBJECT blocks.
type Kind int

const (
	Root Kind = iota
	Group
	Object
)

func (k Kind) String() string {
	switch k {
	case Group:
		return "GROUP"
	case Object:
		return "OBJECT"
	}
	return "ROOT"
}

// Attr is one KEY=VALUE statement, with the value kept as written.
type Attr struct {
	Key   string
	Value string
}

// Node is a GROUP or OBJECT block, or the document root.
type Node struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Children []*Node
}

// Parse reads an ODL document. Trailing NUL padding is ignored, as is
// anything after the END statement.
func Parse(text string) (*Node, error) {
	text = strings.TrimRight(text, "\x00")
	root := &Node{Kind: Root}
	stack := []*Node{root}

	stmts, err := statements(text)
	if err != nil {
		return nil, err
	}
	for _, st := range stmts {
		if st.key == "END" && st.value == "" {
			break
		}
		top := stack[len(stack)-1]
		switch st.key {
		case "GROUP", "OBJECT":
			kind := Group
			if st.key == "OBJECT" {
				kind = Object
			}
			n := &Node{Kind: kind, Name: unquote(st.value)}
			top.Children = append(top.Children, n)
			stack = append(stack, n)
		case "END_GROUP", "END_OBJECT":
			want := Group
			if st.key == "END_OBJECT" {
				want = Object
			}
			name := unquote(st.value)
			if len(stack) == 1 || top.Kind != want || (name != "" && name != top.Name) {
				return nil, fmt.Errorf("%w: line %d: %s=%s closes %s=%s", ErrSyntax, st.line, st.key, name, top.Kind, top.Name)
			}
			stack = stack[:len(stack)-1]
		default:
			top.Attrs = append(top.Attrs, Attr{Key: st.key, Value: st.value})
		}
	}
	if len(stack) != 1 {
		top := stack[len(stack)-1]
		return nil, fmt.Errorf("%w: unterminated %s=%s", ErrSyntax, top.Kind, top.Name)
	}
	return root, nil
}

type statement struct {
	key, value string
	line       int
}

// statements splits the text into KEY=VALUE statements, joining values whose
// parentheses span several lines.
func statements(text string) ([]statement, error) {
	var (
		out   []statement
		cur   *statement
		depth int
	)
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		if cur != nil {
			cur.value += s
			depth += strings.Count(s, "(") - strings.Count(s, ")")
			if depth <= 0 {
				out = append(out, *cur)
				cur, depth = nil, 0
			}
			continue
		}
		key, value, found := strings.Cut(s, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !found {
			if key == "END" {
				out = append(out, statement{key: key, line: line})
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %q", ErrSyntax, line, s)
		}
		st := statement{key: key, value: value, line: line}
		if depth = strings.Count(value, "(") - strings.Count(value, ")"); depth > 0 {
			cur = &st
			continue
		}
		depth = 0
		out = append(out, st)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("%w: line %d: unbalanced parentheses in %s", ErrSyntax, cur.line, cur.key)
	}
	return out, nil
}

// Child returns the first child block with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Raw returns the value of key as written.
func (n *Node) Raw(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the value of key with surrounding quotes removed.
func (n *Node) Text(key string) (string, bool) {
	v, ok := n.Raw(key)
	return unquote(v), ok
}

// Int parses the value of key as an integer.
func (n *Node) Int(key string) (int, error) {
	v, ok := n.Raw(key)
	if !ok {
		return 0, fmt.Errorf("odl: %s: missing %s", n.Name, key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("odl: %s: %s=%s: %w", n.Name, key, v, err)
	}
	return i, nil
}

// Floats parses a parenthesized list of numbers such as
// "(-20015109.354,10007554.677)".
func (n *Node) Floats(key string) ([]float64, error) {
	v, ok := n.Raw(key)
	if !ok {
		return nil, fmt.Errorf("odl: %s: missing %s", n.Name, key)
	}
	items := list(v)
	out := make([]float64, len(items))
	for i, s := range items {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("odl: %s: %s=%s: %w", n.Name, key, v, err)
		}
		out[i] = f
	}
	return out, nil
}

// Strings parses a parenthesized list of quoted strings such as
// ("YDim","XDim"). A single unparenthesized value yields one element.
func (n *Node) Strings(key string) ([]string, bool) {
	v, ok := n.Raw(key)
	if !ok {
		return nil, false
	}
	items := list(v)
	for i, s := range items {
		items[i] = unquote(s)
	}
	return items, true
}

func list(v string) []string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "(")
	v = strings.TrimSuffix(v, ")")
	if strings.TrimSpace(v) == "" {
		return nil
	}
	items := strings.Split(v, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
