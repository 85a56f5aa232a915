// Package xmltree parses XML into a lightweight element tree that keeps
// namespace prefixes as written, so subtrees can be written back out as
// standalone documents.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"bpextract/internal/domain"
)

// xmlNamespace is bound to the xml prefix by definition.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NodeKind distinguishes elements from character data and comments.
type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
)

// Name is a possibly prefixed XML name. Prefix is the literal prefix from
// the source document, not a resolved namespace URI.
type Name struct {
	Prefix string
	Local  string
}

func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Attr is one attribute of an element, namespace declarations included.
type Attr struct {
	Name  Name
	Value string
}

// IsNamespaceDecl reports whether the attribute is an xmlns declaration.
func (a Attr) IsNamespaceDecl() bool {
	return a.Name.Prefix == "xmlns" || (a.Name.Prefix == "" && a.Name.Local == "xmlns")
}

// Node is an element, text or comment in the tree.
type Node struct {
	Kind     NodeKind
	Name     Name
	Attrs    []Attr
	Children []*Node
	Data     string
	Parent   *Node
}

// Parse reads a whole document and returns its root element. Markup that
// does not nest or terminate correctly fails with domain.ErrParseFailure.
func Parse(data []byte) (*Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel

	var root *Node
	var stack []*Node
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Kind: ElementNode, Name: Name{Prefix: t.Name.Space, Local: t.Name.Local}}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: Name{Prefix: a.Name.Space, Local: a.Name.Local}, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, parseError(d, "second root element <%s>", n.Name)
				}
				root = n
			} else {
				stack[len(stack)-1].appendChild(n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := Name{Prefix: t.Name.Space, Local: t.Name.Local}
			if len(stack) == 0 {
				return nil, parseError(d, "unexpected </%s>", name)
			}
			top := stack[len(stack)-1]
			if top.Name != name {
				return nil, parseError(d, "element <%s> closed by </%s>", top.Name, name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, parseError(d, "text outside the root element")
				}
				continue
			}
			stack[len(stack)-1].appendText(string(t))

		case xml.Comment:
			if len(stack) > 0 {
				stack[len(stack)-1].appendChild(&Node{Kind: CommentNode, Data: string(t)})
			}
		}
	}

	if len(stack) > 0 {
		return nil, parseError(d, "element <%s> is never closed", stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", domain.ErrParseFailure)
	}
	return root, nil
}

func parseError(d *xml.Decoder, format string, args ...any) error {
	line, col := d.InputPos()
	return fmt.Errorf("%w: line %d col %d: %s", domain.ErrParseFailure, line, col, fmt.Sprintf(format, args...))
}

func (n *Node) appendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// appendText merges adjacent character data (CDATA arrives as its own token).
func (n *Node) appendText(s string) {
	if k := len(n.Children); k > 0 && n.Children[k-1].Kind == TextNode {
		n.Children[k-1].Data += s
		return
	}
	n.appendChild(&Node{Kind: TextNode, Data: s})
}

// Attr returns the value of the first non-declaration attribute with the
// given local name, ignoring its prefix.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local && !a.IsNamespaceDecl() {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the character data directly inside n.
func (n *Node) Text() string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Walk visits n and its descendant elements in document order. Returning
// false from fn skips the children of the visited element.
func (n *Node) Walk(fn func(*Node) bool) {
	if n.Kind != ElementNode {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first descendant element of n (n excluded) with the
// given local name.
func (n *Node) Find(local string) *Node {
	var found *Node
	for _, c := range n.Children {
		c.Walk(func(e *Node) bool {
			if found != nil {
				return false
			}
			if e.Name.Local == local {
				found = e
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant element of n (n excluded) with the given
// local name, in document order. Matches nested in other matches are
// included.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(e *Node) bool {
			if e.Name.Local == local {
				out = append(out, e)
			}
			return true
		})
	}
	return out
}

// FindOutermost is FindAll without matches nested inside other matches.
// n itself is considered.
func (n *Node) FindOutermost(local string) []*Node {
	var out []*Node
	n.Walk(func(e *Node) bool {
		if e.Name.Local == local {
			out = append(out, e)
			return false
		}
		return true
	})
	return out
}

// LookupNamespace resolves a prefix against the declarations on n and its
// ancestors. The empty prefix resolves the default namespace.
func (n *Node) LookupNamespace(prefix string) (string, bool) {
	if prefix == "xml" {
		return xmlNamespace, true
	}
	for e := n; e != nil; e = e.Parent {
		for _, a := range e.Attrs {
			if !a.IsNamespaceDecl() {
				continue
			}
			if (prefix == "" && a.Name.Prefix == "") || (a.Name.Prefix == "xmlns" && a.Name.Local == prefix) {
				return a.Value, true
			}
		}
	}
	return "", false
}

// NamespaceURI returns the namespace n belongs to, or "" when unqualified.
func (n *Node) NamespaceURI() string {
	uri, _ := n.LookupNamespace(n.Name.Prefix)
	return uri
}
