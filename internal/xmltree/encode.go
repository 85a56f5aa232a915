package xmltree

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// Declaration is written at the top of every standalone document.
const Declaration = `<?xml version="1.0" encoding="utf-8"?>`

// encoding/xml's EscapeText rewrites newlines as character references,
// which would flatten indentation of copied subtrees.
var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// WriteDocument writes n as a standalone document: the declaration, then n
// with every namespace declaration it inherits from its ancestors copied
// onto it, so prefixes survive unchanged.
func WriteDocument(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Declaration)
	bw.WriteByte('\n')
	writeNode(bw, n, inheritedDecls(n))
	bw.WriteByte('\n')
	return bw.Flush()
}

// String renders n without a declaration or inherited namespaces.
func (n *Node) String() string {
	var b strings.Builder
	bw := bufio.NewWriter(&b)
	writeNode(bw, n, nil)
	_ = bw.Flush()
	return b.String()
}

func writeNode(w *bufio.Writer, n *Node, extra []Attr) {
	switch n.Kind {
	case TextNode:
		textEscaper.WriteString(w, n.Data)
		return
	case CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
		return
	}

	w.WriteByte('<')
	w.WriteString(n.Name.String())
	for _, a := range extra {
		writeAttr(w, a)
	}
	for _, a := range n.Attrs {
		writeAttr(w, a)
	}
	if len(n.Children) == 0 {
		w.WriteString("/>")
		return
	}
	w.WriteByte('>')
	for _, c := range n.Children {
		writeNode(w, c, nil)
	}
	w.WriteString("</")
	w.WriteString(n.Name.String())
	w.WriteByte('>')
}

func writeAttr(w *bufio.Writer, a Attr) {
	w.WriteByte(' ')
	w.WriteString(a.Name.String())
	w.WriteString(`="`)
	attrEscaper.WriteString(w, a.Value)
	w.WriteByte('"')
}

// inheritedDecls returns declarations for prefixes used inside n that are
// declared on an ancestor rather than on n itself, sorted by prefix.
func inheritedDecls(n *Node) []Attr {
	if n.Parent == nil {
		return nil
	}
	declared := make(map[string]bool)
	for _, a := range n.Attrs {
		if a.Name.Prefix == "xmlns" {
			declared[a.Name.Local] = true
		} else if a.IsNamespaceDecl() {
			declared[""] = true
		}
	}

	used := make(map[string]bool)
	n.Walk(func(e *Node) bool {
		used[e.Name.Prefix] = true
		for _, a := range e.Attrs {
			if !a.IsNamespaceDecl() && a.Name.Prefix != "" {
				used[a.Name.Prefix] = true
			}
		}
		return true
	})

	prefixes := make([]string, 0, len(used))
	for p := range used {
		if p != "xml" && !declared[p] {
			prefixes = append(prefixes, p)
		}
	}
	sort.Strings(prefixes)

	var out []Attr
	for _, p := range prefixes {
		uri, ok := n.Parent.LookupNamespace(p)
		if !ok {
			continue
		}
		if p == "" {
			if uri != "" {
				out = append(out, Attr{Name: Name{Local: "xmlns"}, Value: uri})
			}
			continue
		}
		out = append(out, Attr{Name: Name{Prefix: "xmlns", Local: p}, Value: uri})
	}
	return out
}
