// Package extract pulls flat records out of XML documents according to a
// static, declarative table of field rules.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bpextract/internal/xmltree"
)

// Common record fields filled from the selector's identity attributes.
const (
	FieldID   = "id"
	FieldName = "name"
	FieldKind = "kind"
)

// AttrRule copies one attribute into a record field. Element is a
// slash-separated path of local names below the record element; empty means
// the record element itself.
type AttrRule struct {
	Element string
	Attr    string
	Field   string
}

// TextRule copies the trimmed character data of an element into a field.
type TextRule struct {
	Element string
	Field   string
}

// PresenceRule sets Flag when Element exists, whatever its content.
type PresenceRule struct {
	Element string
	Flag    string
}

// ListRule turns every Element found below Container (or below the record
// element when Container is empty) into a child record stored under Field.
type ListRule struct {
	Container string
	Element   string
	Field     string
	Item      FieldSpec
}

// FieldSpec is the set of rules applied to one element.
type FieldSpec struct {
	Attrs    []AttrRule
	Texts    []TextRule
	Presence []PresenceRule
	Lists    []ListRule
}

// Selector picks the elements that become records. An element matches when
// its local name is Element and it carries every attribute in Require.
type Selector struct {
	Element  string
	IDAttr   string
	NameAttr string
	KindAttr string
	Require  []string
}

// CrossRef names an attribute whose distinct values are collected from
// every element, or only from elements named Element when set.
type CrossRef struct {
	Element string
	Attr    string
}

// Spec is a complete extraction table.
type Spec struct {
	Selector Selector
	Common   FieldSpec
	Kinds    map[string]FieldSpec
	CrossRef CrossRef
}

// Record is one matched element. Absent fields read as "".
type Record struct {
	Kind   string
	Fields map[string]string
	Flags  map[string]bool
	Lists  map[string][]Record
}

// Get returns the field value, or "" when the field was not found.
func (r Record) Get(field string) string {
	return r.Fields[field]
}

// Has reports whether the field was found in the document.
func (r Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Flag reports whether a presence rule for flag matched.
func (r Record) Flag(flag string) bool {
	return r.Flags[flag]
}

// List returns the child records stored under field.
func (r Record) List(field string) []Record {
	return r.Lists[field]
}

// Result holds records in document order and the referenced identifiers,
// deduplicated and sorted.
type Result struct {
	Records    []Record
	References []string
}

// Extract parses data and applies spec. Some exports carry the process
// markup escaped inside a text node; when nothing matches, text nodes that
// hold the selector element as markup are parsed as fragments and searched
// too. The rest of the document keeps its own escaping.
func Extract(data []byte, spec Spec) (*Result, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	res := ExtractTree(root, spec)
	if len(res.Records) > 0 {
		return res, nil
	}

	fragments, err := escapedFragments(root, spec.Selector.Element)
	if err != nil {
		return nil, fmt.Errorf("parsing escaped markup: %w", err)
	}
	if len(fragments) == 0 {
		return res, nil
	}
	return extractAll(append([]*xmltree.Node{root}, fragments...), spec), nil
}

var xmlDecl = regexp.MustCompile(`^\s*<\?xml[^>]*\?>`)

// escapedFragments parses the character data of every element whose text
// contains element as markup. Each fragment is wrapped in a synthetic root
// so several top-level elements parse as one tree.
func escapedFragments(root *xmltree.Node, element string) ([]*xmltree.Node, error) {
	if element == "" {
		return nil, nil
	}
	re := regexp.MustCompile(`<(?:[\w.-]+:)?` + regexp.QuoteMeta(element) + `[\s/>]`)

	var out []*xmltree.Node
	var err error
	root.Walk(func(n *xmltree.Node) bool {
		if err != nil {
			return false
		}
		text := n.Text()
		if !re.MatchString(text) {
			return true
		}
		var frag *xmltree.Node
		frag, err = xmltree.Parse([]byte("<fragment>" + xmlDecl.ReplaceAllString(text, "") + "</fragment>"))
		if err == nil {
			out = append(out, frag)
		}
		return true
	})
	return out, err
}

// ExtractTree applies spec to an already parsed tree.
func ExtractTree(root *xmltree.Node, spec Spec) *Result {
	return extractAll([]*xmltree.Node{root}, spec)
}

func extractAll(roots []*xmltree.Node, spec Spec) *Result {
	res := &Result{Records: []Record{}}
	refs := make(map[string]struct{})

	for _, root := range roots {
		root.Walk(func(n *xmltree.Node) bool {
			if ref := spec.CrossRef; ref.Attr != "" && (ref.Element == "" || n.Name.Local == ref.Element) {
				if v, ok := n.Attr(ref.Attr); ok && v != "" {
					refs[v] = struct{}{}
				}
			}
			if spec.Selector.matches(n) {
				res.Records = append(res.Records, RecordOf(n, spec))
			}
			return true
		})
	}

	res.References = make([]string, 0, len(refs))
	for v := range refs {
		res.References = append(res.References, v)
	}
	sort.Strings(res.References)
	return res
}

func (s Selector) matches(n *xmltree.Node) bool {
	if n.Name.Local != s.Element {
		return false
	}
	for _, attr := range s.Require {
		if _, ok := n.Attr(attr); !ok {
			return false
		}
	}
	return true
}

// RecordOf builds the record for n without checking the selector.
func RecordOf(n *xmltree.Node, spec Spec) Record {
	rec := newRecord()
	sel := spec.Selector
	for field, attr := range map[string]string{FieldID: sel.IDAttr, FieldName: sel.NameAttr, FieldKind: sel.KindAttr} {
		if attr == "" {
			continue
		}
		if v, ok := n.Attr(attr); ok {
			rec.Fields[field] = v
		}
	}
	rec.Kind = rec.Fields[FieldKind]

	apply(n, spec.Common, &rec)
	if fs, ok := spec.Kinds[rec.Kind]; ok {
		apply(n, fs, &rec)
	}
	return rec
}

func newRecord() Record {
	return Record{
		Fields: make(map[string]string),
		Flags:  make(map[string]bool),
		Lists:  make(map[string][]Record),
	}
}

func apply(n *xmltree.Node, fs FieldSpec, rec *Record) {
	for _, r := range fs.Attrs {
		el := lookup(n, r.Element)
		if el == nil {
			continue
		}
		if v, ok := el.Attr(r.Attr); ok {
			rec.Fields[r.Field] = v
		}
	}

	for _, r := range fs.Texts {
		if el := lookup(n, r.Element); el != nil {
			rec.Fields[r.Field] = strings.TrimSpace(el.Text())
		}
	}

	for _, r := range fs.Presence {
		if lookup(n, r.Element) != nil {
			rec.Flags[r.Flag] = true
		}
	}

	for _, r := range fs.Lists {
		items := []Record{}
		if scope := lookup(n, r.Container); scope != nil {
			for _, el := range scope.FindAll(r.Element) {
				item := newRecord()
				apply(el, r.Item, &item)
				items = append(items, item)
			}
		}
		rec.Lists[r.Field] = items
	}
}

// lookup follows a slash-separated path of first-descendant matches.
func lookup(n *xmltree.Node, path string) *xmltree.Node {
	if path == "" {
		return n
	}
	for _, step := range strings.Split(path, "/") {
		n = n.Find(step)
		if n == nil {
			return nil
		}
	}
	return n
}
