// Package split writes each selected element of a combined export to its own
// standalone XML document.
package split

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"bpextract/internal/domain"
	"bpextract/internal/xmltree"
)

// BluePrismNamespaces are the namespaces searched for nested id and name
// elements.
var BluePrismNamespaces = map[string]string{
	"bpr": "http://www.blueprism.co.uk/product/release",
	"bp":  "http://www.blueprism.co.uk/product/process",
	"bpm": "http://www.bp.com/bpm",
}

// Selector picks the elements to split out. With Container set, every
// element child of the first element named Container is taken (only those
// named Element when it is also set). Otherwise every outermost element
// named Element is taken.
type Selector struct {
	Container string
	Element   string
}

// IDStrategy names the file for n. count is the number of elements already
// handled in this run.
type IDStrategy func(n *xmltree.Node, count int) string

// Options controls where documents are written.
type Options struct {
	OutputDir string
	// Group replaces the element's local name as the subdirectory. "."
	// writes straight into OutputDir.
	Group      string
	FilePrefix string
	IDStrategy IDStrategy
	// Namespaces overrides BluePrismNamespaces for the default strategy.
	Namespaces map[string]string
}

// Split writes one document per selected element and returns the written
// paths in document order. Elements that share an id are written to the
// same path, so the last one wins and the path is listed once per write.
// A failed write does not stop the others: the result holds every path that
// was written and the error joins the individual failures.
//
// If data is not well-formed and sel.Element is set, the elements are cut
// out of the raw text instead; see scanElements.
func Split(data []byte, sel Selector, opts Options) (*domain.SplitResult, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		if sel.Element == "" {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		return splitRaw(data, sel.Element, opts)
	}

	targets, err := selectElements(root, sel)
	if err != nil {
		return nil, err
	}

	idOf := opts.IDStrategy
	if idOf == nil {
		ns := opts.Namespaces
		if ns == nil {
			ns = BluePrismNamespaces
		}
		idOf = NamespacedID(ns)
	}

	res := &domain.SplitResult{Paths: make([]string, 0, len(targets))}
	var errs []error
	for i, n := range targets {
		path := outputPath(opts, n.Name.Local, idOf(n, i))
		if err := writeFile(path, func(buf *bytes.Buffer) error {
			return xmltree.WriteDocument(buf, n)
		}); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Paths = append(res.Paths, path)
	}
	return res, errors.Join(errs...)
}

func selectElements(root *xmltree.Node, sel Selector) ([]*xmltree.Node, error) {
	if sel.Container == "" {
		return root.FindOutermost(sel.Element), nil
	}

	container := root
	if root.Name.Local != sel.Container {
		container = root.Find(sel.Container)
	}
	if container == nil {
		return nil, fmt.Errorf("%w: <%s>", domain.ErrContainerNotFound, sel.Container)
	}

	children := container.Elements()
	if sel.Element == "" {
		return children, nil
	}
	var out []*xmltree.Node
	for _, c := range children {
		if c.Name.Local == sel.Element {
			out = append(out, c)
		}
	}
	return out, nil
}

// DefaultID names an element after its id or name attribute, then after the
// first nested id or name element in a Blue Prism namespace.
func DefaultID(n *xmltree.Node, count int) string {
	return NamespacedID(BluePrismNamespaces)(n, count)
}

// NamespacedID is DefaultID with a custom namespace set. Nested elements
// without a namespace always qualify.
func NamespacedID(namespaces map[string]string) IDStrategy {
	known := make(map[string]bool, len(namespaces)+1)
	known[""] = true
	for _, uri := range namespaces {
		known[uri] = true
	}

	return func(n *xmltree.Node, count int) string {
		for _, attr := range []string{"id", "name"} {
			if v, ok := n.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
		for _, local := range []string{"id", "name"} {
			if v := nestedText(n, local, known); v != "" {
				return v
			}
		}
		return unknownID(count)
	}
}

func nestedText(n *xmltree.Node, local string, known map[string]bool) string {
	for _, e := range n.FindAll(local) {
		if !known[e.NamespaceURI()] {
			continue
		}
		if v := strings.TrimSpace(e.Text()); v != "" {
			return v
		}
	}
	return ""
}

func unknownID(count int) string {
	return "unknown_" + strconv.Itoa(count)
}

// Sanitize makes id usable as a file name by replacing whitespace and path
// separators with underscores.
func Sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, id)
}

func outputPath(opts Options, local, id string) string {
	group := opts.Group
	if group == "" {
		group = local
	}
	return filepath.Join(opts.OutputDir, group, opts.FilePrefix+Sanitize(id)+".xml")
}

func writeFile(path string, render func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	return nil
}
