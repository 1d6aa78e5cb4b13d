package sif

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// SupportedExtensions lists file extensions accepted as repository exports.
var SupportedExtensions = map[string]bool{
	".sif": true,
	".xml": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ErrMalformed marks input that is not a well-formed XML document.
var ErrMalformed = errors.New("malformed xml")

// Tree is a parsed repository export. It is read-only once Parse returns
// and is owned by the request that parsed it.
type Tree struct {
	doc *etree.Document

	// ids numbers every element in document (pre-order) order.
	ids map[*etree.Element]int
	// byTag holds elements per tag, in document order.
	byTag map[string][]*etree.Element
}

// Parse reads an XML export. Encodings other than UTF-8 (Siebel Tools writes
// windows-1252 by default) are decoded through the declared charset.
func Parse(r io.Reader) (*Tree, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrMalformed)
	}

	t := &Tree{
		doc:   doc,
		ids:   make(map[*etree.Element]int),
		byTag: make(map[string][]*etree.Element),
	}
	// The document element gets ID 0 but is not a descendant, so Find and
	// FindAll never return it.
	root := doc.Root()
	t.ids[root] = 0
	for _, c := range root.ChildElements() {
		t.index(c)
	}
	return t, nil
}

// index walks a subtree depth-first. etree's own "//" selector is
// breadth-first, so lookups go through this index to keep document order.
func (t *Tree) index(el *etree.Element) {
	t.ids[el] = len(t.ids)
	t.byTag[el.Tag] = append(t.byTag[el.Tag], el)
	for _, c := range el.ChildElements() {
		t.index(c)
	}
}

// Root returns the document element.
func (t *Tree) Root() *etree.Element {
	return t.doc.Root()
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int {
	return len(t.ids)
}

// Find returns the first descendant of the document element with the given
// tag, or nil.
func (t *Tree) Find(tag string) *etree.Element {
	els := t.byTag[tag]
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// FindAll returns every descendant of the document element with the given
// tag in document order,
// regardless of nesting depth. The returned slice must not be modified.
func (t *Tree) FindAll(tag string) []*etree.Element {
	return t.byTag[tag]
}

// Attr returns the attribute value, or "" when the attribute is not set.
func Attr(el *etree.Element, name string) string {
	if el == nil {
		return ""
	}
	return el.SelectAttrValue(name, "")
}

// Parent returns the structural parent element of el, or nil for the
// document element.
func (t *Tree) Parent(el *etree.Element) *etree.Element {
	p := el.Parent()
	if p == nil {
		return nil
	}
	if _, ok := t.ids[p]; !ok {
		// The document node itself is not an element of the export.
		return nil
	}
	return p
}

// ID returns the pre-order identifier of el, or -1 when el is nil or does
// not belong to this tree.
func (t *Tree) ID(el *etree.Element) int {
	if el == nil {
		return -1
	}
	id, ok := t.ids[el]
	if !ok {
		return -1
	}
	return id
}
