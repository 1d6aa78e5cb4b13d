package schema

import (
	"fmt"
	"strings"

	"github.com/andthens/BluePrint/internal/sif"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is a recognized root object type of a repository export.
type Kind int

const (
	Applet Kind = iota
	BusinessComponent
	IntegrationObject
	WorkflowProcess
)

// Priority is the order in which root tags are looked up. The first one
// present in the export wins.
var Priority = []Kind{Applet, BusinessComponent, IntegrationObject, WorkflowProcess}

var kindTags = map[Kind]string{
	Applet:            "APPLET",
	BusinessComponent: "BUSINESS_COMPONENT",
	IntegrationObject: "INTEGRATION_OBJECT",
	WorkflowProcess:   "WORKFLOW_PROCESS",
}

// Tag returns the XML tag of the root object.
func (k Kind) Tag() string {
	return kindTags[k]
}

// Label returns a display name, e.g. "Business Component".
func (k Kind) Label() string {
	words := strings.ReplaceAll(strings.ToLower(k.Tag()), "_", " ")
	return cases.Title(language.English).String(words)
}

func (k Kind) String() string {
	return k.Tag()
}

// Layout selects one of the fixed schema tables.
type Layout string

const (
	// LayoutChanges reviews change metadata (UPDATED, UPDATED_BY, COMMENTS).
	LayoutChanges Layout = "changes"
	// LayoutBlueprint documents the object structure itself.
	LayoutBlueprint Layout = "blueprint"
)

// Layouts lists the available layouts, default first.
var Layouts = []Layout{LayoutChanges, LayoutBlueprint}

// ParseLayout maps a user-supplied name to a Layout. An empty name yields
// LayoutChanges.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutChanges:
		return LayoutChanges, nil
	case LayoutBlueprint:
		return LayoutBlueprint, nil
	default:
		return "", fmt.Errorf("unknown layout: %q", s)
	}
}

// Group is one table shape: the node type to scan and the attributes that
// become its columns, in column order.
type Group struct {
	NodeType   string
	Attributes []string
}

// Context is the resolved root object of an export.
type Context struct {
	Kind   Kind
	Name   string
	Layout Layout
	Groups []Group
}

// Heading returns the report title for the context.
func (c *Context) Heading() string {
	if suffix := headingSuffix[c.Layout][c.Kind]; suffix != "" {
		return c.Name + ": " + suffix
	}
	return c.Name
}

// NodeTypes returns the group node types in schema order.
func (c *Context) NodeTypes() []string {
	return lo.Map(c.Groups, func(g Group, _ int) string { return g.NodeType })
}

// Resolve finds the first root object present in the tree, in Priority
// order, and returns its context. It returns false when the export holds
// none of the recognized root objects.
func Resolve(tree *sif.Tree, layout Layout) (*Context, bool) {
	for _, kind := range Priority {
		el := tree.Find(kind.Tag())
		if el == nil {
			continue
		}
		return &Context{
			Kind:   kind,
			Name:   sif.Attr(el, "NAME"),
			Layout: layout,
			Groups: Groups(layout, kind),
		}, true
	}
	return nil, false
}

// Groups returns a copy of the schema table for a layout and root kind.
func Groups(layout Layout, kind Kind) []Group {
	src, ok := layouts[layout]
	if !ok {
		src = layouts[LayoutChanges]
	}
	groups := make([]Group, 0, len(src[kind]))
	for _, g := range src[kind] {
		groups = append(groups, Group{
			NodeType:   g.NodeType,
			Attributes: append([]string(nil), g.Attributes...),
		})
	}
	return groups
}
