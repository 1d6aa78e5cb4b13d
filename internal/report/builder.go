package report

import (
	"github.com/andthens/BluePrint/internal/schema"
	"github.com/andthens/BluePrint/internal/sif"
	"github.com/beevik/etree"
	"github.com/samber/lo"
)

// NotAvailable is written for attributes that are absent or empty.
const NotAvailable = "N/A"

// Table is one run of matching elements of a node type that share a
// structural parent.
type Table struct {
	NodeType  string     `json:"node_type" yaml:"node_type"`
	ParentKey string     `json:"parent" yaml:"parent"`
	ParentID  int        `json:"parent_id" yaml:"parent_id"`
	Header    []string   `json:"header" yaml:"header"`
	Rows      [][]string `json:"rows" yaml:"rows"`
}

// Report is the outcome of a build: the resolved context and its tables.
type Report struct {
	Context  string   `json:"context" yaml:"context"`
	Kind     string   `json:"kind" yaml:"kind"`
	Layout   string   `json:"layout" yaml:"layout"`
	Heading  string   `json:"heading" yaml:"heading"`
	Criteria Criteria `json:"criteria" yaml:"criteria"`
	Tables   []Table  `json:"tables" yaml:"tables"`
}

// RowCount returns the number of data rows across all tables.
func (r *Report) RowCount() int {
	return lo.SumBy(r.Tables, func(t Table) int { return len(t.Rows) })
}

// Generate resolves the root object of the tree and builds its report.
// It returns ErrNoSchema when no root object is recognized and
// ErrEmptyResult when nothing matched.
func Generate(tree *sif.Tree, layout schema.Layout, c Criteria) (*Report, error) {
	ctx, ok := schema.Resolve(tree, layout)
	if !ok {
		return nil, ErrNoSchema
	}
	tables, err := Build(tree, ctx, c)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, ErrEmptyResult
	}
	return &Report{
		Context:  ctx.Name,
		Kind:     ctx.Kind.Label(),
		Layout:   string(ctx.Layout),
		Heading:  ctx.Heading(),
		Criteria: c,
		Tables:   tables,
	}, nil
}

// Build projects the tree onto the context's schema groups. For each group,
// elements of the node type are scanned in document order; matches are
// collected into tables, a new table starting whenever the parent element
// differs from the one the open table was started for. Tables without rows
// are never returned.
func Build(tree *sif.Tree, ctx *schema.Context, c Criteria) ([]Table, error) {
	var tables []Table
	for _, g := range ctx.Groups {
		var open *Table
		flush := func() {
			if open != nil && len(open.Rows) > 0 {
				tables = append(tables, *open)
			}
			open = nil
		}

		for _, el := range tree.FindAll(g.NodeType) {
			ok, err := c.Matches(el)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			parent := tree.Parent(el)
			parentID := tree.ID(parent)
			if open == nil || open.ParentID != parentID {
				flush()
				open = &Table{
					NodeType:  g.NodeType,
					ParentKey: parentKey(parent),
					ParentID:  parentID,
					Header:    append([]string(nil), g.Attributes...),
				}
			}

			row := make([]string, len(g.Attributes))
			for i, attr := range g.Attributes {
				row[i] = valueOr(sif.Attr(el, attr), NotAvailable)
			}
			open.Rows = append(open.Rows, row)
		}
		flush()
	}
	return tables, nil
}

func parentKey(parent *etree.Element) string {
	return valueOr(sif.Attr(parent, "NAME"), NotAvailable)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
