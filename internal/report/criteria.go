package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/andthens/BluePrint/internal/sif"
	"github.com/beevik/etree"
)

const (
	// FilterDateLayout is the format of the after-date filter (date picker).
	FilterDateLayout = "2006-01-02"
	// ElementDateLayout is the date part of Siebel UPDATED stamps,
	// e.g. "01/15/2023 10:22:41".
	ElementDateLayout = "1/2/2006"
)

// Criteria selects the elements that go into a report. Every criterion that
// is set must hold; zero values impose no constraint.
type Criteria struct {
	AfterDate *time.Time `json:"after_date,omitempty" yaml:"after_date,omitempty"`
	Author    string     `json:"author,omitempty" yaml:"author,omitempty"`
	Comments  string     `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// NewCriteria builds criteria from raw caller input. An after-date that is
// not a valid YYYY-MM-DD calendar date yields ErrInvalidDateFilter.
func NewCriteria(afterDate, author, comments string) (Criteria, error) {
	c := Criteria{
		Author:   author,
		Comments: comments,
	}
	if afterDate = strings.TrimSpace(afterDate); afterDate != "" {
		d, err := time.Parse(FilterDateLayout, afterDate)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: %q", ErrInvalidDateFilter, afterDate)
		}
		c.AfterDate = &d
	}
	return c, nil
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.AfterDate == nil && c.Author == "" && c.Comments == ""
}

// Matches reports whether el satisfies every criterion that is set.
//
// An element without an UPDATED stamp passes the date criterion. An UPDATED
// stamp whose date part does not parse is an *ElementDateError.
func (c Criteria) Matches(el *etree.Element) (bool, error) {
	if c.AfterDate != nil {
		if updated := sif.Attr(el, "UPDATED"); updated != "" {
			datePart, _, _ := strings.Cut(updated, " ")
			d, err := time.Parse(ElementDateLayout, datePart)
			if err != nil {
				return false, &ElementDateError{
					NodeType: el.Tag,
					Name:     sif.Attr(el, "NAME"),
					Value:    updated,
					Err:      err,
				}
			}
			if !d.After(*c.AfterDate) {
				return false, nil
			}
		}
	}
	if c.Author != "" && sif.Attr(el, "UPDATED_BY") != c.Author {
		return false, nil
	}
	if c.Comments != "" && !strings.Contains(sif.Attr(el, "COMMENTS"), c.Comments) {
		return false, nil
	}
	return true, nil
}
