package cmd

import (
	"strings"

	"github.com/andthens/BluePrint/internal/render"
	"github.com/andthens/BluePrint/internal/report"
	"github.com/andthens/BluePrint/internal/schema"
	"github.com/spf13/cobra"
)

// reportFlags are the report options shared by report and watch.
type reportFlags struct {
	format   string
	layout   string
	after    string
	author   string
	comments string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "output format: "+strings.Join(render.Formats, ", ")+" (default DEFAULT_FORMAT)")
	fl.StringVar(&f.layout, "layout", "", "schema layout: changes, blueprint (default DEFAULT_LAYOUT)")
	fl.StringVar(&f.after, "after", "", "only elements updated after this date (YYYY-MM-DD)")
	fl.StringVar(&f.author, "author", "", "only elements last updated by this user")
	fl.StringVar(&f.comments, "comments", "", "only elements whose comments contain this text")
}

// resolve applies configuration defaults and validates the flags.
func (f *reportFlags) resolve() (format string, layout schema.Layout, c report.Criteria, err error) {
	format = f.format
	if format == "" {
		format = cfg.DefaultFormat
	}
	if _, err = render.ForFormat(format); err != nil {
		return "", "", report.Criteria{}, err
	}
	name := f.layout
	if name == "" {
		name = cfg.DefaultLayout
	}
	if layout, err = schema.ParseLayout(name); err != nil {
		return "", "", report.Criteria{}, err
	}
	if c, err = report.NewCriteria(f.after, f.author, f.comments); err != nil {
		return "", "", report.Criteria{}, err
	}
	return format, layout, c, nil
}
