package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andthens/BluePrint/internal/render"
	"github.com/andthens/BluePrint/internal/report"
	"github.com/andthens/BluePrint/internal/schema"
	"github.com/andthens/BluePrint/internal/sif"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	reportOpts   reportFlags
	reportOut    string
	reportOutDir string
)

var reportCmd = &cobra.Command{
	Use:   "report FILE|PATTERN...",
	Short: "Build reports from export files",
	Long: `Build a report for each export file. Arguments may be glob patterns,
including "**" for recursive matches.

With a single input, --out names the result ("-" writes to stdout).
Otherwise each report is written to --out-dir as <name>-report.<ext>; inputs
sharing a name get a numeric suffix (<name>-report-2.<ext>).

Examples:
  blueprint report Account.sif --after 2023-01-01 --out changes.docx
  blueprint report "exports/**/*.sif" --author SADMIN --format md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	reportOpts.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", `output file for a single input ("-" for stdout)`)
	reportCmd.Flags().StringVar(&reportOutDir, "out-dir", "", "output directory (default OUTPUT_DIR)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	format, layout, criteria, err := reportOpts.resolve()
	if err != nil {
		return err
	}
	r, err := render.ForFormat(format)
	if err != nil {
		return err
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}
	if reportOut != "" && len(inputs) != 1 {
		return fmt.Errorf("--out needs exactly one input, got %d", len(inputs))
	}
	outDir := reportOutDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	outputs := []string{reportOut}
	if reportOut == "" {
		outputs = outputPaths(inputs, outDir, r.Extension())
	}

	var failed int
	for i, in := range inputs {
		out := outputs[i]
		log := logger.With("input", in, "output", out)

		rep, err := buildFile(in, layout, criteria)
		if err != nil {
			failed++
			if report.IsNoData(err) {
				log.Warn("no matching data", "reason", err)
			} else {
				log.Error("report failed", "error", err)
			}
			continue
		}
		if err := writeTo(out, r, rep, cmd.OutOrStdout()); err != nil {
			failed++
			log.Error("write failed", "error", err)
			continue
		}
		log.Info("report written", "context", rep.Context, "tables", len(rep.Tables), "rows", rep.RowCount())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed", failed, len(inputs))
	}
	return nil
}

// expandInputs resolves glob patterns; plain paths are kept as given.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("no input matches %q", arg)
			}
			matches = []string{arg}
		}
		for _, m := range matches {
			if sif.IsSupportedExtension(m) {
				inputs = append(inputs, filepath.Clean(m))
			}
		}
	}
	if len(inputs) == 0 {
		return nil, errors.New("no .sif or .xml inputs")
	}
	// Overlapping patterns name the same file once.
	return lo.Uniq(inputs), nil
}

func buildFile(path string, layout schema.Layout, c report.Criteria) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tree, err := sif.Parse(f)
	if err != nil {
		return nil, err
	}
	return report.Generate(tree, layout, c)
}

func writeTo(path string, r render.Renderer, rep *report.Report, stdout io.Writer) error {
	if path == "-" {
		return r.Render(stdout, rep)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Render(f, rep); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// outputPaths names one report file per input under dir. Inputs that share a
// base name, such as dev/Account.sif and prod/Account.sif, get a numeric
// suffix in input order: Account-report.docx, Account-report-2.docx.
func outputPaths(inputs []string, dir, ext string) []string {
	seen := make(map[string]int, len(inputs))
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		name := reportName(in, ext)
		// Case-insensitive file systems treat Account and ACCOUNT as one file.
		key := strings.ToLower(name)
		seen[key]++
		if n := seen[key]; n > 1 {
			name = strings.TrimSuffix(name, ext) + "-" + strconv.Itoa(n) + ext
		}
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// reportName maps "exports/Account.sif" to "Account-report.docx".
func reportName(input, ext string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-report" + ext
}
