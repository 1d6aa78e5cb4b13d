package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/andthens/BluePrint/internal/report"
	"gopkg.in/yaml.v3"
)

// JSONRenderer writes the report records as JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) ContentType() string { return "application/json" }
func (r *JSONRenderer) Extension() string   { return ".json" }

func (r *JSONRenderer) Render(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAMLRenderer writes the report records as YAML.
type YAMLRenderer struct{}

func (r *YAMLRenderer) ContentType() string { return "application/yaml" }
func (r *YAMLRenderer) Extension() string   { return ".yaml" }

func (r *YAMLRenderer) Render(w io.Writer, rep *report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
