package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harun/quill/pkg/emailtools"
	"github.com/harun/quill/pkg/schema"
	"github.com/harun/quill/pkg/toolexecutor"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	Long:  `Print every tool the server exposes with its parameters, without starting the server.`,
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsFormat, "format", "f", "table", "output format (table, json, yaml)")
	rootCmd.AddCommand(toolsCmd)
}

// catalogEntry is the serialized form of one tool
type catalogEntry struct {
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description" yaml:"description"`
	UseWhen     string                 `json:"use_when,omitempty" yaml:"use_when,omitempty"`
	SideEffects string                 `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`
	Parameters  []schema.ParameterSpec `json:"parameters" yaml:"parameters"`
}

func catalog() ([]catalogEntry, error) {
	reg := toolexecutor.NewRegistry()
	// handlers are never invoked here
	if err := emailtools.Register(reg, nil, ""); err != nil {
		return nil, err
	}

	descs := reg.List()
	entries := make([]catalogEntry, 0, len(descs))
	for _, d := range descs {
		entries = append(entries, catalogEntry{
			Name:        d.Name,
			Description: d.Description,
			UseWhen:     d.UseWhen,
			SideEffects: d.SideEffects,
			Parameters:  d.Schema.Parameters(),
		})
	}
	return entries, nil
}

func runTools(cmd *cobra.Command, args []string) error {
	entries, err := catalog()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch toolsFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(entries)
	case "table":
		return printToolTable(out, entries)
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", toolsFormat)
	}
}

// printToolTable pads the plain cells before colouring them so escape
// codes never count toward column width.
func printToolTable(w io.Writer, entries []catalogEntry) error {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	params := make([]string, len(entries))
	nameWidth, paramWidth := len("TOOL"), len("PARAMETERS")
	for i, e := range entries {
		params[i] = formatParams(e.Parameters)
		nameWidth = max(nameWidth, len(e.Name))
		paramWidth = max(paramWidth, len(params[i]))
	}

	if _, err := fmt.Fprintf(w, "%s  %s  %s\n",
		bold.Sprint(pad("TOOL", nameWidth)),
		bold.Sprint(pad("PARAMETERS", paramWidth)),
		bold.Sprint("DESCRIPTION")); err != nil {
		return err
	}
	for i, e := range entries {
		if _, err := fmt.Fprintf(w, "%s  %s  %s\n",
			cyan.Sprint(pad(e.Name, nameWidth)),
			pad(params[i], paramWidth),
			e.Description); err != nil {
			return err
		}
	}
	gray.Fprintf(w, "\n%d tools\n", len(entries))
	return nil
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

func formatParams(params []schema.ParameterSpec) string {
	if len(params) == 0 {
		return "-"
	}
	s := ""
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p.Name
		if !p.Required {
			s += "?"
		}
	}
	return s
}
