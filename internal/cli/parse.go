package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Cloutiere/mermaid/pkg/diagram"
)

// Output formats accepted by --output.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse diagram code and print the extracted graph",
		Long: `Parse a diagram file (or - for stdin) and print the nodes, edges,
styles and subgraphs found in it. Nothing is sent to the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			result, err := diagram.Parse(source)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, opts.output())
		},
	}
}

func newFormatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "format FILE",
		Short: "Rewrite diagram code in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			result, err := diagram.Parse(source)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), diagram.Generate(diagram.SnapshotOf(result)))
			return err
		},
	}
}

func writeResult(w io.Writer, result *diagram.ParseResult, format string) error {
	switch strings.ToLower(format) {
	case formatJSON, "":
		return writeJSON(w, result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		return writeTables(w, result)
	default:
		return fmt.Errorf("unknown output format %q (use json, yaml or table)", format)
	}
}

func writeTables(w io.Writer, result *diagram.ParseResult) error {
	fmt.Fprintf(w, "Direction: %s\n\n", result.Direction)

	owner := make(map[string]string)
	for _, sg := range result.Subgraphs {
		for _, m := range sg.Members {
			owner[m] = sg.SymbolicID
		}
	}

	fmt.Fprintln(w, "Nodes:")
	nodes := tablewriter.NewWriter(w)
	nodes.Header("ID", "Title", "Style", "Subgraph")
	for _, n := range result.OrderedNodes() {
		if err := nodes.Append(n.SymbolicID, deref(n.Title), deref(n.StyleRef), owner[n.SymbolicID]); err != nil {
			return err
		}
	}
	if err := nodes.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nEdges:")
	edges := tablewriter.NewWriter(w)
	edges.Header("Source", "Target", "Kind", "Label")
	for _, e := range result.Edges {
		if err := edges.Append(e.Source, e.Target, string(e.Kind), deref(e.Label)); err != nil {
			return err
		}
	}
	if err := edges.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nStyles:")
	styles := tablewriter.NewWriter(w)
	styles.Header("Name", "Definition")
	for _, name := range result.StyleOrder {
		if err := styles.Append(name, result.Styles[name]); err != nil {
			return err
		}
	}
	if err := styles.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSubgraphs:")
	subgraphs := tablewriter.NewWriter(w)
	subgraphs.Header("ID", "Title", "Style", "Members")
	for _, sg := range result.Subgraphs {
		if err := subgraphs.Append(sg.SymbolicID, deref(sg.Title), deref(sg.StyleRef), strings.Join(sg.Members, ", ")); err != nil {
			return err
		}
	}
	return subgraphs.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
