package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/patterngridgo/internal/app"
	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/graphdoc"
	"github.com/vk/patterngridgo/internal/hcl"
)

func newCheckCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <graph.json>",
		Short: "Validate a graph document's structure",
		Long: `Check validates a graph document without evaluating it: node and edge
structure, modifier types and parameters against the registry, required
input wiring, and cycle detection. Any finding makes the exit code
non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				ManifestPath: flags.manifestPath,
				LogFormat:    flags.logFormat,
				LogLevel:     flags.logLevel,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			// The findings list is the command's output; application logs
			// stay out of its way.
			a := app.NewApp(io.Discard, cfg, hcl.NewLoader())

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return &ExitError{Code: 2, Message: fmt.Sprintf("reading graph document: %s", err)}
			}
			var doc graphdoc.Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return &ExitError{Code: 2, Message: fmt.Sprintf("parsing graph document %s: %s", args[0], err)}
			}

			g, err := doc.ToGraph()
			if err != nil {
				return reportFindings(outW, []string{err.Error()})
			}

			findings := checkGraph(g, a)
			if len(findings) == 0 {
				fmt.Fprintf(outW, "ok: %d nodes, %d edges, acyclic\n", len(g.Nodes), len(g.Edges))
				return nil
			}
			return reportFindings(outW, findings)
		},
	}
	return cmd
}

// checkGraph collects every structural problem in the graph: modifier types
// missing from the registry, parameter values the manifest schema rejects,
// unwired required inputs, underfilled positional lists, and cycles.
func checkGraph(g *graph.Graph, a *app.App) []string {
	var findings []string

	for _, id := range g.NodeIDs() {
		node, _ := g.Node(id)
		if node.Kind != graph.KindModifier {
			continue
		}

		def, ok := a.Registry().Definition(node.ModifierType)
		if !ok {
			findings = append(findings, fmt.Sprintf("node '%s': unknown modifier type '%s'", id, node.ModifierType))
			continue
		}

		if _, err := config.ValidateParams(def, node.Params); err != nil {
			findings = append(findings, fmt.Sprintf("node '%s': %s", id, err))
		}

		keys := make([]string, 0, len(def.Inputs))
		for key := range def.Inputs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !def.Inputs[key].Required {
				continue
			}
			if _, wired := g.KeywordSource(id, key); !wired {
				findings = append(findings, fmt.Sprintf("node '%s': required input '%s' is not connected", id, key))
			}
		}

		if def.Positional != nil {
			if n := len(g.PositionalSources(id)); n < def.Positional.MinCount {
				findings = append(findings, fmt.Sprintf("node '%s': %d positional inputs connected, need at least %d", id, n, def.Positional.MinCount))
			}
		}
	}

	if witness := g.DetectCycles(); len(witness) > 0 {
		findings = append(findings, "cycle: "+strings.Join(witness, " -> "))
	}
	return findings
}

func reportFindings(outW io.Writer, findings []string) error {
	for _, f := range findings {
		fmt.Fprintln(outW, "finding: "+f)
	}
	noun := "findings"
	if len(findings) == 1 {
		noun = "finding"
	}
	return &ExitError{Code: 1, Message: fmt.Sprintf("%d %s", len(findings), noun)}
}
