package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/patterngridgo/internal/graph"
	"github.com/vk/patterngridgo/internal/graphdoc"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// rootFlags holds the persistent options every subcommand inherits.
type rootFlags struct {
	logFormat    string
	logLevel     string
	manifestPath string
}

// NewRootCommand builds the patterngridgo command tree. All command output
// goes to outW so tests can capture it.
func NewRootCommand(outW io.Writer) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "patterngridgo",
		Short: "Musical pattern graph engine",
		Long: `Patterngridgo evaluates graphs of musical patterns: source nodes hold
literal note material, modifier nodes derive new patterns from their
inputs, and every node can be read, rendered to a standard MIDI file, or
served over an HTTP API for live editing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(flags.logFormat)
			if format != "text" && format != "json" {
				return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
			}
			flags.logFormat = format

			level := strings.ToLower(flags.logLevel)
			switch level {
			case "debug", "info", "warn", "error":
			default:
				return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
			}
			flags.logLevel = level
			return nil
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&flags.manifestPath, "manifests", "", "Path to extra modifier manifests overriding the built-in set.")

	root.AddCommand(newServeCommand(outW, flags))
	root.AddCommand(newRenderCommand(outW, flags))
	root.AddCommand(newInspectCommand(outW, flags))
	root.AddCommand(newCheckCommand(outW, flags))
	return root
}

// loadGraphDocument reads a graph JSON document from disk and translates it
// into a live graph.
func loadGraphDocument(path string) (*graph.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph document: %w", err)
	}
	var doc graphdoc.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing graph document %s: %w", path, err)
	}
	g, err := doc.ToGraph()
	if err != nil {
		return nil, fmt.Errorf("graph document %s: %w", path, err)
	}
	return g, nil
}
