package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vk/patterngridgo/internal/app"
	"github.com/vk/patterngridgo/internal/hcl"
	"github.com/vk/patterngridgo/internal/tui"
)

func newInspectCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <graph.json>",
		Short: "Browse a graph document in a terminal UI",
		Long: `Inspect loads a graph document and opens a read-only terminal browser:
a node list with evaluation status and a piano-roll view of the selected
node's pattern.`,
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

			// The alternate screen owns the terminal, so application logs
			// are discarded for the duration of the session.
			a := app.NewApp(io.Discard, cfg, hcl.NewLoader())

			g, err := loadGraphDocument(args[0])
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a.Store().Replace(cmd.Context(), g)

			m := tui.NewModel(a.Store(), a.Evaluator())
			program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(outW))
			_, err = program.Run()
			return err
		},
	}
	return cmd
}
