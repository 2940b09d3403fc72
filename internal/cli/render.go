package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vk/patterngridgo/internal/app"
	"github.com/vk/patterngridgo/internal/hcl"
	"github.com/vk/patterngridgo/internal/smf"
)

func newRenderCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	var (
		outPath string
		ppq     uint16
		bpm     float64
		track   string
		s3      s3Flags
	)

	cmd := &cobra.Command{
		Use:   "render <graph.json> <node-id>",
		Short: "Render an evaluated node to a standard MIDI file",
		Long: `Render loads a graph document, evaluates the named node, and writes the
result as a standard MIDI file, either to disk or to S3.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			graphPath, nodeID := args[0], args[1]
			ctx := cmd.Context()

			cfg, err := app.NewConfig(app.Config{
				ManifestPath: flags.manifestPath,
				LogFormat:    flags.logFormat,
				LogLevel:     flags.logLevel,
				Artifact:     s3.artifactConfig(),
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a := app.NewApp(outW, cfg, hcl.NewLoader())

			g, err := loadGraphDocument(graphPath)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a.Store().Replace(ctx, g)

			snap := a.Store().Snapshot(ctx)
			if _, ok := snap.Node(nodeID); !ok {
				return &ExitError{Code: 1, Message: fmt.Sprintf("node '%s' not found in %s", nodeID, graphPath)}
			}
			p := a.Evaluator().Evaluate(ctx, snap, nodeID)
			if p == nil {
				return &ExitError{Code: 1, Message: fmt.Sprintf("node '%s' did not evaluate to a pattern", nodeID)}
			}

			name := track
			if name == "" {
				name = nodeID
			}
			file := smf.Render(ctx, p, smf.RenderOptions{PPQ: ppq, BPM: bpm, TrackName: name})
			var buf bytes.Buffer
			if _, err := file.WriteTo(&buf); err != nil {
				return fmt.Errorf("rendering failed: %w", err)
			}

			if s3.bucket != "" {
				// The uploader applies the configured key prefix itself.
				location, err := a.Uploader().Upload(ctx, nodeID+".mid", buf.Bytes(), "audio/midi")
				if err != nil {
					return err
				}
				fmt.Fprintf(outW, "uploaded %s (%d bytes)\n", location, buf.Len())
				return nil
			}

			target := outPath
			if target == "" {
				target = nodeID + ".mid"
			}
			if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", target, err)
			}
			fmt.Fprintf(outW, "wrote %s (%d bytes)\n", target, buf.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path. Defaults to <node-id>.mid.")
	cmd.Flags().Uint16Var(&ppq, "ppq", 0, "Ticks per quarter note. 0 uses the default resolution.")
	cmd.Flags().Float64Var(&bpm, "bpm", 0, "Tempo to stamp into the file. 0 uses the default.")
	cmd.Flags().StringVar(&track, "name", "", "Track name. Defaults to the node id.")
	s3.register(cmd)
	return cmd
}
