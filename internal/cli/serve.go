package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vk/patterngridgo/internal/app"
	"github.com/vk/patterngridgo/internal/artifact"
	"github.com/vk/patterngridgo/internal/hcl"
)

func newServeCommand(outW io.Writer, flags *rootFlags) *cobra.Command {
	var (
		port      int
		graphPath string
		debounce  time.Duration
		s3        s3Flags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pattern graph HTTP API",
		Long: `Serve starts the JSON API for live graph editing. An optional graph
document seeds the initial graph; otherwise the server starts empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				ManifestPath:     flags.manifestPath,
				LogFormat:        flags.logFormat,
				LogLevel:         flags.logLevel,
				Port:             port,
				DebounceInterval: debounce,
				Artifact:         s3.artifactConfig(),
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}

			a := app.NewApp(outW, cfg, hcl.NewLoader())
			if graphPath != "" {
				g, err := loadGraphDocument(graphPath)
				if err != nil {
					return &ExitError{Code: 2, Message: err.Error()}
				}
				a.Store().Replace(cmd.Context(), g)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port for the HTTP API.")
	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph JSON document to load at startup.")
	cmd.Flags().DurationVar(&debounce, "debounce", app.DefaultDebounceInterval, "Change notification coalescing window.")
	s3.register(cmd)
	return cmd
}

// s3Flags groups the artifact upload options shared by serve and render.
type s3Flags struct {
	bucket   string
	region   string
	endpoint string
	prefix   string
}

func (f *s3Flags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bucket, "s3-bucket", "", "S3 bucket for rendered artifacts. Empty disables uploads.")
	cmd.Flags().StringVar(&f.region, "s3-region", "", "S3 region for artifact uploads.")
	cmd.Flags().StringVar(&f.endpoint, "s3-endpoint", "", "Custom S3 endpoint, e.g. a local stand-in.")
	cmd.Flags().StringVar(&f.prefix, "s3-prefix", "", "Key prefix for uploaded artifacts.")
}

func (f *s3Flags) artifactConfig() artifact.Config {
	return artifact.Config{
		Bucket:   f.bucket,
		Region:   f.region,
		Endpoint: f.endpoint,
		Prefix:   f.prefix,
	}
}
