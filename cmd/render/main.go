// Package main provides a CLI that renders one chart frame to a file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/modules/dataset"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
)

const defaultSource = "data/fredgraph.csv"

type renderOptions struct {
	width      int
	height     int
	format     string
	outputPath string
	definition string
	timeout    time.Duration
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render the unemployment chart to SVG or PNG",
		Long: `render loads a FRED-style CSV or XLSX export (local path, http(s) URL
or s3:// URI) and writes one chart frame of the given size.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source := defaultSource
			if len(args) == 1 {
				source = args[0]
			}
			return run(cmd.Context(), source, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().IntVar(&opts.width, "width", 960, "Container width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 500, "Container height in pixels")
	cmd.Flags().StringVar(&opts.format, "format", "svg", "Output format: svg or png")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&opts.definition, "definition", "", "YAML chart definition file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Fetch timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")

	return cmd
}

func run(ctx context.Context, source string, opts *renderOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()

	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	def, err := config.LoadChartDefinition(opts.definition)
	if err != nil {
		return fmt.Errorf("failed to load chart definition: %w", err)
	}

	loaderOpts := []dataset.Option{dataset.WithHTTPFetcher(dataset.NewHTTPFetcher(opts.timeout))}
	if dataset.IsS3Source(source) {
		fetcher, err := dataset.NewS3Fetcher(ctx, s3Config())
		if err != nil {
			return fmt.Errorf("failed to create S3 fetcher: %w", err)
		}
		loaderOpts = append(loaderOpts, dataset.WithS3Fetcher(fetcher))
	}

	ds, err := dataset.NewLoader(log, loaderOpts...).Load(ctx, source)
	if err != nil {
		return err
	}

	sess := charts.NewSession(ds, charts.OptionsFromDefinition(def))
	data, state, err := sess.Render(layout.Size{Width: opts.width, Height: opts.height}, format)
	if err != nil {
		return err
	}

	log.Debug().
		Int("records", len(ds.Records)).
		Int("plot_width", state.Metrics.Width).
		Int("plot_height", state.Metrics.Height).
		Int("bytes", len(data)).
		Msg("Frame rendered")

	if opts.outputPath == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// s3Config reads the same AWS_* and S3_* variables as the server
func s3Config() dataset.S3Config {
	c := config.LoadS3Config()
	return dataset.S3Config{
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Endpoint:        c.Endpoint,
		PathStyle:       c.PathStyle,
	}
}
