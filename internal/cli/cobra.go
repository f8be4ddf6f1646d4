package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"geostamp/internal/config"
	"geostamp/internal/metadata"
	"geostamp/internal/pipeline"
	"geostamp/internal/watch"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root Cobra command
func NewRootCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	return NewRoot(cfg, log).Command()
}

// Command builds the command tree around r.
func (r *Root) Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geostamp",
		Short: "Geostamp burns a location caption and matching EXIF into photos",
		Long: `Geostamp draws a time, coordinate and address caption onto each photo of a
batch and writes capture time and GPS EXIF tags, advancing the time and
jittering the coordinate slightly from one photo to the next.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newStampCmd(r))
	rootCmd.AddCommand(newInspectCmd(r))
	rootCmd.AddCommand(newWatchCmd(r))
	rootCmd.AddCommand(newConfigCmd(r))
	rootCmd.AddCommand(newVersionCmd(r))

	return rootCmd
}

func newStampCmd(root *Root) *cobra.Command {
	var f stampFlags

	cmd := &cobra.Command{
		Use:   "stamp <image|directory>... [flags]",
		Short: "Caption and geotag a batch of photos",
		Long: `Stamp loads the given JPEG/PNG files (directories are searched recursively),
draws the caption in the chosen corner and writes each photo with the same
file name into the output directory. Images are processed in the order given;
use --select with --move-to, --reverse or --drop to rearrange the batch first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := expandAndOrder(args, &f)
			if err != nil {
				return err
			}
			s, err := root.newSession(cmd.Flags(), &f, images)
			if err != nil {
				return err
			}
			p, err := root.newPipeline(&f)
			if err != nil {
				return err
			}
			if f.dryRun {
				return root.printPlan(cmd, p, s)
			}
			return root.stamp(cmd.Context(), cmd, p, s, f.output)
		},
	}

	f.register(cmd.Flags(), root.cfg)
	f.registerOrdering(cmd.Flags())
	return cmd
}

func (r *Root) printPlan(cmd *cobra.Command, p *pipeline.Pipeline, s *pipeline.Session) error {
	draws, err := p.Plan(s)
	if err != nil {
		return err
	}
	for i, d := range draws {
		cmd.Printf("%3d  %s\n", i+1, s.Images[i])
		cmd.Printf("     %s\n", d.Time.Format(metadata.DateTimeLayout))
		lat, lon := d.Point.Signed()
		cmd.Printf("     %s (%.8f, %.8f)\n", d.Point.Caption(), lat, lon)
	}
	return nil
}

func (r *Root) stamp(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, s *pipeline.Session, outDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	processed, exported, err := p.Run(ctx, s, outDir)
	if err != nil {
		return err
	}
	failures := append(processed.Failed(), exported.Failed()...)
	for _, it := range failures {
		cmd.PrintErrf("failed: %s: %v\n", it.Source, it.Error)
	}
	cmd.Printf("Stamped %d of %d images into %s\n", exported.Succeeded(), len(s.Images), outDir)
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d images failed", len(failures), len(s.Images))
	}
	return nil
}

func newInspectCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image>",
		Short: "Show the capture time, GPS and orientation tags of a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			info, err := metadata.Read(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			cmd.Printf("File: %s\n", args[0])
			cmd.Printf("Orientation: %d\n", info.Orientation)
			cmd.Printf("DateTime: %s\n", info.DateTime)
			cmd.Printf("DateTimeOriginal: %s\n", info.DateTimeOriginal)
			cmd.Printf("DateTimeDigitized: %s\n", info.DateTimeDigitized)
			if info.HasGPS {
				cmd.Printf("GPSLatitude: %s %s\n", formatDMS(info.Lat), info.LatRef)
				cmd.Printf("GPSLongitude: %s %s\n", formatDMS(info.Lon), info.LonRef)
				cmd.Printf("Position: %.8f, %.8f\n", info.Latitude, info.Longitude)
			} else {
				cmd.Printf("GPS: none\n")
			}
			return nil
		},
	}
}

func formatDMS(r [3]metadata.Rational) string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = fmt.Sprintf("%d/%d", v.Num, v.Den)
	}
	return strings.Join(parts, " ")
}

func newWatchCmd(root *Root) *cobra.Command {
	var f stampFlags

	cmd := &cobra.Command{
		Use:   "watch <directory> [flags]",
		Short: "Stamp photos as they arrive in a directory",
		Long: `Watch stamps every burst of new JPEG/PNG files written to the directory as
its own batch. Without --start each batch begins at the time it is picked up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			// Validate flags once before waiting for files.
			if _, err := root.newSession(cmd.Flags(), &f, nil); err != nil {
				return err
			}
			if err := checkWatchOutput(args[0], f.output); err != nil {
				return err
			}
			p, err := root.newPipeline(&f)
			if err != nil {
				return err
			}
			w, err := watch.New(args[0], root.settle, root.log)
			if err != nil {
				return err
			}
			errc := make(chan error, 1)
			go func() { errc <- w.Run(ctx) }()

			for batch := range w.Batches {
				s, err := root.newSession(cmd.Flags(), &f, batch)
				if err != nil {
					return err
				}
				if err := root.stamp(ctx, cmd, p, s, f.output); err != nil {
					root.log.Error("batch failed", "dir", args[0], "error", err)
				}
			}
			return <-errc
		},
	}

	f.register(cmd.Flags(), root.cfg)
	return cmd
}

// checkWatchOutput rejects writing into the watched directory, where each
// output would be picked up as a new input.
func checkWatchOutput(dir, output string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if absDir == absOut {
		return fmt.Errorf("--output %s is the watched directory", output)
	}
	return nil
}
