package cli

import (
	"fmt"
	"os"
	"runtime"

	"geostamp/internal/config"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "v0.1.0-dev"

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long:  "Show or create the geostamp configuration file",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.configShow(cmd)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func (r *Root) configShow(cmd *cobra.Command) error {
	cfgPath := os.Getenv(config.EnvVar)
	if cfgPath == "" {
		cfgPath = "(default) ~/.config/geostamp/config.json"
	}
	cmd.Printf("Configuration:\n\n")
	cmd.Printf("Config file: %s\n", cfgPath)
	cmd.Printf("Default Output: %s\n", r.cfg.Paths.DefaultOutput)
	cmd.Printf("Parallel Jobs: %d\n", r.cfg.Processing.ParallelJobs)
	cmd.Printf("JPEG Quality: %d\n", r.cfg.Processing.Quality)
	cmd.Printf("Caption Corner: %s\n", r.cfg.Caption.Corner)
	if r.cfg.Caption.FontSize > 0 {
		cmd.Printf("Font Size: %d\n", r.cfg.Caption.FontSize)
	} else {
		cmd.Printf("Font Size: fit to width\n")
	}
	if r.cfg.Caption.FontPath != "" {
		cmd.Printf("Font: %s\n", r.cfg.Caption.FontPath)
	} else {
		cmd.Printf("Font: built-in\n")
	}
	cmd.Printf("Minutes Between Photos: %d-%d\n", r.cfg.Batch.FromMinutes, r.cfg.Batch.ToMinutes)
	cmd.Printf("Log Level: %s\n", r.cfg.Logging.Level)
	cmd.Printf("Log Format: %s\n", r.cfg.Logging.Format)
	if r.cfg.Logging.FileOutput {
		cmd.Printf("Log Directory: %s\n", r.cfg.Logging.LogDir)
	}
	return nil
}

func newVersionCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Geostamp %s\n", Version)
			cmd.Printf("Built with Go %s\n", runtime.Version())
		},
	}
}
