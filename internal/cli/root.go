// Package cli wires the installer pipeline into the centy-installer
// command.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/centy-io/centy-installer/internal/binary"
	"github.com/centy-io/centy-installer/internal/config"
	"github.com/centy-io/centy-installer/internal/daemon"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Execute runs the installer command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var (
		noRestart  bool
		quiet      bool
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:   "centy-installer [version]",
		Short: "Download and install the centy-daemon binary",
		Long: `centy-installer downloads a centy-daemon release for the current
platform, verifies its SHA-256 checksum against the release manifest,
and installs the binary to the centy bin directory.

With no arguments the latest release is installed. A version argument
("1.2.3" or "v1.2.3") pins the release to install.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) == 1 {
				requested = args[0]
			}
			return runInstall(cmd, requested, noRestart, quiet, configPath)
		},
	}

	rootCmd.Flags().BoolVar(&noRestart, "no-restart", false, "Do not restart a running daemon after install")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ~/.centy/config.toml)")

	return rootCmd
}

func runInstall(cmd *cobra.Command, requested string, noRestart, quiet bool, configPath string) error {
	log := newConsoleLogger(quiet)

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	mgr, err := binary.NewManager(binary.Config{
		BinDir:       cfg.BinDir,
		APIBase:      cfg.APIBase,
		DownloadBase: cfg.DownloadBase,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout(),
		Progress:     !quiet,
		Logger:       log,
	})
	if err != nil {
		log.Error(err.Error())
		return err
	}

	result, err := mgr.Install(cmd.Context(), requested)
	if err != nil {
		var perr *binary.PipelineError
		if errors.As(err, &perr) {
			log.Error(perr.Stage.String()+" failed", "error", perr.Err)
		} else {
			log.Error(err.Error())
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s installed at %s\n", result.Tag, result.Path)

	if noRestart {
		return nil
	}
	restartDaemon(cmd, result.Path, log)
	return nil
}

// restartDaemon restarts a running daemon so the new binary takes
// effect. Restart failures are reported but never fail the install.
func restartDaemon(cmd *cobra.Command, binaryPath string, log config.Logger) {
	centyDir, err := config.CentyDir()
	if err != nil {
		log.Warn("daemon restart skipped", "error", err)
		return
	}

	ctrl := daemon.NewController(centyDir, log)
	restarted, err := ctrl.RestartIfRunning(cmd.Context(), binaryPath)
	switch {
	case err != nil:
		log.Warn("daemon restart failed, restart it manually", "error", err)
	case restarted:
		fmt.Fprintln(cmd.OutOrStdout(), "daemon restarted")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return config.Load(path)
	}
	return config.LoadDefault()
}
