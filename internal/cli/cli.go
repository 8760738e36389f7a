package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mehmetkoksal-w/archcheck/internal/archive"
	"github.com/mehmetkoksal-w/archcheck/internal/config"
	"github.com/mehmetkoksal-w/archcheck/internal/logger"
	"github.com/mehmetkoksal-w/archcheck/internal/report"
	"github.com/mehmetkoksal-w/archcheck/internal/scan"
	"github.com/mehmetkoksal-w/archcheck/internal/verify"
)

// ErrUsage is returned when the positional arguments are wrong. The usage
// line has already been written to stdout when it is returned.
var ErrUsage = errors.New("wrong number of arguments")

const usageLine = "Usage: archcheck <ar-executable> <src-dir> <lib-dir>"

type options struct {
	verbose    bool
	debug      bool
	configPath string
	reportPath string
}

// Run executes the command line with os.Stdout and os.Stderr.
func Run(args []string) error {
	return Execute(args, os.Stdout, os.Stderr)
}

// Execute runs the root command with explicit output streams.
func Execute(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errors.Is(err, ErrUsage) {
		fmt.Fprintln(stdout, usageLine)
	}
	return err
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "archcheck [flags] <ar-executable> <src-dir> <lib-dir>",
		Short: "Remove static archives that contain objects without a source file",
		Long: `archcheck scans a source tree for package descriptors, works out which
source files feed each archive, and lists every built archive with the given
archiver. An archive holding an object whose source no longer exists is
deleted so the next build recreates it.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return ErrUsage
			}
			return nil
		},
		Version:       GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.debug:
				logger.SetLevel(logger.LevelDebug)
			case opts.verbose:
				logger.SetLevel(logger.LevelInfo)
			default:
				logger.SetLevel(logger.LevelOff)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1], args[2], cmd.OutOrStdout())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(versionLine())

	// No subcommands: cobra then adds neither "help" nor "completion", so
	// an archiver named like one is still taken as the first positional.
	flags := cmd.Flags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	flags.BoolVar(&opts.debug, "debug", false, "log debugging detail to stderr")
	flags.StringVar(&opts.configPath, "config", "", "JSONC file overriding the default layout settings")
	flags.StringVar(&opts.reportPath, "report", "", "write a JSON run report to this path")
	return cmd
}

func runCheck(opts *options, arExe, srcDir, libDir string, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	started := time.Now()

	reg, err := scan.Run(srcDir, cfg)
	if err != nil {
		return err
	}

	inspector := archive.NewInspector(arExe, cfg.ObjectSuffix, cfg.Sentinels)
	results, err := verify.Run(reg, inspector, verify.Options{
		LibDir: libDir,
		Config: cfg,
		Out:    out,
	})
	if err != nil {
		return err
	}

	if opts.reportPath != "" {
		r := report.New(srcDir, libDir, started, time.Now(), results)
		if err := report.Write(opts.reportPath, r); err != nil {
			return err
		}
		logger.Info("wrote report %s (run %s, %d purged)", opts.reportPath, r.RunID, len(r.Purged()))
	}
	return nil
}
