package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ludo-technologies/sdlcguard/app"
	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type validateOptions struct {
	level          string
	checks         []string
	strict         bool
	export         string
	output         string
	ci             bool
	format         string
	showDetails    bool
	maxConcurrency int
}

func validateCmd() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a repository against its maturity level",
		Long: `Run the gate and every effective check against a git repository.

The level comes from --level, then .sdlc/level.json, then the config file,
and finally defaults to production.

Exit codes:
  0 - Gate passed and no required check failed
  1 - Gate failed or a required check failed
  2 - Hard error (not a git repository, invalid flags, unknown check id)

Examples:
  # Validate the current repository
  sdlcguard validate

  # Only the required checks of the enterprise level
  sdlcguard validate --level enterprise --strict

  # Pick checks explicitly
  sdlcguard validate --checks feature-proposal,security-scan

  # CI run with a JSON report file
  sdlcguard validate --ci --export json --output sdlc-report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().StringVarP(&opts.level, "level", "l", "",
		"Maturity level: prototype, production, enterprise")
	cmd.Flags().StringSliceVar(&opts.checks, "checks", nil,
		"Checks to run in addition to the required ones (comma separated)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false,
		"Run only the checks the level requires")
	cmd.Flags().StringVarP(&opts.export, "export", "e", "",
		"Export format: json, markdown")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "",
		"Write the export to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.ci, "ci", false,
		"CI mode: no progress or color, export failures are fatal")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "",
		"Console format: console, json, markdown (default from config)")
	cmd.Flags().BoolVar(&opts.showDetails, "details", false,
		"Show details for passing and skipped checks too")
	cmd.Flags().IntVarP(&opts.maxConcurrency, "max-concurrency", "j", 0,
		"Maximum checks run in parallel (0 = config or number of CPUs)")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *validateOptions) error {
	root := targetPath(args)

	req, err := opts.request(root)
	if err != nil {
		return hardError("%v", err)
	}
	exportFormat, err := opts.exportFormat()
	if err != nil {
		return hardError("%v", err)
	}

	stdout := cmd.OutOrStdout()
	cfg, err := loadConfig(cmd, root, service.ConfigOverrides{
		Format:         opts.format,
		NoColor:        opts.ci || !isTerminal(stdout),
		ShowDetails:    opts.showDetails,
		MaxConcurrency: opts.maxConcurrency,
	})
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Progress goes to stderr and would interleave with an export on stdout
	global := readGlobalOptions(cmd)
	exportToStdout := exportFormat != "" && opts.output == ""
	pm := service.NewProgressManager(!opts.ci && !global.noProgress && !exportToStdout)
	defer pm.Close()

	uc, err := newValidateUseCase(cfg, logger, pm)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run, err := uc.Execute(ctx, req)
	pm.Close()
	if err != nil {
		return hardError("%v", err)
	}

	reporter := service.NewReporter(cfg.Output)
	consoleFormat, err := domain.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		return hardError("%v", err)
	}

	switch {
	case exportToStdout:
		if err := reporter.Write(run, exportFormat, stdout); err != nil {
			return hardError("failed to write report: %v", err)
		}
	case exportFormat != "":
		if err := reporter.Write(run, consoleFormat, stdout); err != nil {
			return hardError("failed to write report: %v", err)
		}
		if err := writeExport(reporter, run, exportFormat, opts.output); err != nil {
			if opts.ci {
				return hardError("%v", err)
			}
			logger.Warn(ctx, "export not written", zap.String("path", opts.output), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", opts.output)
		}
	default:
		if err := reporter.Write(run, consoleFormat, stdout); err != nil {
			return hardError("failed to write report: %v", err)
		}
	}

	if !run.OverallSuccess {
		return &CheckExitError{Code: constants.ExitFailure}
	}
	return nil
}

// request validates the flags that shape the run
func (o *validateOptions) request(root string) (domain.ValidateRequest, error) {
	req := domain.ValidateRequest{Root: root, Strict: o.strict}
	if o.level != "" {
		level, err := domain.ParseLevel(o.level)
		if err != nil {
			return req, err
		}
		req.Level = level
	}
	checks, err := domain.ParseCheckIDs(o.checks)
	if err != nil {
		return req, err
	}
	req.Checks = checks
	return req, nil
}

// exportFormat returns the export format, inferring it from the --output
// extension when --export is absent. Empty means no export.
func (o *validateOptions) exportFormat() (domain.OutputFormat, error) {
	name := o.export
	if name == "" {
		if o.output == "" {
			return "", nil
		}
		switch strings.ToLower(filepath.Ext(o.output)) {
		case ".md", ".markdown":
			name = constants.OutputFormatMarkdown
		default:
			name = constants.OutputFormatJSON
		}
	}

	format, err := domain.ParseOutputFormat(name)
	if err != nil {
		return "", err
	}
	if format == domain.OutputFormatConsole {
		return "", domain.NewUnsupportedFormatError(name + " (export supports json and markdown)")
	}
	return format, nil
}

func writeExport(reporter *service.ReporterImpl, run *domain.ValidationRun, format domain.OutputFormat, path string) error {
	content, err := reporter.Render(run, format)
	if err != nil {
		return err
	}
	return app.NewFileHelper().WriteOutput(path, []byte(content))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
