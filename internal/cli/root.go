package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/sma/internal/engine"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// NewRootCmd builds the sma command tree with options read from the
// environment.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := optionsFromEnv()

	root := &cobra.Command{
		Use:   "sma",
		Short: "Start multiple applications and stop them together",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch ctx.logFormat {
			case logFormatText, logFormatJSON:
			default:
				return fmt.Errorf("unsupported log format %q (expected %s or %s)", ctx.logFormat, logFormatText, logFormatJSON)
			}
			if ctx.grace < 0 {
				return fmt.Errorf("grace period must not be negative, got %s", ctx.grace)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&ctx.attach, "attach", ctx.attach, "Keep started applications attached to this terminal")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", ctx.verbose, "Log every lifecycle step")
	flags.StringVar(&ctx.logFormat, "log-format", ctx.logFormat, "Log output format (text or json)")
	flags.DurationVar(&ctx.grace, "grace", ctx.grace, "Time to let applications stop on their own before they are killed")
	flags.StringVar(&ctx.metricsFile, "metrics-file", ctx.metricsFile, "Write prometheus metrics to this file when the run ends")

	root.AddCommand(newStartCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))
	root.AddCommand(newCreateConfigCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	attach      bool
	verbose     bool
	logFormat   string
	grace       time.Duration
	metricsFile string

	// supervisorOptions are appended after the flag derived options.
	supervisorOptions []engine.Option
}

func optionsFromEnv() *context {
	ctx := &context{logFormat: logFormatText}
	if value := os.Getenv("SMA_ATTACH"); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			ctx.attach = enabled
		}
	}
	if value := os.Getenv("SMA_VERBOSE"); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			ctx.verbose = enabled
		}
	}
	if value := os.Getenv("SMA_LOG_FORMAT"); value != "" {
		ctx.logFormat = value
	}
	if value := os.Getenv("SMA_GRACE"); value != "" {
		if grace, err := time.ParseDuration(value); err == nil && grace >= 0 {
			ctx.grace = grace
		}
	}
	ctx.metricsFile = os.Getenv("SMA_METRICS_FILE")
	return ctx
}
