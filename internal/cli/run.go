package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/sma/internal/cliutil"
	"github.com/Paintersrp/sma/internal/config"
	"github.com/Paintersrp/sma/internal/engine"
	"github.com/Paintersrp/sma/internal/metrics"
	"github.com/Paintersrp/sma/internal/runtime/process"
)

const eventBuffer = 64

func (c *context) supervisor(events chan<- engine.Event) *engine.Supervisor {
	mode := process.Detached
	if c.attach {
		mode = process.Attached
	}
	opts := []engine.Option{
		engine.WithEvents(events),
		engine.WithVerbose(c.verbose),
		engine.WithSpawnMode(mode),
		engine.WithGracePeriod(c.grace),
	}
	opts = append(opts, c.supervisorOptions...)
	return engine.NewSupervisor(opts...)
}

// run supervises spec until the designated process exits and teardown ends,
// printing lifecycle events as they arrive.
func (c *context) run(cmd *cobra.Command, spec *config.Validated) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	events := make(chan engine.Event, eventBuffer)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printEvents(events, c.logFormat, stdout, stderr)
	}()

	_, runErr := c.supervisor(events).Run(cmd.Context(), spec)
	close(events)
	<-printed

	if c.metricsFile != "" {
		if err := metrics.WriteFile(c.metricsFile); err != nil {
			if runErr == nil {
				return err
			}
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}
	return runErr
}

func printEvents(events <-chan engine.Event, format string, stdout, stderr io.Writer) {
	var enc *json.Encoder
	if format == logFormatJSON {
		enc = json.NewEncoder(stdout)
	}
	for evt := range events {
		if enc != nil {
			cliutil.EncodeLogEvent(enc, stderr, evt)
			continue
		}
		ts := evt.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		fmt.Fprintf(stdout, "%s %s\n", ts.Format(time.TimeOnly), cliutil.FormatLogEvent(evt))
	}
}
