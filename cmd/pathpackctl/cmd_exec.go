package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cordum/pathpack/core/attach"
	"github.com/cordum/pathpack/core/hooks"
	"github.com/cordum/pathpack/core/infra/bus"
	"github.com/cordum/pathpack/core/infra/config"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/infra/messages"
	"github.com/cordum/pathpack/core/records"
	"github.com/cordum/pathpack/core/worker"
)

type execFlags struct {
	records  []string
	parallel int
}

type execOutcome struct {
	id   string
	typ  string
	err  error
	took time.Duration
}

func newExecCmd(opts *globalOptions) *cobra.Command {
	var flags execFlags
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run the packaging hook for records in-process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExec(cmd, opts, flags)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&flags.records, "record", nil, "record id, repeatable (required)")
	f.IntVar(&flags.parallel, "parallel", 1, "records packaged concurrently")
	_ = cmd.MarkFlagRequired("record")
	return cmd
}

func runExec(cmd *cobra.Command, opts *globalOptions, flags execFlags) error {
	if flags.parallel < 1 {
		return errors.New("--parallel must be at least 1")
	}
	hooksCfg, err := config.LoadHooksConfig(opts.configPath)
	if err != nil {
		return err
	}
	catalog, err := messages.ForLocale(opts.locale)
	if err != nil {
		logging.Warn("pathpackctl", "using default message catalog", "locale", opts.locale, "error", err)
		catalog = messages.Default()
	}

	recordStore, err := records.NewRedisStore(opts.redisURL)
	if err != nil {
		return fmt.Errorf("connect records store: %w", err)
	}
	defer recordStore.Close()
	attachStore, err := attach.NewRedisStore(opts.redisURL)
	if err != nil {
		return fmt.Errorf("connect attachment store: %w", err)
	}
	defer attachStore.Close()

	registry := hooks.FromConfig(hooksCfg, hooks.Deps{
		Descriptors: recordStore,
		Attachments: attachStore,
		Messages:    catalog,
	})

	ctx := cmd.Context()
	outcomes := make([]execOutcome, len(flags.records))
	var g errgroup.Group
	g.SetLimit(flags.parallel)
	for i, id := range flags.records {
		g.Go(func() error {
			start := time.Now()
			rec, err := registry.ExecRecord(ctx, recordStore, id)
			outcomes[i] = execOutcome{id: id, err: err, took: time.Since(start)}
			if rec != nil {
				outcomes[i].typ = rec.Type
			}
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(out, "%s\tFAILED\t%s\n", o.id, o.err)
			continue
		}
		fmt.Fprintf(out, "%s\tOK\t%s (%s)\n", o.id, o.typ, o.took.Round(time.Millisecond))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d record(s) failed", failed, len(outcomes))
	}
	return nil
}

type submitFlags struct {
	records []string
	timeout time.Duration
}

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	var flags submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Ask a running pathpack-worker to package records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			natsBus, err := bus.NewNatsBus(opts.natsURL, "pathpackctl")
			if err != nil {
				return fmt.Errorf("connect nats: %w", err)
			}
			defer natsBus.Close()
			return runSubmit(cmd, natsBus, flags)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&flags.records, "record", nil, "record id, repeatable (required)")
	f.DurationVar(&flags.timeout, "timeout", 2*time.Minute, "time to wait for each result")
	_ = cmd.MarkFlagRequired("record")
	return cmd
}

// requester is the part of the bus used by submit.
type requester interface {
	Request(ctx context.Context, subject string, v, out any) error
}

func runSubmit(cmd *cobra.Command, client requester, flags submitFlags) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, id := range flags.records {
		ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
		var res worker.Result
		err := client.Request(ctx, bus.SubjectExec, worker.Request{RecordID: id}, &res)
		cancel()
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(out, "%s\tERROR\t%s\n", id, err)
		case res.Status != worker.StatusSucceeded:
			failed++
			fmt.Fprintf(out, "%s\t%s\t%s\n", id, res.Status, res.Error)
		default:
			fmt.Fprintf(out, "%s\t%s\t%s by %s\n", id, res.Status, res.Type, res.WorkerID)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d record(s) failed", failed, len(flags.records))
	}
	return nil
}
