package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/plan"
	"github.com/kbukum/seqkit/validation"
	"github.com/kbukum/seqkit/version"
)

type runFlags struct {
	runID       string
	output      string
	concurrency int
}

func runCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [plan-file...]",
		Short: "evaluate plans and print one result per plan",
		Long: "Evaluate plan files concurrently and print their results in argument order.\n" +
			"Without arguments the plans listed in the config file are run.",
	}

	var flags runFlags
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "run id (UUID) to use; only with a single plan")
	cmd.Flags().StringVar(&flags.output, "output", "", "output format: text or json")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "maximum number of plans run at once")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(global)
		if err != nil {
			return err
		}
		if flags.output != "" {
			cfg.Output = flags.output
		}
		if flags.concurrency > 0 {
			cfg.Concurrency = flags.concurrency
		}
		if err := cfg.Validate(); err != nil {
			return errors.Validation(err.Error())
		}

		paths := args
		if len(paths) == 0 {
			paths = cfg.Plans
		}
		if len(paths) == 0 {
			return errors.InvalidArgument("plans", "no plan files given")
		}
		if flags.runID != "" {
			if len(paths) > 1 {
				return errors.InvalidArgument("run-id", "--run-id needs exactly one plan")
			}
			if _, err := validation.ValidateUUID("run-id", flags.runID); err != nil {
				return err
			}
		}

		log := newLogger(cmd, cfg)
		ctx := cmd.Context()

		shutdown, err := observability.Setup(ctx, cfg.Telemetry, cfg.Name, version.GetShortVersion(), cfg.Environment)
		if err != nil {
			return errors.Internal(err)
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
			}
		}()

		metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return errors.Internal(err)
		}

		var builderOpts []plan.BuilderOption
		if len(cfg.PlanDirs) > 0 {
			builderOpts = append(builderOpts, plan.WithLoader(plan.NewFileLoader(cfg.PlanDirs...)))
		}
		runner := plan.NewRunner(
			plan.WithBuilder(plan.NewBuilder(builderOpts...)),
			plan.WithLogger(logger.Get("plan")),
			plan.WithMetrics(metrics),
		)

		log.Debug("running plans", logger.Fields("plans", len(paths), "version", version.GetShortVersion()))
		results, err := runPlans(ctx, runner, paths, flags.runID, cfg.Concurrency)
		if perr := printResults(cmd.OutOrStdout(), cfg.Output, results); perr != nil && err == nil {
			err = perr
		}
		if err != nil && cfg.Output == "json" {
			printError(cmd.OutOrStdout(), err)
		}
		return err
	}

	return cmd
}

// runPlans loads every plan, then runs them with at most limit in flight.
// Results keep the order of paths; a failed plan leaves a nil entry and the
// first failure cancels the plans still running.
func runPlans(ctx context.Context, runner *plan.Runner, paths []string, runID string, limit int) ([]*plan.Result, error) {
	plans := make([]*plan.Plan, len(paths))
	for i, path := range paths {
		p, err := plan.Load(path)
		if err != nil {
			return nil, err
		}
		plans[i] = p
	}

	results := make([]*plan.Result, len(plans))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range plans {
		g.Go(func() error {
			res, err := runner.Run(ctx, p, runID)
			if err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
			results[i] = res
			return nil
		})
	}
	return results, g.Wait()
}

func printResults(w io.Writer, format string, results []*plan.Result) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		for _, res := range results {
			if res == nil {
				continue
			}
			if err := enc.Encode(res); err != nil {
				return errors.Internal(err)
			}
		}
		return nil
	}
	for _, res := range results {
		if res != nil {
			fmt.Fprintln(w, res.String())
		}
	}
	return nil
}

// printError writes err as a JSON error object so json output stays
// machine-readable when a plan fails.
func printError(w io.Writer, err error) {
	resp := errors.Wrap(err).ToResponse()
	resp.Error.Message = err.Error()
	_ = json.NewEncoder(w).Encode(resp)
}
