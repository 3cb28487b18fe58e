package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/plan"
)

func checkCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <plan-file>",
		Short: "validate a plan and print it in normalized form",
		Args:  cobra.ExactArgs(1),
	}

	format := cmd.Flags().String("format", "toml", "output format: toml or yaml")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(global)
		if err != nil {
			return err
		}
		newLogger(cmd, cfg)

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		var opts []plan.BuilderOption
		if len(cfg.PlanDirs) > 0 {
			opts = append(opts, plan.WithLoader(plan.NewFileLoader(cfg.PlanDirs...)))
		}
		pl, err := plan.NewBuilder(opts...).Check(p)
		if err != nil {
			return err
		}

		data, err := plan.Encode(p, *format)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return errors.Internal(err)
		}
		if pl.Unbounded() {
			cmd.PrintErrln("note: the pipeline never ends; only first and is_empty terminate")
		}
		return nil
	}

	return cmd
}
