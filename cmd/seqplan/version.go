package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/seqkit/version"
)

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Args:  cobra.NoArgs,
	}

	asJSON := cmd.Flags().Bool("json", false, "print version information as JSON")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		info := version.GetVersionInfo()
		if *asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return err
	}

	return cmd
}
