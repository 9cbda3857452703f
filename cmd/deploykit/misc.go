package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/deploykit"
	"github.com/aretw0/deploykit/internal/config"
	"github.com/aretw0/deploykit/internal/presentation/graph"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of deploykit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "deploykit version %s\n", strings.TrimSpace(deploykit.Version))
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("config")
		v := config.New(file)
		if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		if used := config.File(v); used != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Print the deployment lifecycle as a Mermaid diagram",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(state.Edges(), nil))
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(versionCmd, configCmd, statesCmd)
}
