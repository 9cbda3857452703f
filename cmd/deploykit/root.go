package main

import (
	"fmt"
	"os"

	"github.com/aretw0/deploykit/internal/cli"
	"github.com/aretw0/deploykit/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deploykit",
	Short: "deploykit deploys smart contracts to aelf",
	Long: `deploykit submits a compiled contract, follows the transaction and the
deployment proposal until the contract address is known, and lets the
operator pause, resume or cancel the run along the way.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flagKeys maps configuration keys to the flags that override them.
var flagKeys = map[string]string{
	"node.endpoint":           "node",
	"explorer.url":            "explorer",
	"wallet.address":          "wallet",
	"wallet.sign_command":     "sign-command",
	"deploy.poll_interval":    "poll-interval",
	"deploy.max_wait":         "max-wait",
	"deploy.require_proposal": "require-proposal",
	"lock.redis_addr":         "redis",
	"server.addr":             "addr",
	"log.level":               "log-level",
	"log.json":                "log-json",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: ./deploykit.yaml)")
	pf.String("node", "", "aelf node endpoint")
	pf.String("explorer", "", "Explorer base URL")
	pf.String("wallet", "", "Wallet address")
	pf.String("sign-command", "", "Command that signs the deployment transaction")
	pf.String("redis", "", "Redis address for the distributed deployment lock")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.Bool("log-json", false, "Log as JSON")
	pf.Bool("debug", false, "Log lifecycle events")
	pf.Bool("simulate", false, "Deploy to an in-memory simulated chain")
}

// loadConfig resolves file, environment and flag settings for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	v := config.New(file)
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}

func runOptions(cmd *cobra.Command) cli.RunOptions {
	opts := cli.DefaultRunOptions()
	opts.Simulate, _ = cmd.Flags().GetBool("simulate")
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	if f := cmd.Flags().Lookup("artifact"); f != nil {
		opts.Artifact = f.Value.String()
	}
	return opts
}
