package main

import (
	"os"

	"github.com/aretw0/deploykit/internal/cli"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [artifact]",
	Short: "Deploy a compiled contract",
	Long: `Submits the compiled contract and waits for it to be deployed.

Press Ctrl+C once to pause: you will be asked whether to continue.
Press it again while paused to cancel.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := runOptions(cmd)
		if len(args) > 0 {
			opts.Artifact = args[0]
		}
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		opts.AssumeYes, _ = cmd.Flags().GetBool("yes")

		_, err = cli.RunDeploy(cmd.Context(), cfg, opts, cli.Terminal{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
		return err
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().String("artifact", "", "Path to the compiled contract (overrides deploy.artifact)")
	deployCmd.Flags().Duration("poll-interval", 0, "Delay between status checks")
	deployCmd.Flags().Duration("max-wait", 0, "Give up polling after this long (0 waits for the chain)")
	deployCmd.Flags().Bool("require-proposal", true, "Wait for the deployment proposal to be released")
	deployCmd.Flags().BoolP("yes", "y", false, "Continue paused deployments without asking")
	deployCmd.Flags().BoolP("quiet", "q", false, "Print messages only, without banner, progress or summary")
}
