package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/deploykit/internal/cli"
	"github.com/aretw0/deploykit/pkg/adapters/aelf"
	"github.com/spf13/cobra"
)

var errNoWallet = errors.New("no wallet address: pass --wallet or set wallet.address")

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Wallet.Address == "" {
			return errNoWallet
		}
		stack, err := cli.NewStack(cmd.Context(), cfg, runOptions(cmd))
		if err != nil {
			return err
		}
		defer stack.Close()

		units, err := stack.Deployer.Balance(cmd.Context(), cfg.Wallet.Address)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", aelf.FormatAmount(units))
		return nil
	},
}

var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Claim test tokens for the wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Wallet.Address == "" {
			return errNoWallet
		}
		stack, err := cli.NewStack(cmd.Context(), cfg, runOptions(cmd))
		if err != nil {
			return err
		}
		defer stack.Close()

		drop, err := stack.Deployer.Faucet(cmd.Context(), cfg.Wallet.Address)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Claimed tokens: %s -> %s\n", aelf.FormatAmount(drop.Before), aelf.FormatAmount(drop.After))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd, faucetCmd)
}
