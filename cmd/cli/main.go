package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gotransfer-cli",
		Short:         "gotransfer CLI tool",
		Long:          `A command line interface for interacting with the gotransfer API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the gotransfer API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(newTransferCmd(), newBalanceCmd(), newBenchCmd())

	return rootCmd
}

func newTransferCmd() *cobra.Command {
	var (
		sender   string
		receiver string
		amount   int64
		key      string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move funds between two accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(baseURL, timeout)
			res, err := c.Transfer(cmd.Context(), transferBody{
				Sender:         sender,
				Receiver:       receiver,
				Amount:         amount,
				IdempotencyKey: key,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", res.StatusCode, res.Message)
			if res.StatusCode >= 400 {
				return fmt.Errorf("transfer rejected with status %d", res.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "Sender account id")
	cmd.Flags().StringVar(&receiver, "receiver", "", "Receiver account id")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to move")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (generated when empty)")
	_ = cmd.MarkFlagRequired("sender")
	_ = cmd.MarkFlagRequired("receiver")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(baseURL, timeout)
			res, err := c.Balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", res.StatusCode, res.Message)
			if res.StatusCode != 200 {
				return fmt.Errorf("balance query failed with status %d", res.StatusCode)
			}
			return nil
		},
	}
}
