package main

import (
	"github.com/spf13/cobra"

	"ghostpost/internal/host"
)

func (c *cli) requestCmd() *cobra.Command {
	var server, walletPath, out string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Fetch the callback board and write the proof input for prove",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wallet, err := host.LoadWallet(walletPath)
			if err != nil {
				return err
			}
			callbacks, err := host.NewClient(server).Callbacks(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeJSONFile(out, host.ProofRequestFor(wallet, callbacks)); err != nil {
				return err
			}
			c.log.Info("proof input written", "path", out, "callbacks", len(callbacks))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&server, "server", defaultServer, "GhostPost server URL")
	flags.StringVar(&walletPath, "wallet", host.DefaultWalletPath, "wallet file")
	flags.StringVarP(&out, "out", "o", defaultProofInput, "where to write the proof input")
	return cmd
}
