package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghostpost/internal/host"
)

type finalizeOutput struct {
	NewTicket   string `json:"new_ticket"`
	ReplayNonce string `json:"replay_nonce"`
	Commitment  string `json:"commitment"`
}

func (c *cli) finalizeCmd() *cobra.Command {
	var server, receiptPath, walletPath string
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Submit a receipt and record the server's attestation in the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wallet, err := host.LoadWallet(walletPath)
			if err != nil {
				return err
			}
			if wallet.Pending == nil {
				return host.ErrNoPendingState
			}
			receipt, err := readReceipt(receiptPath)
			if err != nil {
				return err
			}
			sub, err := host.NewClient(server).SubmitReceipt(cmd.Context(), receipt)
			if err != nil {
				return err
			}
			if err := host.Finalize(wallet, sub.Attestation); err != nil {
				return fmt.Errorf("server accepted the receipt but the wallet was not updated: %w", err)
			}
			if err := host.SaveWallet(walletPath, wallet); err != nil {
				return err
			}
			c.log.Info("continuation finalized", "wallet", walletPath, "new_ticket", sub.NewTicket.String())
			return c.printJSON(finalizeOutput{
				NewTicket:   sub.NewTicket.String(),
				ReplayNonce: sub.ReplayNonce.String(),
				Commitment:  sub.Attestation.Commitment.String(),
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&server, "server", defaultServer, "GhostPost server URL")
	flags.StringVarP(&receiptPath, "receipt", "r", defaultReceipt, "receipt written by prove")
	flags.StringVar(&walletPath, "wallet", host.DefaultWalletPath, "wallet file")
	return cmd
}
