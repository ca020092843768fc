package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ghostpost/internal/continuation/boundary"
	"ghostpost/internal/host"
)

func (c *cli) proveCmd() *cobra.Command {
	var inputPath, receiptPath, walletPath, ticketsPath string
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Prove a continuation of the wallet's identity",
		Long: "Prove a continuation of the wallet's identity against a proof input. " +
			"The receipt and the resulting ticket list are written to disk and the " +
			"new state is kept in the wallet until finalize.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("read proof input: %w", err)
			}
			req, err := boundary.DecodeProofRequest(f)
			_ = f.Close()
			if err != nil {
				return err
			}

			wallet, err := host.LoadWallet(walletPath)
			if err != nil {
				return err
			}
			in, err := host.BuildPrivateInput(wallet, req, c.minter())
			if err != nil {
				return err
			}
			proved, err := host.Prove(cmd.Context(), c.engine(), in)
			if err != nil {
				return err
			}

			if err := writeReceipt(receiptPath, proved.Receipt); err != nil {
				return err
			}
			if err := writeJSONFile(ticketsPath, proved.Tickets); err != nil {
				return err
			}
			wallet.Stage(proved.Outcome, in.NewNonce)
			if err := host.SaveWallet(walletPath, wallet); err != nil {
				return err
			}
			c.log.Info("continuation proved",
				"receipt", receiptPath,
				"new_ticket", in.NewTicket.String(),
				"commitment", proved.Outcome.Journal.NewCommitment.String(),
			)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&inputPath, "proof-input", defaultProofInput, "proof input JSON")
	flags.StringVarP(&receiptPath, "receipt", "r", defaultReceipt, "where to write the receipt")
	flags.StringVar(&walletPath, "wallet", host.DefaultWalletPath, "wallet file")
	flags.StringVar(&ticketsPath, "tickets-out", defaultTicketsPath, "where to write the ticket list")
	return cmd
}
