package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ghostpost/internal/host"
	"ghostpost/pkg/domain"
)

func (c *cli) enrollCmd() *cobra.Command {
	var (
		server, token, walletPath string
		rawTickets                []string
		force                     bool
	)
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Create a new identity and have the server attest its first commitment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("--token is required; obtain one with login")
			}
			if _, err := os.Stat(walletPath); err == nil && !force {
				return fmt.Errorf("wallet %s already exists; pass --force to replace it", walletPath)
			}
			tickets, err := domain.ParseTickets(rawTickets)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := host.NewClient(server)
			key, err := client.ServerKey(ctx)
			if err != nil {
				return err
			}
			wallet, commitment, err := host.NewEnrollment(c.minter(), tickets)
			if err != nil {
				return err
			}
			att, err := client.Enroll(ctx, token, commitment)
			if err != nil {
				return err
			}
			if !bytes.Equal(att.PublicKey, key.PublicKey) {
				return errors.New("enrollment was signed with a key the server does not advertise")
			}
			if err := wallet.Attest(*att); err != nil {
				return err
			}
			if err := host.SaveWallet(walletPath, wallet); err != nil {
				return err
			}
			c.log.Info("identity enrolled", "wallet", walletPath, "commitment", commitment.String())
			return c.printJSON(map[string]any{
				"commitment": commitment.String(),
				"tickets":    domain.FormatTickets(wallet.Tickets),
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&server, "server", defaultServer, "GhostPost server URL")
	flags.StringVar(&token, "token", "", "forum session token")
	flags.StringVar(&walletPath, "wallet", host.DefaultWalletPath, "wallet file to create")
	flags.StringSliceVar(&rawTickets, "ticket", nil, "initial ticket (decimal); two are minted when none are given")
	flags.BoolVar(&force, "force", false, "replace an existing wallet")
	return cmd
}
