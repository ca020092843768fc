package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"ghostpost/internal/continuation/authorization"
)

type keygenOutput struct {
	SigningKey string `json:"signing_key"`
	PublicKey  string `json:"public_key"`
}

func (c *cli) keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a server signing key",
		Long:  "Generate a secp256k1 server signing key. Set GHOSTPOST_SIGNING_KEY to signing_key on the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signer, err := authorization.GenerateSigner()
			if err != nil {
				return err
			}
			return c.printJSON(keygenOutput{
				SigningKey: signer.PrivateKeyHex(),
				PublicKey:  hex.EncodeToString(signer.PublicKey()),
			})
		},
	}
}
