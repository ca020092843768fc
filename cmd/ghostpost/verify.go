package main

import (
	"github.com/spf13/cobra"

	"ghostpost/internal/continuation/boundary"
	"ghostpost/internal/prover"
)

func (c *cli) verifyCmd() *cobra.Command {
	var receiptPath, program string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a receipt and print its journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expected := prover.DefaultProgramID
			if program != "" {
				p, err := prover.ParseProgramID(program)
				if err != nil {
					return err
				}
				expected = p
			}
			receipt, err := readReceipt(receiptPath)
			if err != nil {
				return err
			}
			journal, err := c.engine().Verify(receipt, expected)
			if err != nil {
				return err
			}
			return c.printJSON(boundary.EncodeJournal(journal))
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&receiptPath, "receipt", "r", defaultReceipt, "receipt to verify")
	flags.StringVar(&program, "program-id", "", "expected program id (hex); defaults to the built-in program")
	return cmd
}
