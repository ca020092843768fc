package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ghostpost/internal/host"
	"ghostpost/internal/prover"
)

const (
	defaultServer      = "http://localhost:8080"
	defaultProofInput  = "proof_input.json"
	defaultReceipt     = "receipt.json"
	defaultTicketsPath = "tickets.json"
)

// cli carries what every subcommand shares. random is nil outside tests, in
// which case the minter draws from crypto/rand.
type cli struct {
	out    io.Writer
	log    *slog.Logger
	random io.Reader
}

func newRootCmd(out io.Writer, log *slog.Logger) *cobra.Command {
	return (&cli{out: out, log: log}).root()
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "ghostpost",
		Short:         "Private identity continuation for the GhostPost forum",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	root.AddCommand(
		c.keygenCmd(),
		c.loginCmd(),
		c.enrollCmd(),
		c.requestCmd(),
		c.proveCmd(),
		c.verifyCmd(),
		c.finalizeCmd(),
	)
	return root
}

func (c *cli) minter() *host.Minter {
	return host.NewMinter(c.random)
}

func (c *cli) engine() *prover.DevEngine {
	return prover.NewDevEngine(prover.WithLogger(c.log))
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeReceipt(path string, r *prover.Receipt) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	if err := prover.EncodeReceipt(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readReceipt(path string) (*prover.Receipt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	defer f.Close()
	return prover.DecodeReceipt(f)
}
