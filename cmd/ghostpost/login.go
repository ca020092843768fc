package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ghostpost/internal/host"
)

func (c *cli) loginCmd() *cobra.Command {
	var server, username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the forum and print a session token for enroll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			token, err := host.NewClient(server).Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, token)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&server, "server", defaultServer, "GhostPost server URL")
	flags.StringVarP(&username, "username", "u", "", "forum username")
	flags.StringVarP(&password, "password", "p", "", "forum password")
	return cmd
}
