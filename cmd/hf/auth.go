package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:     "login <username>",
	Short:   "Log in and save the session token",
	GroupID: "system",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			p, err := readPassword()
			if err != nil {
				return err
			}
			password = p
		}

		resp, err := apiClient.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		p := &profile{Server: serverURL, Token: resp.Token, Username: args[0]}
		if resp.User != nil {
			p.Role = string(resp.User.Role)
		}
		if err := saveProfile(p); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", p.Username, p.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Revoke the saved session",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.Logout(cmd.Context()); err != nil {
			return err
		}
		if err := removeProfile(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
}

// readPassword prompts without echo on a terminal, or reads one line from a
// pipe.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
