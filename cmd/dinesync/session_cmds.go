package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the backend and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if email == "" {
				fmt.Print("email: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Print("password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return err
				}
				password = string(raw)
			}

			res, err := a.API.Users.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.Session.Login(res.Token, res.Role); err != nil {
				return err
			}

			if res.Role == nil {
				fmt.Println("logged in; no role assigned yet")
				return nil
			}
			fmt.Printf("logged in as %s\n", res.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.Session.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if !a.Session.IsValid() {
				fmt.Println("not logged in")
				return nil
			}

			role, ok := a.Session.Role()
			if !ok {
				fmt.Println("logged in; no role assigned yet")
			} else {
				fmt.Printf("role: %s\n", role)
			}

			user, err := a.API.Users.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("user: %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}
