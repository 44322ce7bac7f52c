package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"listsync/core"
)

// readPassword takes the password from the flag or the first stdin line.
func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func storeLogin(res *core.AuthResult) error {
	prof.Token = res.AccessToken
	prof.AccountID = res.User.ID
	prof.Email = res.User.Email
	prof.Name = res.User.Name
	prof.CurrentList = ""
	client.SetCredential(res.AccessToken)
	return prof.save()
}

func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in with email and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			// A refused login is an answer, not an expired session.
			client.SetUnauthorizedHandler(nil)
			ctx, cancel := requestContext(cmd)
			defer cancel()

			res, err := client.Login(ctx, core.NormalizeEmail(args[0]), pw)
			if errors.Is(err, core.ErrUnauthorized) {
				return errors.New("invalid email or password")
			}
			if err != nil {
				return userError(err)
			}
			if err := storeLogin(res); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	return cmd
}

func registerCmd() *cobra.Command {
	var password, name string
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := core.NormalizeEmail(args[0])
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			if name == "" {
				name = email
			}
			client.SetUnauthorizedHandler(nil)
			ctx, cancel := requestContext(cmd)
			defer cancel()

			res, err := client.Register(ctx, email, pw, name)
			if err != nil {
				return userError(err)
			}
			if err := storeLogin(res); err != nil {
				return err
			}
			fmt.Printf("Registered and logged in as %s\n", res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: email)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prof.forget()
			client.SetCredential("")
			lists.Clear()
			if err := prof.save(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			account, err := client.Me(ctx)
			if err != nil {
				return userError(err)
			}
			fmt.Printf("%s <%s>\nid: %s\n", account.Name, account.Email, account.ID)
			return nil
		},
	}
}
