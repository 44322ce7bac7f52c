package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"listsync/cache"
	"listsync/core"
	"listsync/remote"
	"listsync/share"
)

var (
	home    string
	apiURL  string
	timeout time.Duration
	verbose bool

	prof   *profile
	client *remote.Client
	lists  *cache.Cache
	shares *share.Protocol
)

func Execute() error {
	err := newRoot().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "listctl",
		Short:         "Shared shopping lists from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logrus.SetLevel(logrus.WarnLevel)
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".listctl")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			if prof, err = loadProfile(home); err != nil {
				return err
			}
			if apiURL != "" {
				prof.API = apiURL
			}
			if prof.API == "" {
				prof.API = os.Getenv("LIST_API_URL")
			}

			client = remote.New(prof.API, nil)
			client.SetCredential(prof.Token)
			client.SetUnauthorizedHandler(func() {
				prof.forget()
				if err := prof.save(); err != nil {
					logrus.WithError(err).Warn("Failed to clear stored credential")
				}
				fmt.Fprintln(os.Stderr, "Session expired, please log in again.")
			})
			lists = cache.New(client)
			shares = share.New(client, lists)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.listctl)")
	root.PersistentFlags().StringVar(&apiURL, "api", "", "authority base URL (default $LIST_API_URL or "+remote.DefaultBaseURL+")")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests")

	root.AddCommand(
		loginCmd(), registerCmd(), logoutCmd(), meCmd(),
		listsCmd(), showCmd(), createCmd(), renameCmd(), deleteCmd(), useCmd(),
		addCmd(), editCmd(), toggleCmd(), rmCmd(), clearCmd(),
		shareCodeCmd(), joinCmd(), inviteCmd(), unshareCmd(),
	)
	root.SetErr(os.Stderr)
	return root
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// requireLogin fails early when no credential is stored.
func requireLogin() error {
	if prof.Token == "" {
		return fmt.Errorf("not logged in, run `listctl login` first")
	}
	return nil
}

// userError turns err into the text the authority or validation gave.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", core.Message(err))
}

// targetList returns id, or the list selected with `use` when id is empty.
func targetList(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if prof.CurrentList == "" {
		return "", fmt.Errorf("no list given and none selected, run `listctl use <list-id>`")
	}
	return prof.CurrentList, nil
}
