package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func shareCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share-code [list-id]",
		Short: "Get a fresh 6-character join code for a list you own",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := targetList(firstArg(args))
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			code, err := shares.GenerateCode(ctx, id)
			if err != nil {
				return userError(err)
			}
			fmt.Println(code)
			return nil
		},
	}
}

func joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a list with its share code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			l, err := shares.JoinByCode(ctx, args[0])
			if err != nil {
				return userError(err)
			}
			prof.CurrentList = l.ID
			if err := prof.save(); err != nil {
				return err
			}
			fmt.Printf("Joined %s (%s)\n", l.Name, l.ID)
			return nil
		},
	}
}

func inviteCmd() *cobra.Command {
	var listID string
	var canEdit bool
	cmd := &cobra.Command{
		Use:   "invite <email>",
		Short: "Share a list with another account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := targetList(listID)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if _, err := shares.InviteByEmail(ctx, id, args[0], canEdit); err != nil {
				return userError(err)
			}
			fmt.Printf("Shared with %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	cmd.Flags().BoolVar(&canEdit, "can-edit", false, "allow the collaborator to change items")
	return cmd
}

func unshareCmd() *cobra.Command {
	var listID string
	cmd := &cobra.Command{
		Use:   "unshare <account-id>",
		Short: "Revoke a collaborator's access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := targetList(listID)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := shares.RemoveCollaborator(ctx, id, args[0]); err != nil {
				return userError(err)
			}
			fmt.Println("Access revoked")
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	return cmd
}
