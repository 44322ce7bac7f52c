package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"listsync/core"
)

func printList(l *core.List) {
	fmt.Printf("%s  (%s)\n", l.Name, l.ID)
	if l.Description != "" {
		fmt.Println(l.Description)
	}
	fmt.Printf("owner: %s", l.Owner.Email)
	if l.ShareCode != "" {
		fmt.Printf("   share code: %s", l.ShareCode)
	}
	fmt.Println()
	if len(l.SharedWith) > 0 {
		var names []string
		for _, c := range l.SharedWith {
			mode := "read"
			if c.CanEdit {
				mode = "edit"
			}
			names = append(names, fmt.Sprintf("%s [%s, %s]", c.Email, c.AccountID, mode))
		}
		fmt.Printf("shared with: %s\n", strings.Join(names, ", "))
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tITEM\tQTY\tCATEGORY")
	for _, item := range l.Items {
		mark := "[ ]"
		if item.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g %s\t%s\n", mark, item.ID, item.Name, item.Quantity, item.Unit, item.Category)
	}
	tw.Flush()
}

func listsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show every list you own or collaborate on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if _, err := lists.FetchLists(ctx); err != nil {
				return userError(err)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tNAME\tITEMS\tOWNER")
			for _, l := range lists.Lists() {
				selected := ""
				if l.ID == prof.CurrentList {
					selected = "*"
				}
				done := 0
				for _, item := range l.Items {
					if item.Completed {
						done++
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n", selected, l.ID, l.Name, done, len(l.Items), l.Owner.Email)
			}
			return tw.Flush()
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [list-id]",
		Short: "Show a list with its items",
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

			l, err := lists.FetchList(ctx, id)
			if err != nil {
				return userError(err)
			}
			printList(l)
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			l, err := lists.CreateList(ctx, args[0], description)
			if err != nil {
				return userError(err)
			}
			prof.CurrentList = l.ID
			if err := prof.save(); err != nil {
				return err
			}
			fmt.Printf("Created %s (%s)\n", l.Name, l.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "list description")
	return cmd
}

func renameCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			patch := core.ListPatch{Name: &args[1]}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			l, err := lists.UpdateList(ctx, args[0], patch)
			if err != nil {
				return userError(err)
			}
			fmt.Printf("Renamed to %s\n", l.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			if err := lists.DeleteList(ctx, args[0]); err != nil {
				return userError(err)
			}
			if prof.CurrentList == args[0] {
				prof.CurrentList = ""
				if err := prof.save(); err != nil {
					return err
				}
			}
			fmt.Println("Deleted")
			return nil
		},
	}
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <list-id>",
		Short: "Select the list item commands act on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			l, err := lists.FetchList(ctx, args[0])
			if err != nil {
				return userError(err)
			}
			prof.CurrentList = l.ID
			if err := prof.save(); err != nil {
				return err
			}
			fmt.Printf("Using %s\n", l.Name)
			return nil
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
