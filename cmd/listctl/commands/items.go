package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"listsync/core"
)

func parseCategory(s string) (core.Category, error) {
	if s == "" {
		return "", nil
	}
	c, ok := core.ParseCategory(s)
	if !ok {
		known := make([]string, len(core.Categories))
		for i, c := range core.Categories {
			known[i] = string(c)
		}
		return "", fmt.Errorf("unknown category %q (one of %s)", s, strings.Join(known, ", "))
	}
	return c, nil
}

func addCmd() *cobra.Command {
	var (
		listID   string
		quantity float64
		unit     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item to a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := targetList(listID)
			if err != nil {
				return err
			}
			c, err := parseCategory(category)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			item, err := lists.AddItem(ctx, id, core.ItemInput{Name: args[0], Quantity: quantity, Unit: unit, Category: c})
			if err != nil {
				return userError(err)
			}
			fmt.Printf("Added %s (%s)\n", item.Name, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	cmd.Flags().Float64VarP(&quantity, "qty", "q", 1, "quantity")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "unit, e.g. "+strings.Join(core.Units, ", "))
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	return cmd
}

func editCmd() *cobra.Command {
	var (
		listID   string
		name     string
		quantity float64
		unit     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Change fields of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, err := targetList(listID)
			if err != nil {
				return err
			}
			var patch core.ItemPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("qty") {
				patch.Quantity = &quantity
			}
			if flags.Changed("unit") {
				patch.Unit = &unit
			}
			if flags.Changed("category") {
				c, err := parseCategory(category)
				if err != nil {
					return err
				}
				patch.Category = &c
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()

			item, err := lists.UpdateItem(ctx, id, args[0], patch)
			if err != nil {
				return userError(err)
			}
			fmt.Printf("Updated %s\n", item.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().Float64VarP(&quantity, "qty", "q", 1, "new quantity")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "new unit")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	return cmd
}

func toggleCmd() *cobra.Command {
	var listID string
	cmd := &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Flip an item between done and pending",
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

			item, err := lists.ToggleItem(ctx, id, args[0])
			if err != nil {
				return userError(err)
			}
			state := "pending"
			if item.Completed {
				state = "done"
			}
			fmt.Printf("%s is %s\n", item.Name, state)
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	return cmd
}

func rmCmd() *cobra.Command {
	var listID string
	cmd := &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove an item",
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

			if err := lists.DeleteItem(ctx, id, args[0]); err != nil {
				return userError(err)
			}
			fmt.Println("Removed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	return cmd
}

func clearCmd() *cobra.Command {
	var listID string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed item",
		Args:  cobra.NoArgs,
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

			if err := lists.ClearCompleted(ctx, id); err != nil {
				return userError(err)
			}
			fmt.Println("Cleared completed items")
			return nil
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list id (default: selected list)")
	return cmd
}
