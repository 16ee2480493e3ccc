package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/planningtree/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newNodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage plan nodes",
		Long: `Manage plan nodes. NODE is a node id or any unique prefix of one,
as shown by 'plan show PLAN --ids'.`,
	}

	cmd.AddCommand(
		newNodeAddCmd(app),
		newNodeRenameCmd(app),
		newNodeHighlightCmd(app),
		newNodeRemoveCmd(app),
	)

	return cmd
}

func newNodeAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add PARENT TITLE",
		Short: "Add a child node under PARENT (a node, or a plan for its root)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parentID, err := resolveParent(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Store.AddChildNode(ctx, parentID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Added %s %s", formatter.Bold(n.Title), formatter.Dim("("+n.DisplayID()+")"))))
			return nil
		},
	}
}

func newNodeRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename NODE TITLE",
		Short: "Change a node's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Store.RenameNode(ctx, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Renamed %s to %s", formatter.Dim(n.DisplayID()), formatter.Bold(n.Title))))
			return nil
		},
	}
}

func newNodeHighlightCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "highlight NODE",
		Short: "Toggle a node's highlight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Store.ToggleHighlight(ctx, id)
			if err != nil {
				return err
			}
			state := "Unhighlighted"
			title := formatter.Bold(n.Title)
			if n.IsHighlighted {
				state = "Highlighted"
				title = formatter.Highlighted(n.Title)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(state+" "+title))
			return nil
		},
	}
}

func newNodeRemoveCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove NODE",
		Aliases: []string{"rm"},
		Short:   "Delete a node and everything under it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Store.GetNode(ctx, id)
			if err != nil {
				return err
			}

			if !yes && app.interactive() && n.ChildCount > 0 {
				confirmed := false
				form := confirmForm(fmt.Sprintf("Delete %q?", n.Title), "Everything below it is deleted too.", &confirmed)
				if err := form.Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Kept."))
					return nil
				}
			}

			removed, err := app.Store.DeleteNode(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Deleted %s (%s)", formatter.Bold(n.Title), formatter.Plural(removed, "node"))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
