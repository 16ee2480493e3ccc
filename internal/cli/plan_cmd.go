package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderramin/planningtree/internal/cli/formatter"
	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/outline"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage plans",
	}

	cmd.AddCommand(
		newPlanListCmd(app),
		newPlanAddCmd(app),
		newPlanShowCmd(app),
		newPlanRemoveCmd(app),
		newPlanExportCmd(app),
		newPlanImportCmd(app),
	)

	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List plans by name",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			plans := app.Store.ListPlans(ctx)
			summaries := make([]formatter.PlanSummary, 0, len(plans))
			for _, p := range plans {
				s := formatter.PlanSummary{Plan: p}
				err := app.Store.Walk(ctx, p.RootNodeID, func(n domain.PlanNode, _ int) bool {
					s.NodeCount++
					if n.IsHighlighted {
						s.Highlighted++
					}
					return true
				})
				if err != nil {
					return err
				}
				summaries = append(summaries, s)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanList(summaries))
			return nil
		},
	}
}

func newPlanAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add [NAME]",
		Short: "Create a plan; its root node takes the plan's name",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				if !app.interactive() {
					return fmt.Errorf("plan name is required: %w", domain.ErrValidation)
				}
				if err := planNameForm(&name).Run(); err != nil {
					return err
				}
			}

			p, err := app.Store.CreatePlan(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Created plan %s %s", formatter.Bold(p.Name), formatter.Dim("("+p.DisplayID()+")"))))
			return nil
		},
	}
}

func newPlanShowCmd(app *App) *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "show PLAN",
		Short: "Show a plan as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolvePlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			var entries []formatter.TreeEntry
			err = app.Store.Walk(ctx, p.RootNodeID, func(n domain.PlanNode, depth int) bool {
				entries = append(entries, formatter.TreeEntry{Node: n, Depth: depth})
				return true
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlanTree(p, entries, showIDs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	return cmd
}

func newPlanRemoveCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove PLAN",
		Aliases: []string{"rm"},
		Short:   "Delete a plan and every node in it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolvePlan(ctx, app, args[0])
			if err != nil {
				return err
			}

			if !yes && app.interactive() {
				confirmed := false
				form := confirmForm(fmt.Sprintf("Delete plan %q?", p.Name), "All of its nodes are deleted with it.", &confirmed)
				if err := form.Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Kept."))
					return nil
				}
			}

			if err := app.Store.DeletePlan(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Deleted plan %s", formatter.Bold(p.Name))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newPlanExportCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export PLAN",
		Short: "Write a plan as a YAML outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolvePlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			o, err := app.Store.ExportPlan(ctx, p.ID)
			if err != nil {
				return err
			}
			data, err := outline.Marshal(o)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Exported %s to %s", formatter.Bold(p.Name), output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newPlanImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create a plan from a YAML outline (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading outline: %w", err)
			}

			o, err := outline.Parse(data)
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrValidation, err)
			}
			p, err := app.Store.ImportPlan(cmd.Context(), o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Imported plan %s with %s %s",
				formatter.Bold(p.Name), formatter.Plural(o.Root.Count(), "node"), formatter.Dim("("+p.DisplayID()+")"))))
			return nil
		},
	}
}
