package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/planningtree/internal/domain"
)

// PlanSummary is one row of the plan list.
type PlanSummary struct {
	Plan        domain.Plan
	NodeCount   int
	Highlighted int
}

// TreeEntry is one node of a pre-order walk with its depth below the root.
type TreeEntry struct {
	Node  domain.PlanNode
	Depth int
}

// FormatPlanList renders plans as a table, or a hint when there are none.
func FormatPlanList(plans []PlanSummary) string {
	if len(plans) == 0 {
		return Dim("No plans yet. Create one with 'planningtree plan add'.") + "\n"
	}

	headers := []string{"ID", "NAME", "NODES", "HIGHLIGHTED", "CREATED"}
	rows := make([][]string, 0, len(plans))
	for _, s := range plans {
		highlighted := Dim("-")
		if s.Highlighted > 0 {
			highlighted = StyleYellow.Render(fmt.Sprintf("%d", s.Highlighted))
		}
		rows = append(rows, []string{
			Dim(s.Plan.DisplayID()),
			Bold(s.Plan.Name),
			fmt.Sprintf("%d", s.NodeCount),
			highlighted,
			HumanTimestamp(s.Plan.CreatedAt),
		})
	}
	return RenderTable(headers, rows)
}

// FormatPlanTree renders a plan's walk as a boxed tree. Node ids are shown
// when showIDs is set.
func FormatPlanTree(p domain.Plan, entries []TreeEntry, showIDs bool) string {
	items := TreeItems(entries, showIDs)
	var b strings.Builder
	b.WriteString(Dim("ID  ") + p.DisplayID() + "\n")
	b.WriteString(Dim(Plural(len(entries), "node")) + "\n\n")
	b.WriteString(strings.TrimRight(RenderTree(items), "\n"))
	return RenderBox(p.Name, b.String()) + "\n"
}

// TreeItems converts a pre-order walk into tree lines, working out which
// items close their sibling list.
func TreeItems(entries []TreeEntry, showIDs bool) []TreeItem {
	items := make([]TreeItem, len(entries))
	var open []bool
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		for len(open) <= e.Depth {
			open = append(open, false)
		}
		items[i] = TreeItem{
			Title:       e.Node.Title,
			Level:       e.Depth,
			IsLast:      !open[e.Depth],
			Highlighted: e.Node.IsHighlighted,
		}
		if showIDs {
			items[i].ID = e.Node.ID
		}
		if e.Node.ChildCount > 0 && e.Depth > 0 {
			items[i].Detail = fmt.Sprintf("%d", e.Node.ChildCount)
		}
		open[e.Depth] = true
		for l := e.Depth + 1; l < len(open); l++ {
			open[l] = false
		}
	}
	return items
}
