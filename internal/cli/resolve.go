package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/planningtree/internal/domain"
)

// resolveNodeID resolves a node identifier which can be a full id or any
// unique prefix of one.
func resolveNodeID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("node id is required: %w", domain.ErrValidation)
	}
	ids := app.Store.NodeIDs(ctx)
	matches := prefixMatches(ids, input)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("node %q: %w", input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		if slices.Contains(matches, input) {
			return input, nil
		}
		return "", fmt.Errorf("node id %q is ambiguous (%d matches); use more characters", input, len(matches))
	}
}

// prefixMatches returns the entries of sorted that start with prefix.
func prefixMatches(sorted []string, prefix string) []string {
	start, _ := slices.BinarySearch(sorted, prefix)
	end := start
	for end < len(sorted) && strings.HasPrefix(sorted[end], prefix) {
		end++
	}
	return sorted[start:end]
}

// resolvePlan finds a plan by exact id, exact name, case-insensitive name or
// unique id prefix, in that order.
func resolvePlan(ctx context.Context, app *App, input string) (domain.Plan, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.Plan{}, fmt.Errorf("plan is required: %w", domain.ErrValidation)
	}
	plans := app.Store.ListPlans(ctx)

	for _, p := range plans {
		if p.ID == input {
			return p, nil
		}
	}

	var byName, byFold, byPrefix []domain.Plan
	for _, p := range plans {
		switch {
		case p.Name == input:
			byName = append(byName, p)
		case strings.EqualFold(p.Name, input):
			byFold = append(byFold, p)
		}
		if strings.HasPrefix(p.ID, input) {
			byPrefix = append(byPrefix, p)
		}
	}
	for _, candidates := range [][]domain.Plan{byName, byFold, byPrefix} {
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		default:
			return domain.Plan{}, fmt.Errorf("%q matches %d plans; use the plan id", input, len(candidates))
		}
	}
	return domain.Plan{}, fmt.Errorf("plan %q: %w", input, domain.ErrNotFound)
}

// resolveParent accepts a node id (or prefix) and falls back to a plan
// reference, in which case the plan's root is the parent.
func resolveParent(ctx context.Context, app *App, input string) (string, error) {
	id, nodeErr := resolveNodeID(ctx, app, input)
	if nodeErr == nil {
		return id, nil
	}
	p, planErr := resolvePlan(ctx, app, input)
	if planErr != nil {
		return "", nodeErr
	}
	return p.RootNodeID, nil
}
