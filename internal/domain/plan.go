package domain

import "time"

// Plan is a read-only snapshot of a named plan and the id of its root node.
type Plan struct {
	ID         string
	Name       string
	RootNodeID string
	CreatedAt  time.Time
}

// DisplayID returns the first 8 characters of the plan ID.
func (p Plan) DisplayID() string {
	return shortID(p.ID)
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
