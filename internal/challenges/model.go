package challenges

import "strings"

const (
	Kind        = "challenges"
	PropertyKey = "herald.template-hub.challenges.v1"

	idPrefix          = "ch_"
	maxLabelLen       = 140
	maxDescriptionLen = 4000
)

// Challenge is a request for a new template posted on the hub.
type Challenge struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	Deadline          string `json:"deadline,omitempty"`
	Description       string `json:"description,omitempty"`
	AuthorKey         string `json:"authorKey,omitempty"`
	AuthorDisplayName string `json:"authorDisplayName,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}

func (c Challenge) EntryID() string { return c.ID }

// CreateRequest is the payload of Create.
type CreateRequest struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// UpdateRequest is the payload of Update. A nil field is left unchanged;
// an empty Deadline or Description clears it, a blank Label is ignored.
type UpdateRequest struct {
	Label       *string `json:"label"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
}

func sanitize(c Challenge) (Challenge, bool) {
	c.Label = strings.TrimSpace(c.Label)
	c.Deadline = strings.TrimSpace(c.Deadline)
	c.Description = strings.TrimSpace(c.Description)
	c.AuthorKey = strings.TrimSpace(c.AuthorKey)
	c.AuthorDisplayName = strings.TrimSpace(c.AuthorDisplayName)
	c.CreatedAt = strings.TrimSpace(c.CreatedAt)
	c.UpdatedAt = strings.TrimSpace(c.UpdatedAt)
	return c, true
}
