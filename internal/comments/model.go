package comments

import (
	"bytes"
	"encoding/json"

	"github.com/MrSnakeDoc/herald/internal/collection"
)

const (
	// Kind names the collection in logs and metrics.
	Kind = "comments"

	// PropertyKey is the container property holding thread metadata.
	PropertyKey = "herald.comments.v1"

	// ListField is the blob field holding the threads.
	ListField = "threads"

	// UnavailableText replaces the text of a comment missing from the native system.
	UnavailableText = "[comment unavailable]"
)

// Anchor points a thread at a range of the commented content.
type Anchor struct {
	Type    string `json:"type,omitempty"`
	From    *int   `json:"from,omitempty"`
	To      *int   `json:"to,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// CommentEntry is the locally held metadata of one comment.
// ExternalID joins it with the native comment holding the rendered text.
type CommentEntry struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"jiraCommentId"`
	Author     string          `json:"author"`
	Body       json.RawMessage `json:"body,omitempty"`
	CreatedAt  string          `json:"createdAt,omitempty"`
	UpdatedAt  string          `json:"updatedAt,omitempty"`
}

// Thread is a resolvable discussion. Comments are kept in creation order.
type Thread struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────
	ID          string  `json:"id"`
	ContainerID string  `json:"caseId,omitempty"`
	Anchor      *Anchor `json:"anchor,omitempty"`
	CreatedBy   string  `json:"createdBy"`
	CreatedAt   string  `json:"createdAt"`

	// ─────────────────────────────
	// State
	// ─────────────────────────────
	Resolved bool           `json:"resolved"`
	Comments []CommentEntry `json:"comments"`
}

func (t Thread) EntryID() string { return t.ID }

// IndexOf returns the position of the comment with id, or -1.
func (t *Thread) IndexOf(commentID string) int {
	for i, c := range t.Comments {
		if c.ID == commentID {
			return i
		}
	}
	return -1
}

// sanitizeThread drops comments with bad ids or no native id, and drops the
// thread when nothing is left.
func sanitizeThread(t Thread) (Thread, bool) {
	kept := make([]CommentEntry, 0, len(t.Comments))
	seen := make(map[string]struct{}, len(t.Comments))
	for _, c := range t.Comments {
		if !collection.ValidID(c.ID) || c.ExternalID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		c.Body = normalizeBody(c.Body)
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return Thread{}, false
	}
	t.Comments = kept
	return t, true
}

func normalizeBody(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return raw
}

// Input is the payload of a create, reply or edit.
// Body is the editor document; Text is the plain fallback.
type Input struct {
	Text string          `json:"text"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Comment is the merged, displayable form of a CommentEntry.
type Comment struct {
	ID        string          `json:"id"`
	Author    string          `json:"author"`
	Text      string          `json:"text"`
	Body      json.RawMessage `json:"body,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// ThreadView is the merged, displayable form of a Thread.
type ThreadView struct {
	ID          string    `json:"id"`
	ContainerID string    `json:"caseId"`
	Anchor      *Anchor   `json:"anchor,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   string    `json:"createdAt"`
	Resolved    bool      `json:"resolved"`
	Comments    []Comment `json:"comments"`
}

// View is what every operation returns.
type View struct {
	Threads []ThreadView `json:"threads"`
}
