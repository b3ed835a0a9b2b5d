package feedback

import "strings"

const (
	Kind        = "feedback"
	PropertyKey = "herald.template-hub.feedback.v1"

	idPrefix          = "fb_"
	minSummaryLen     = 3
	maxSummaryLen     = 120
	maxDescriptionLen = 8000
)

type Type string

const (
	TypeBug  Type = "BUG"
	TypeIdea Type = "IDEA"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusRejected   Status = "REJECTED"
)

// ParseType accepts BUG or IDEA in any case.
func ParseType(raw string) (Type, bool) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(raw))); t {
	case TypeBug, TypeIdea:
		return t, true
	default:
		return "", false
	}
}

// ParseStatus normalises case, dashes and spaces, so "in-progress",
// "In Progress" and "inprogress" all give StatusInProgress.
func ParseStatus(raw string) (Status, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if s == "INPROGRESS" {
		s = string(StatusInProgress)
	}
	switch st := Status(s); st {
	case StatusTodo, StatusInProgress, StatusDone, StatusRejected:
		return st, true
	default:
		return "", false
	}
}

// Item is a bug report or an idea.
type Item struct {
	ID                string `json:"id"`
	Type              Type   `json:"type"`
	Status            Status `json:"status"`
	Summary           string `json:"summary"`
	Description       string `json:"description,omitempty"`
	AuthorKey         string `json:"authorKey,omitempty"`
	AuthorDisplayName string `json:"authorDisplayName,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}

func (i Item) EntryID() string { return i.ID }

// sanitize drops items of unknown type and coerces unknown status to TODO.
func sanitize(i Item) (Item, bool) {
	t, ok := ParseType(string(i.Type))
	if !ok {
		return Item{}, false
	}
	i.Type = t
	if st, ok := ParseStatus(string(i.Status)); ok {
		i.Status = st
	} else {
		i.Status = StatusTodo
	}
	i.Summary = strings.TrimSpace(i.Summary)
	i.Description = strings.TrimSpace(i.Description)
	i.AuthorKey = strings.TrimSpace(i.AuthorKey)
	i.AuthorDisplayName = strings.TrimSpace(i.AuthorDisplayName)
	i.CreatedAt = strings.TrimSpace(i.CreatedAt)
	i.UpdatedAt = strings.TrimSpace(i.UpdatedAt)
	return i, true
}

type CreateRequest struct {
	Type        string `json:"type"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// UpdateRequest leaves nil fields unchanged. Type cannot be updated.
// Setting Status requires admin rights; a blank status changes nothing.
type UpdateRequest struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Filter selects items in List. Unrecognised Type or Status values are ignored.
type Filter struct {
	Type   string
	Status string
	Mine   bool
}

type Stats struct {
	Total      int `json:"total"`
	Bugs       int `json:"bugs"`
	Ideas      int `json:"ideas"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
	Rejected   int `json:"rejected"`
}

func computeStats(items []Item) Stats {
	var s Stats
	for _, it := range items {
		s.Total++
		switch it.Type {
		case TypeBug:
			s.Bugs++
		case TypeIdea:
			s.Ideas++
		}
		switch it.Status {
		case StatusTodo:
			s.Todo++
		case StatusInProgress:
			s.InProgress++
		case StatusDone:
			s.Done++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}
