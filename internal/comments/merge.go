package comments

import "github.com/MrSnakeDoc/herald/internal/domain"

// merge joins local threads with native comments on ExternalID.
// It returns the view and how many comments had no native counterpart.
func merge(containerID string, threads []Thread, natives []domain.NativeComment) (View, int) {
	byID := make(map[string]domain.NativeComment, len(natives))
	for _, n := range natives {
		if _, ok := byID[n.ID]; !ok {
			byID[n.ID] = n
		}
	}

	missing := 0
	view := View{Threads: make([]ThreadView, 0, len(threads))}
	for _, t := range threads {
		tv := ThreadView{
			ID:          t.ID,
			ContainerID: t.ContainerID,
			Anchor:      t.Anchor,
			CreatedBy:   t.CreatedBy,
			CreatedAt:   t.CreatedAt,
			Resolved:    t.Resolved,
			Comments:    make([]Comment, 0, len(t.Comments)),
		}
		if tv.ContainerID == "" {
			tv.ContainerID = containerID
		}
		for _, c := range t.Comments {
			n, found := byID[c.ExternalID]
			cv := Comment{
				ID:        c.ID,
				Author:    c.Author,
				Text:      UnavailableText,
				Body:      c.Body,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
			}
			if found {
				cv.Text = n.Body
				if cv.CreatedAt == "" {
					cv.CreatedAt = n.CreatedAt
				}
				if cv.UpdatedAt == "" {
					cv.UpdatedAt = n.UpdatedAt
				}
			} else {
				missing++
			}
			tv.Comments = append(tv.Comments, cv)
		}
		view.Threads = append(view.Threads, tv)
	}
	return view, missing
}
