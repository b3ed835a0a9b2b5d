package collection

import "regexp"

// CurrentVersion is the schema tag written on every save. It is informational only.
const CurrentVersion = 1

// DefaultListField is the blob field holding the entries unless a Spec names another.
const DefaultListField = "items"

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{6,64}$`)

// ValidID reports whether id may be stored as an entry id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Entry is anything stored in a collection blob.
type Entry interface {
	EntryID() string
}

// Blob is the single JSON value stored under one (container, key) pair.
// The entry list is written under the Spec's list field, see Store.encode.
type Blob[E Entry] struct {
	Version   int
	UpdatedAt string
	Items     []E
}

func emptyBlob[E Entry]() Blob[E] {
	return Blob[E]{Version: CurrentVersion, Items: []E{}}
}

// IndexOf returns the position of the entry with id, or -1.
func (b *Blob[E]) IndexOf(id string) int {
	for i, e := range b.Items {
		if e.EntryID() == id {
			return i
		}
	}
	return -1
}

// Append adds e at the end of the list.
func (b *Blob[E]) Append(e E) {
	b.Items = append(b.Items, e)
}

// RemoveAt drops the entry at i, keeping the order of the others.
func (b *Blob[E]) RemoveAt(i int) {
	if i < 0 || i >= len(b.Items) {
		return
	}
	b.Items = append(b.Items[:i:i], b.Items[i+1:]...)
}
