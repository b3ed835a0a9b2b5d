package collection

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/testutil"
)

type item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	State string `json:"state,omitempty"`
}

func (i item) EntryID() string { return i.ID }

const testKey = "test.items.v1"

func newTestStore(props domain.PropertyStore) *Store[item] {
	return New(Spec[item]{
		Kind: "items",
		Key:  testKey,
		Sanitize: func(i item) (item, bool) {
			if i.State == "" {
				i.State = "TODO"
			}
			return i, i.Label != "drop-me"
		},
	}, props, Options{
		Now: func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) },
	})
}

func TestLoadEmptyStates(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
	}{
		{"missing", nil},
		{"null", ptr("null")},
		{"empty object", ptr("{}")},
		{"not json", ptr("{oops")},
		{"array root", ptr("[1,2]")},
		{"items not a list", ptr(`{"items":{"id":"abcdef"}}`)},
		{"blank", ptr("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := testutil.NewProperties()
			if tt.raw != nil {
				props.Put("C-1", testKey, *tt.raw)
			}
			blob := newTestStore(props).Load(context.Background(), "C-1")
			assert.Equal(t, CurrentVersion, blob.Version)
			assert.NotNil(t, blob.Items)
			assert.Empty(t, blob.Items)
		})
	}
}

func TestLoadReadFailureIsEmpty(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{"items":[{"id":"abcdef","label":"x"}]}`)
	props.FailGet = true

	blob := newTestStore(props).Load(context.Background(), "C-1")
	assert.Empty(t, blob.Items)
}

func TestLoadDropsInvalidEntries(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{
		"version": 1,
		"updatedAt": "2026-01-01T00:00:00.000Z",
		"items": [
			{"id":"good_one","label":"a"},
			{"id":"bad id!","label":"b"},
			{"id":"short","label":"c"},
			{"id":"good_two","label":"d","state":"DONE"},
			{"id":"good_one","label":"duplicate"},
			{"id":"drop_this","label":"drop-me"},
			"not an object",
			null,
			{"id":"good_three","label":"e"}
		]
	}`)

	blob := newTestStore(props).Load(context.Background(), "C-1")

	ids := make([]string, 0, len(blob.Items))
	for _, it := range blob.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"good_one", "good_two", "good_three"}, ids)
	assert.Equal(t, "a", blob.Items[0].Label)
	assert.Equal(t, "TODO", blob.Items[0].State, "sanitize should normalise")
	assert.Equal(t, "DONE", blob.Items[1].State)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", blob.UpdatedAt)
}

func TestGet(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{"items":[{"id":"abcdef","label":"x"}]}`)
	s := newTestStore(props)

	got, err := s.Get(context.Background(), "C-1", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Label)

	_, err = s.Get(context.Background(), "C-1", "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{"items":[{"id":"aaaaaa","label":"x"},{"id":"bbbbbb","label":"y"},{"id":"cccccc","label":"x"}]}`)
	s := newTestStore(props)

	all := s.List(context.Background(), "C-1", nil)
	assert.Len(t, all, 3)

	xs := s.List(context.Background(), "C-1", func(i item) bool { return i.Label == "x" })
	require.Len(t, xs, 2)
	assert.Equal(t, "aaaaaa", xs[0].ID)
	assert.Equal(t, "cccccc", xs[1].ID)
}

func TestMutateWritesWholeBlob(t *testing.T) {
	props := testutil.NewProperties()
	s := newTestStore(props)

	blob, err := s.Mutate(context.Background(), "C-1", func(b *Blob[item]) error {
		b.Append(item{ID: "abcdef", Label: "first"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04T05:06:07.000Z", blob.UpdatedAt)

	raw, ok := props.Raw("C-1", testKey)
	require.True(t, ok)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.EqualValues(t, 1, stored["version"])
	assert.Equal(t, "2026-03-04T05:06:07.000Z", stored["updatedAt"])
	assert.Len(t, stored["items"], 1)
}

func TestMutateRemovingLastEntryPersistsEmptyList(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{"items":[{"id":"abcdef","label":"x"}]}`)
	s := newTestStore(props)

	_, err := s.Mutate(context.Background(), "C-1", func(b *Blob[item]) error {
		b.RemoveAt(b.IndexOf("abcdef"))
		return nil
	})
	require.NoError(t, err)

	raw, _ := props.Raw("C-1", testKey)
	assert.True(t, strings.Contains(string(raw), `"items":[]`), string(raw))
}

func TestMutateAbortsWithoutWrite(t *testing.T) {
	props := testutil.NewProperties()
	s := newTestStore(props)

	_, err := s.Mutate(context.Background(), "C-1", func(b *Blob[item]) error {
		return domain.ErrNotFound
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, props.SetCalls)
}

func TestMutateWriteFailureIsUpstream(t *testing.T) {
	props := testutil.NewProperties()
	props.FailSet = true
	s := newTestStore(props)

	_, err := s.Mutate(context.Background(), "C-1", func(b *Blob[item]) error {
		b.Append(item{ID: "abcdef"})
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, testutil.ErrInjected)
}

func TestLastWriteWins(t *testing.T) {
	props := testutil.NewProperties()
	s := newTestStore(props)
	ctx := context.Background()

	// Two writers load the same empty state; the second save overwrites the first.
	first := s.Load(ctx, "C-1")
	second := s.Load(ctx, "C-1")
	first.Append(item{ID: "writer1"})
	second.Append(item{ID: "writer2"})
	require.NoError(t, props.Set(ctx, "C-1", testKey, s.encode(first)))
	require.NoError(t, props.Set(ctx, "C-1", testKey, s.encode(second)))

	got := s.List(ctx, "C-1", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "writer2", got[0].ID)
}

func TestCustomListField(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{"threads":[{"id":"abcdef","label":"x"}]}`)
	s := New(Spec[item]{Kind: "threads", Key: testKey, ListField: "threads"}, props, Options{})
	ctx := context.Background()

	require.Len(t, s.List(ctx, "C-1", nil), 1, "entries are read from the named field")

	_, err := s.Mutate(ctx, "C-1", func(b *Blob[item]) error {
		b.Append(item{ID: "ghijkl", Label: "y"})
		return nil
	})
	require.NoError(t, err)

	raw, _ := props.Raw("C-1", testKey)
	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Contains(t, stored, "threads")
	assert.NotContains(t, stored, "items")

	var entries []item
	require.NoError(t, json.Unmarshal(stored["threads"], &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "abcdef", entries[0].ID, "existing entries survive the write")
}

func TestLoadForeignShapeIsEmpty(t *testing.T) {
	props := testutil.NewProperties()
	props.Put("C-1", testKey, `{"version":1,"threads":[{"id":"abcdef","label":"x"}]}`)
	s := newTestStore(props)

	blob := s.Load(context.Background(), "C-1")
	assert.Empty(t, blob.Items)
	assert.Equal(t, 1, blob.Version)
}

func TestBlobRemoveAtKeepsOrder(t *testing.T) {
	b := Blob[item]{Items: []item{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	b.RemoveAt(1)
	assert.Equal(t, []item{{ID: "a"}, {ID: "c"}}, b.Items)
	b.RemoveAt(-1)
	b.RemoveAt(9)
	assert.Len(t, b.Items, 2)
}

func TestValidID(t *testing.T) {
	valid := []string{"abcdef", "ch_AbC-12_x", "3f2b6c1e-9d7a-4b8e-9c1f-2a3b4c5d6e7f", strings.Repeat("a", 64)}
	invalid := []string{"", "abc", "with space", "slash/abcdef", "dot.abcdef", strings.Repeat("a", 65)}
	for _, id := range valid {
		assert.True(t, ValidID(id), id)
	}
	for _, id := range invalid {
		assert.False(t, ValidID(id), id)
	}
}

func TestRequireContainer(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Containers{"challenges": "HUB-1", "feedback": "  "}

	id, err := RequireContainer(ctx, cfg, "challenges")
	require.NoError(t, err)
	assert.Equal(t, "HUB-1", id)

	_, err = RequireContainer(ctx, cfg, "feedback")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = RequireContainer(ctx, nil, "challenges")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func ptr(s string) *string { return &s }

func TestKeySegment(t *testing.T) {
	tests := map[string]string{
		"Quality-v1":  "quality-v1",
		"a b/c":       "a_b_c",
		"x.y_z":       "x.y_z",
		"":            "unnamed",
		"   ":         "unnamed",
		"Ünïcode":     "_n_code",
		"{curly}[sq]": "_curly__sq_",
	}
	for in, want := range tests {
		assert.Equal(t, want, KeySegment(in), in)
	}
}
