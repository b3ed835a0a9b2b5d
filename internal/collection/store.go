package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/metrics"
)

// Spec describes one collection kind.
type Spec[E Entry] struct {
	Kind string // e.g. "challenges"
	Key  string // property key holding the blob

	// ListField names the blob field holding the entries. Defaults to
	// DefaultListField.
	ListField string

	// Sanitize normalises a decoded entry. Returning false drops it.
	// Id validation and de-duplication happen before Sanitize is called.
	Sanitize func(E) (E, bool)
}

// Options carries the ambient dependencies of a Store.
type Options struct {
	Logger  logger.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Store is the read-modify-write engine over one JSON blob per container.
//
// There is no optimistic concurrency: two Mutate calls racing on the same
// container both write the whole blob and the later one wins.
type Store[E Entry] struct {
	spec    Spec[E]
	props   domain.PropertyStore
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Store for spec backed by props.
func New[E Entry](spec Spec[E], props domain.PropertyStore, opts Options) *Store[E] {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if spec.ListField == "" {
		spec.ListField = DefaultListField
	}
	return &Store[E]{
		spec:    spec,
		props:   props,
		log:     opts.Logger.With(logger.String("collection", spec.Kind)),
		metrics: opts.Metrics,
		now:     opts.Now,
	}
}

// Kind returns the collection kind this store serves.
func (s *Store[E]) Kind() string { return s.spec.Kind }

// Load reads and sanitizes the blob stored on containerID.
//
// Load never fails: a missing, null, empty or undecodable value, as well as a
// read error, yields an empty blob. Entries are decoded one by one and any
// entry that cannot be decoded, has an invalid or duplicate id, or is rejected
// by Sanitize is dropped while the others are kept.
func (s *Store[E]) Load(ctx context.Context, containerID string) Blob[E] {
	raw, ok, err := s.props.Get(ctx, containerID, s.spec.Key)
	if err != nil {
		s.log.Warn("property read failed, treating as empty",
			logger.String("container", containerID),
			logger.Error(err))
		s.metrics.UpstreamFailure("property.get")
		s.metrics.DegradedLoad(s.spec.Kind, "read_error")
		return emptyBlob[E]()
	}
	if !ok {
		return emptyBlob[E]()
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return emptyBlob[E]()
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		s.degraded(containerID, "corrupt", err)
		return emptyBlob[E]()
	}
	if len(fields) == 0 {
		return emptyBlob[E]()
	}

	blob := emptyBlob[E]()
	if v, ok := fields["updatedAt"]; ok {
		var ts string
		if json.Unmarshal(v, &ts) == nil {
			blob.UpdatedAt = ts
		}
	}
	if v, ok := fields["version"]; ok {
		var ver int
		if json.Unmarshal(v, &ver) == nil && ver > 0 {
			blob.Version = ver
		}
	}

	itemsRaw, ok := fields[s.spec.ListField]
	if !ok {
		if unknownShape(fields) {
			s.degraded(containerID, "missing_list", fmt.Errorf("no %q field", s.spec.ListField))
		}
		return blob
	}
	var items []json.RawMessage
	if err := json.Unmarshal(itemsRaw, &items); err != nil {
		s.degraded(containerID, "corrupt_items", err)
		return emptyBlob[E]()
	}

	seen := make(map[string]struct{}, len(items))
	dropped := 0
	for _, item := range items {
		e, ok := s.sanitize(item, seen)
		if !ok {
			dropped++
			continue
		}
		blob.Items = append(blob.Items, e)
	}

	if dropped > 0 {
		s.log.Warn("dropped malformed entries",
			logger.String("container", containerID),
			logger.Int("dropped", dropped),
			logger.Int("kept", len(blob.Items)))
		s.metrics.Dropped(s.spec.Kind, dropped)
	}
	return blob
}

// unknownShape reports whether fields carry anything besides blob metadata.
func unknownShape(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if k != "version" && k != "updatedAt" {
			return true
		}
	}
	return false
}

// encode lays the blob out with the entries under the Spec's list field.
func (s *Store[E]) encode(b Blob[E]) map[string]any {
	out := map[string]any{
		"version":        b.Version,
		s.spec.ListField: b.Items,
	}
	if b.UpdatedAt != "" {
		out["updatedAt"] = b.UpdatedAt
	}
	return out
}

func (s *Store[E]) sanitize(raw json.RawMessage, seen map[string]struct{}) (E, bool) {
	var zero E
	var e E
	if err := json.Unmarshal(raw, &e); err != nil {
		return zero, false
	}
	id := e.EntryID()
	if !ValidID(id) {
		return zero, false
	}
	if _, dup := seen[id]; dup {
		return zero, false
	}
	if s.spec.Sanitize != nil {
		var ok bool
		if e, ok = s.spec.Sanitize(e); !ok {
			return zero, false
		}
	}
	seen[id] = struct{}{}
	return e, true
}

func (s *Store[E]) degraded(containerID, reason string, err error) {
	s.log.Warn("stored blob unreadable, treating as empty",
		logger.String("container", containerID),
		logger.String("reason", reason),
		logger.Error(err))
	s.metrics.DegradedLoad(s.spec.Kind, reason)
}

// List returns the entries accepted by keep, in stored order. A nil keep
// returns everything.
func (s *Store[E]) List(ctx context.Context, containerID string, keep func(E) bool) []E {
	blob := s.Load(ctx, containerID)
	out := make([]E, 0, len(blob.Items))
	for _, e := range blob.Items {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the entry with id or an error wrapping domain.ErrNotFound.
func (s *Store[E]) Get(ctx context.Context, containerID, id string) (E, error) {
	blob := s.Load(ctx, containerID)
	if i := blob.IndexOf(id); i >= 0 {
		return blob.Items[i], nil
	}
	var zero E
	return zero, fmt.Errorf("%s %q: %w", s.spec.Kind, id, domain.ErrNotFound)
}

// Mutate loads the blob, applies f and writes the whole result back in a
// single call. If f returns an error nothing is written.
func (s *Store[E]) Mutate(ctx context.Context, containerID string, f func(*Blob[E]) error) (Blob[E], error) {
	blob := s.Load(ctx, containerID)
	if err := f(&blob); err != nil {
		s.metrics.Mutation(s.spec.Kind, "rejected")
		return Blob[E]{}, err
	}

	blob.Version = CurrentVersion
	blob.UpdatedAt = domain.Timestamp(s.now())
	if blob.Items == nil {
		blob.Items = []E{}
	}

	if err := s.props.Set(ctx, containerID, s.spec.Key, s.encode(blob)); err != nil {
		s.log.Error("property write failed",
			logger.String("container", containerID),
			logger.Error(err))
		s.metrics.UpstreamFailure("property.set")
		s.metrics.Mutation(s.spec.Kind, "failed")
		return Blob[E]{}, domain.Upstream("property.set", err)
	}

	s.metrics.Mutation(s.spec.Kind, "ok")
	s.log.Debug("blob saved",
		logger.String("container", containerID),
		logger.Int("entries", len(blob.Items)))
	return blob, nil
}

// ContainerFor resolves the configured container for kind.
func ContainerFor(ctx context.Context, cfg domain.ContainerConfig, kind string) (string, bool) {
	if cfg == nil {
		return "", false
	}
	id, ok := cfg.ContainerFor(ctx, kind)
	id = strings.TrimSpace(id)
	return id, ok && id != ""
}

// RequireContainer is ContainerFor for mutating paths: an unset container is
// reported as domain.ErrNotConfigured.
func RequireContainer(ctx context.Context, cfg domain.ContainerConfig, kind string) (string, error) {
	id, ok := ContainerFor(ctx, cfg, kind)
	if !ok {
		return "", fmt.Errorf("%s: %w", kind, domain.ErrNotConfigured)
	}
	return id, nil
}
