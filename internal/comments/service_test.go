package comments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/herald/internal/domain"
	"github.com/MrSnakeDoc/herald/internal/testutil"
)

const container = "CASE-1"

type fixture struct {
	svc    *Service
	props  *testutil.Properties
	native *testutil.Native
	ctx    context.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	props := testutil.NewProperties()
	native := testutil.NewNative()
	svc := NewService(Deps{
		Properties: props,
		Native:     native,
		Identity:   testutil.NewIdentity(),
		Now:        func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) },
	})
	return fixture{
		svc:    svc,
		props:  props,
		native: native,
		ctx:    testutil.As(context.Background(), "jdoe", "John Doe"),
	}
}

func helloWorld() Input {
	return Input{
		Text: "Hello",
		Body: json.RawMessage(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hello *world*"}]}]}`),
	}
}

func plain(s string) Input { return Input{Text: s} }

func storedThreads(t *testing.T, f fixture) []Thread {
	t.Helper()
	raw, ok := f.props.Raw(container, PropertyKey)
	require.True(t, ok, "blob should be persisted")
	var blob struct {
		Threads []Thread `json:"threads"`
	}
	require.NoError(t, json.Unmarshal(raw, &blob))
	return blob.Threads
}

func TestAddRootCommentEndToEnd(t *testing.T) {
	f := newFixture(t)
	from, to := 3, 9
	anchor := &Anchor{Type: "text", From: &from, To: &to, Snippet: "lo wor"}

	view, err := f.svc.AddRootComment(f.ctx, container, anchor, helloWorld())
	require.NoError(t, err)

	require.Len(t, view.Threads, 1)
	th := view.Threads[0]
	require.Len(t, th.Comments, 1)
	c := th.Comments[0]

	stored := storedThreads(t, f)
	require.Len(t, stored, 1)
	nativeBody, ok := f.native.Body(container, stored[0].Comments[0].ExternalID)
	require.True(t, ok)

	assert.Equal(t, `Hello \*world\*`, nativeBody)
	assert.Equal(t, nativeBody, c.Text)
	assert.Equal(t, "John Doe", c.Author)
	assert.Equal(t, "John Doe", th.CreatedBy)
	assert.Equal(t, container, th.ContainerID)
	assert.Equal(t, anchor, th.Anchor)
	assert.False(t, th.Resolved)
	assert.JSONEq(t, string(helloWorld().Body), string(c.Body))
	assert.Equal(t, "2026-01-01T00:00:00.000Z", c.CreatedAt, "native timestamps are kept")
	assert.Equal(t, "2026-02-01T12:00:00.000Z", th.CreatedAt)

	fetched, err := f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)
	assert.Equal(t, view, fetched)
}

func TestAddRootCommentPlainFallback(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.AddRootComment(f.ctx, container, nil, plain("just *text*"))
	require.NoError(t, err)
	assert.Equal(t, "just *text*", view.Threads[0].Comments[0].Text)
	assert.Nil(t, view.Threads[0].Anchor)
}

func TestAddRootCommentNativeFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.native.FailCreate = true

	_, err := f.svc.AddRootComment(f.ctx, container, nil, helloWorld())
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Zero(t, f.props.SetCalls)
}

func TestAddRootCommentRejectsEmptyInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddRootComment(f.ctx, container, nil, Input{Text: "  ", Body: json.RawMessage(`{"type":"doc"}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Zero(t, f.native.Count(container))
}

func TestAddRootCommentRequiresActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddRootComment(context.Background(), container, nil, plain("hi"))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, f.native.Count(container))
}

func TestRequiresContainer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Fetch(f.ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestReply(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("first thread"))
	require.NoError(t, err)
	v, err = f.svc.AddRootComment(f.ctx, container, nil, plain("second thread"))
	require.NoError(t, err)
	target := v.Threads[0].ID

	bob := testutil.As(context.Background(), "bob", "")
	v, err = f.svc.Reply(bob, container, target, plain("an answer"))
	require.NoError(t, err)

	require.Len(t, v.Threads, 2)
	require.Len(t, v.Threads[0].Comments, 2)
	assert.Equal(t, "first thread", v.Threads[0].Comments[0].Text)
	assert.Equal(t, "an answer", v.Threads[0].Comments[1].Text)
	assert.Equal(t, "bob", v.Threads[0].Comments[1].Author)
	assert.Len(t, v.Threads[1].Comments, 1, "other threads untouched")
}

func TestReplyUnknownThread(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reply(f.ctx, container, "no-such-thread", plain("x"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.native.Count(container), "lookup happens before the native call")
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("before"))
	require.NoError(t, err)
	th := v.Threads[0]
	before := storedThreads(t, f)[0].Comments[0]

	f.native.Clock = func() string { return "2026-05-05T05:05:05.000Z" }
	other := testutil.As(context.Background(), "someone", "Someone Else")
	v, err = f.svc.Edit(other, container, th.ID, th.Comments[0].ID, helloWorld())
	require.NoError(t, err)

	after := storedThreads(t, f)[0].Comments[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.ExternalID, after.ExternalID)
	assert.Equal(t, before.Author, after.Author)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, "2026-05-05T05:05:05.000Z", after.UpdatedAt)
	assert.JSONEq(t, string(helloWorld().Body), string(after.Body))

	assert.Equal(t, `Hello \*world\*`, v.Threads[0].Comments[0].Text)
}

func TestEditUnknownComment(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("x"))
	require.NoError(t, err)
	f.native.FailUpdate = true

	_, err = f.svc.Edit(f.ctx, container, v.Threads[0].ID, "missing-comment", plain("y"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Edit(f.ctx, container, "missing-thread", "missing-comment", plain("y"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditNativeFailureKeepsLocalState(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("x"))
	require.NoError(t, err)
	writes := f.props.SetCalls
	f.native.FailUpdate = true

	_, err = f.svc.Edit(f.ctx, container, v.Threads[0].ID, v.Threads[0].Comments[0].ID, plain("y"))
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, writes, f.props.SetCalls)
}

func TestDeleteLifecycle(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("root"))
	require.NoError(t, err)
	threadID := v.Threads[0].ID
	v, err = f.svc.Reply(f.ctx, container, threadID, plain("reply"))
	require.NoError(t, err)
	rootID := v.Threads[0].Comments[0].ID
	replyID := v.Threads[0].Comments[1].ID

	v, err = f.svc.Delete(f.ctx, container, threadID, rootID)
	require.NoError(t, err)
	require.Len(t, v.Threads, 1)
	require.Len(t, v.Threads[0].Comments, 1)
	assert.Equal(t, "reply", v.Threads[0].Comments[0].Text)
	assert.Equal(t, 1, f.native.Count(container))

	v, err = f.svc.Delete(f.ctx, container, threadID, replyID)
	require.NoError(t, err)
	assert.Empty(t, v.Threads)
	assert.NotNil(t, v.Threads)
	assert.Empty(t, storedThreads(t, f), "empty thread is removed from the blob")
	assert.Zero(t, f.native.Count(container))
}

func TestDeleteUnavailableComment(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("root"))
	require.NoError(t, err)
	th := v.Threads[0]
	stored := storedThreads(t, f)
	require.NoError(t, f.native.Delete(f.ctx, container, stored[0].Comments[0].ExternalID))

	v, err = f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)
	require.Equal(t, UnavailableText, v.Threads[0].Comments[0].Text)

	v, err = f.svc.Delete(f.ctx, container, th.ID, th.Comments[0].ID)
	require.NoError(t, err)
	assert.Empty(t, v.Threads)
	assert.Empty(t, storedThreads(t, f))
}

func TestDeleteNativeFailure(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("root"))
	require.NoError(t, err)
	f.native.FailDelete = true

	_, err = f.svc.Delete(f.ctx, container, v.Threads[0].ID, v.Threads[0].Comments[0].ID)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Len(t, storedThreads(t, f), 1)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.AddRootComment(f.ctx, container, nil, plain("root"))
	require.NoError(t, err)
	id := v.Threads[0].ID

	v, err = f.svc.Resolve(f.ctx, container, id, true)
	require.NoError(t, err)
	assert.True(t, v.Threads[0].Resolved)
	assert.True(t, storedThreads(t, f)[0].Resolved)

	v, err = f.svc.Resolve(f.ctx, container, id, false)
	require.NoError(t, err)
	assert.False(t, v.Threads[0].Resolved)

	writes := f.props.SetCalls
	_, err = f.svc.Resolve(f.ctx, container, "missing-thread", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, writes, f.props.SetCalls)
}

func TestFetchReconciliation(t *testing.T) {
	f := newFixture(t)
	_, err := f.native.Create(f.ctx, container, "native text")
	require.NoError(t, err)

	f.props.Put(container, PropertyKey, `{"version":1,"threads":[
		{"id":"thread-1","anchor":null,"createdBy":"A","createdAt":"t0","resolved":true,"comments":[
			{"id":"comment-1","jiraCommentId":"10001","author":"A"},
			{"id":"comment-2","jiraCommentId":"99999","author":"B","createdAt":"local-c","updatedAt":"local-u"}
		]},
		{"id":"thread-2","caseId":"OTHER-9","createdBy":"A","createdAt":"t1","comments":[
			{"id":"bad id","jiraCommentId":"10001","author":"A"}
		]},
		{"id":"thread-3","caseId":"OTHER-9","createdBy":"A","createdAt":"t2","comments":[
			{"id":"comment-3","jiraCommentId":"","author":"A"},
			{"id":"comment-4","jiraCommentId":"10001","author":"C","body":null}
		]}
	]}`)

	v, err := f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)

	require.Len(t, v.Threads, 2, "thread with only invalid comments is dropped")
	t1 := v.Threads[0]
	assert.Equal(t, container, t1.ContainerID, "container defaults to the fetched one")
	assert.True(t, t1.Resolved)
	require.Len(t, t1.Comments, 2)

	assert.Equal(t, "native text", t1.Comments[0].Text)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", t1.Comments[0].CreatedAt, "native timestamp when local is absent")

	assert.Equal(t, UnavailableText, t1.Comments[1].Text)
	assert.Equal(t, "local-c", t1.Comments[1].CreatedAt)
	assert.Equal(t, "local-u", t1.Comments[1].UpdatedAt)

	t3 := v.Threads[1]
	assert.Equal(t, "OTHER-9", t3.ContainerID)
	require.Len(t, t3.Comments, 1)
	assert.Equal(t, "comment-4", t3.Comments[0].ID)
	assert.Nil(t, t3.Comments[0].Body)
}

func TestExistingThreadsSurviveNewThread(t *testing.T) {
	f := newFixture(t)
	_, err := f.native.Create(f.ctx, container, "kept text")
	require.NoError(t, err)
	f.props.Put(container, PropertyKey, `{"threads":[{"id":"thread-kept-1","caseId":"CASE-1","anchor":null,
		"createdBy":"A","createdAt":"2025-11-01T10:00:00.000Z","resolved":false,"comments":[
			{"id":"comment-kept-1","jiraCommentId":"10001","author":"A","body":null,
			 "createdAt":"2025-11-01T10:00:00.000Z","updatedAt":"2025-11-01T10:00:00.000Z"}
		]}]}`)

	before, err := f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)
	require.Len(t, before.Threads, 1)
	assert.Equal(t, "kept text", before.Threads[0].Comments[0].Text)

	after, err := f.svc.AddRootComment(f.ctx, container, nil, plain("new"))
	require.NoError(t, err)
	require.Len(t, after.Threads, 2)
	assert.Equal(t, "thread-kept-1", after.Threads[0].ID)

	stored := storedThreads(t, f)
	require.Len(t, stored, 2)
	assert.Equal(t, "thread-kept-1", stored[0].ID)
	assert.Equal(t, "10001", stored[0].Comments[0].ExternalID)
}

func TestFetchPrefersLocalTimestamps(t *testing.T) {
	f := newFixture(t)
	_, err := f.native.Create(f.ctx, container, "x")
	require.NoError(t, err)
	f.props.Put(container, PropertyKey, `{"threads":[{"id":"thread-1","createdBy":"A","createdAt":"t0","comments":[
		{"id":"comment-1","jiraCommentId":"10001","author":"A","createdAt":"2025-12-31T00:00:00.000Z","updatedAt":"2025-12-31T01:00:00.000Z"}
	]}]}`)

	v, err := f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)
	c := v.Threads[0].Comments[0]
	assert.Equal(t, "2025-12-31T00:00:00.000Z", c.CreatedAt)
	assert.Equal(t, "2025-12-31T01:00:00.000Z", c.UpdatedAt)
}

func TestFetchEmptyAndCorrupt(t *testing.T) {
	f := newFixture(t)

	v, err := f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)
	assert.Empty(t, v.Threads)

	f.props.Put(container, PropertyKey, `{"threads":"garbage"}`)
	v, err = f.svc.Fetch(f.ctx, container)
	require.NoError(t, err)
	assert.Empty(t, v.Threads)
}

func TestFetchNativeFailure(t *testing.T) {
	f := newFixture(t)
	f.native.FailList = true

	_, err := f.svc.Fetch(f.ctx, container)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestMetadataWriteFailureAfterNativeCreate(t *testing.T) {
	f := newFixture(t)
	f.props.FailSet = true

	_, err := f.svc.AddRootComment(f.ctx, container, nil, plain("x"))
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 1, f.native.Count(container), "no compensating delete is attempted")
}
