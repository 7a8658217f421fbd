package chat_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/chat"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

var base = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// fakeBackend is an in-memory message store and directory.
type fakeBackend struct {
	users    []model.User
	messages []model.Message
	sendErr  error
	fetchErr error
	nextID   int
	clock    time.Time
}

func newFakeBackend(users ...model.User) *fakeBackend {
	return &fakeBackend{users: users, clock: base}
}

func (f *fakeBackend) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// deliver stores a message written by another client and returns it, as
// the change feed would.
func (f *fakeBackend) deliver(from, to, body string) model.Message {
	f.nextID++
	m := model.Message{
		ID: fmt.Sprintf("m%d", f.nextID), SenderID: from, RecipientID: to,
		Body: body, SentAt: f.tick(),
	}
	f.messages = append(f.messages, m)
	return m
}

func (f *fakeBackend) FetchConversation(_ context.Context, a, b string) ([]model.Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []model.Message
	for _, m := range f.messages {
		if m.Involves(a, b) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, msg model.Message) (model.Message, error) {
	if f.sendErr != nil {
		return model.Message{}, f.sendErr
	}
	f.nextID++
	msg.ID = fmt.Sprintf("m%d", f.nextID)
	msg.SentAt = f.tick()
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeBackend) LatestMessages(_ context.Context, viewerID string) (map[string]model.Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := map[string]model.Message{}
	for _, m := range f.messages {
		if c := m.Counterpart(viewerID); c != "" {
			out[c] = m
		}
	}
	return out, nil
}

func (f *fakeBackend) MessagesSince(_ context.Context, viewerID string, since time.Time) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if m.Counterpart(viewerID) != "" && m.SentAt.After(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListOtherUsers(_ context.Context, viewerID string) ([]model.User, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []model.User
	for _, u := range f.users {
		if u.ID != viewerID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetUser(_ context.Context, id string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeBackend) ListUsers(_ context.Context) ([]model.User, error) {
	return f.users, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, u model.User) (model.User, error) {
	f.users = append(f.users, u)
	return u, nil
}

func newSession(t *testing.T) (*chat.Session, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(
		model.User{ID: "me", Name: "Yo", CreatedAt: base},
		model.User{ID: "ana", Name: "Ana", CreatedAt: base},
		model.User{ID: "bruno", Name: "Bruno", CreatedAt: base},
	)
	s := chat.NewSession("me", backend, backend,
		chat.WithDedupCapacity(32),
		chat.WithClock(func() time.Time { return base }),
	)
	require.NoError(t, s.LoadDirectory(context.Background()))
	return s, backend
}

func summary(t *testing.T, s *chat.Session, id string) model.ConversationSummary {
	t.Helper()
	for _, c := range s.Summaries() {
		if c.Counterpart.ID == id {
			return c
		}
	}
	t.Fatalf("no summary for %s", id)
	return model.ConversationSummary{}
}

func TestRedeliveredMessageShowsOnce(t *testing.T) {
	s, backend := newSession(t)

	m1 := backend.deliver("ana", "me", "hola")
	outcome, err := s.HandleInserted(m1)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeApplied, outcome)

	outcome, err = s.HandleInserted(m1)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeDuplicate, outcome)

	ana := summary(t, s, "ana")
	assert.Equal(t, m1.ID, ana.Latest.ID)
	assert.Equal(t, 1, ana.Unread)
	assert.Equal(t, "ana", s.Summaries()[0].Counterpart.ID)
	assert.Equal(t, 1, s.UnreadCount())

	require.NoError(t, s.Open(context.Background(), "ana"))
	outcome, err = s.HandleInserted(m1)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeDuplicate, outcome, "history seeds the open conversation")
	assert.Len(t, s.Thread(), 1)
}

func TestRedeliveryAfterScopeChangeKeepsReadMarker(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()

	m1 := backend.deliver("ana", "me", "hola")
	_, err := s.HandleInserted(m1)
	require.NoError(t, err)

	require.NoError(t, s.Open(ctx, "ana"))
	s.Close()
	// Opening another conversation clears the recently-seen set.
	require.NoError(t, s.Open(ctx, "bruno"))
	s.Close()

	outcome, err := s.HandleInserted(m1)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeDuplicate, outcome)
	assert.Equal(t, 0, summary(t, s, "ana").Unread)

	require.NoError(t, s.LoadDirectory(ctx))
	assert.Equal(t, 0, summary(t, s, "ana").Unread, "rebuild keeps the conversation read")
}

func TestOutOfOrderRedeliveryLeavesLatestAndUnread(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()

	m1 := backend.deliver("ana", "me", "uno")
	m2 := backend.deliver("ana", "me", "dos")
	for _, m := range []model.Message{m1, m2} {
		_, err := s.HandleInserted(m)
		require.NoError(t, err)
	}
	require.NoError(t, s.Open(ctx, "ana"))
	s.Close()
	require.NoError(t, s.Open(ctx, "bruno"))
	s.Close()

	for _, m := range []model.Message{m2, m1} {
		outcome, err := s.HandleInserted(m)
		require.NoError(t, err)
		assert.Equal(t, chat.OutcomeDuplicate, outcome, m.ID)
	}

	ana := summary(t, s, "ana")
	assert.Equal(t, m2.ID, ana.Latest.ID)
	assert.Equal(t, 0, ana.Unread)
}

func TestLateOlderMessageJoinsOpenThreadOnly(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()

	m1 := backend.deliver("ana", "me", "uno")
	_, err := s.HandleInserted(m1)
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx, "ana"))

	late := model.Message{ID: "late", SenderID: "ana", RecipientID: "me", Body: "antes", SentAt: base}
	outcome, err := s.HandleInserted(late)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeApplied, outcome)

	thread := s.Thread()
	require.Len(t, thread, 2)
	assert.Equal(t, "late", thread[0].ID)
	assert.Equal(t, m1.ID, summary(t, s, "ana").Latest.ID)
	assert.Equal(t, 0, summary(t, s, "ana").Unread)
}

func TestOpenReplyThenCounterpartWrites(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()

	_, err := s.HandleInserted(backend.deliver("ana", "me", "¿estás bien?"))
	require.NoError(t, err)
	require.Equal(t, 1, summary(t, s, "ana").Unread)

	require.NoError(t, s.Open(ctx, "ana"))
	assert.Equal(t, 0, summary(t, s, "ana").Unread)

	reply, err := s.Send(ctx, "sí, todo bien")
	require.NoError(t, err)
	assert.Equal(t, 0, summary(t, s, "ana").Unread)
	assert.Equal(t, reply.ID, summary(t, s, "ana").Latest.ID)

	// The change feed echoes the reply.
	outcome, err := s.HandleInserted(reply)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeDuplicate, outcome)
	assert.Len(t, s.Thread(), 2)

	s.Close()
	_, err = s.HandleInserted(backend.deliver("ana", "me", "perfecto"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary(t, s, "ana").Unread)
}

func TestMessageToOpenConversationIsRead(t *testing.T) {
	s, backend := newSession(t)
	require.NoError(t, s.Open(context.Background(), "ana"))

	m := backend.deliver("ana", "me", "hola")
	outcome, err := s.HandleInserted(m)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeApplied, outcome)

	assert.Equal(t, 0, summary(t, s, "ana").Unread)
	thread := s.Thread()
	require.Len(t, thread, 1)
	assert.Equal(t, m.ID, thread[0].ID)

	// A message from someone else still starts unread.
	_, err = s.HandleInserted(backend.deliver("bruno", "me", "hola"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary(t, s, "bruno").Unread)
	assert.Len(t, s.Thread(), 1)
}

func TestSendFailureRollsBack(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, "ana"))

	backend.sendErr = errors.New("backend unavailable")
	_, err := s.Send(ctx, "  hola  ")
	require.Error(t, err)
	assert.True(t, source.IsSendFailed(err))

	var sf *source.SendFailedError
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, "hola", sf.Pending.Body)
	assert.True(t, sf.Pending.IsLocal())
	assert.ErrorIs(t, err, backend.sendErr)

	assert.Empty(t, s.Thread())
	assert.Nil(t, summary(t, s, "ana").Latest)
}

func TestOptimisticSendLifecycle(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, "ana"))

	p, err := s.BeginSend("hola")
	require.NoError(t, err)
	thread := s.Thread()
	require.Len(t, thread, 1)
	assert.True(t, thread[0].IsLocal())
	assert.Equal(t, "ana", thread[0].RecipientID)

	stored, err := backend.SendMessage(ctx, p.Message)
	require.NoError(t, err)

	// The change feed delivers the stored row before the send returns.
	outcome, err := s.HandleInserted(stored)
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeApplied, outcome)

	require.NoError(t, s.CompleteSend(p, stored, nil))
	thread = s.Thread()
	require.Len(t, thread, 1)
	assert.Equal(t, stored.ID, thread[0].ID)
}

func TestBeginSendValidation(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.BeginSend("hola")
	assert.ErrorIs(t, err, chat.ErrNoConversation)

	require.NoError(t, s.Open(context.Background(), "ana"))
	_, err = s.BeginSend("   ")
	assert.ErrorIs(t, err, chat.ErrEmptyMessage)
}

func TestUnknownCounterpartIsDropped(t *testing.T) {
	s, _ := newSession(t)

	outcome, err := s.HandleInserted(model.Message{ID: "x", SenderID: "zoe", RecipientID: "me"})
	assert.Equal(t, chat.OutcomeIgnored, outcome)
	assert.ErrorIs(t, err, source.ErrUnknownCounterpart)

	err = s.Open(context.Background(), "zoe")
	assert.ErrorIs(t, err, source.ErrUnknownCounterpart)
}

func TestForeignMessageIsIgnored(t *testing.T) {
	s, _ := newSession(t)

	outcome, err := s.HandleInserted(model.Message{ID: "x", SenderID: "ana", RecipientID: "bruno"})
	require.NoError(t, err)
	assert.Equal(t, chat.OutcomeIgnored, outcome)
}

func TestTransientFetchKeepsState(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()
	_, err := s.HandleInserted(backend.deliver("ana", "me", "hola"))
	require.NoError(t, err)

	backend.fetchErr = errors.New("timeout")
	err = s.LoadDirectory(ctx)
	assert.True(t, source.IsTransient(err))
	assert.Len(t, s.Summaries(), 2, "stale list is kept")

	err = s.Open(ctx, "ana")
	assert.True(t, source.IsTransient(err))
	_, open := s.Active()
	assert.False(t, open)
}

func TestReloadKeepsPendingMessages(t *testing.T) {
	s, backend := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, "ana"))

	_, err := s.BeginSend("pendiente")
	require.NoError(t, err)
	backend.deliver("ana", "me", "nuevo")

	require.NoError(t, s.Reload(ctx))
	thread := s.Thread()
	require.Len(t, thread, 2)
	assert.Equal(t, "nuevo", thread[0].Body)
	assert.True(t, thread[1].IsLocal())
}
