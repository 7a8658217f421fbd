package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhle/vulcania/internal/logging"
	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

var (
	// ErrNoConversation is returned when sending with no conversation open.
	ErrNoConversation = errors.New("no conversation is open")

	// ErrEmptyMessage is returned when the message body is blank.
	ErrEmptyMessage = errors.New("message is empty")
)

// Outcome is the result of handling an inserted-message event.
type Outcome int

const (
	// OutcomeIgnored means the message does not involve the viewer or
	// references an unknown counterpart.
	OutcomeIgnored Outcome = iota

	// OutcomeDuplicate means the message was already applied.
	OutcomeDuplicate

	// OutcomeApplied means the message updated the thread or the index.
	OutcomeApplied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeApplied:
		return "applied"
	default:
		return "ignored"
	}
}

// Pending is an optimistic message shown before the message store
// confirmed it.
type Pending struct {
	Message model.Message
}

// Session is the chat state of one viewer: the conversation list, the read
// markers, and the open thread. It is not safe for concurrent use; every
// call must come from the same event loop.
type Session struct {
	viewerID  string
	messages  source.MessageSource
	directory source.Directory
	log       logrus.FieldLogger
	now       func() time.Time

	dedup        *Deduplicator
	index        *Index
	reads        *ReadState
	counterparts map[string]model.User
	thread       []model.Message
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for dropped events.
func WithLogger(l logrus.FieldLogger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithDedupCapacity bounds the recently-seen message id set.
func WithDedupCapacity(n int) SessionOption {
	return func(s *Session) { s.dedup = NewDeduplicator(n) }
}

// WithClock overrides the time source used to stamp optimistic messages.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a chat session for viewerID.
func NewSession(
	viewerID string,
	messages source.MessageSource,
	directory source.Directory,
	opts ...SessionOption,
) *Session {
	index := NewIndex()
	s := &Session{
		viewerID:     viewerID,
		messages:     messages,
		directory:    directory,
		now:          time.Now,
		dedup:        NewDeduplicator(DefaultDedupCapacity),
		index:        index,
		reads:        NewReadState(index),
		counterparts: make(map[string]model.User),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log).WithField("viewer", viewerID)
	return s
}

// ViewerID returns the id of the logged-in user.
func (s *Session) ViewerID() string {
	return s.viewerID
}

// LoadDirectory fetches the counterpart directory and the latest message
// per counterpart, and rebuilds the conversation list. On failure the
// previous list is kept.
func (s *Session) LoadDirectory(ctx context.Context) error {
	users, err := s.directory.ListOtherUsers(ctx, s.viewerID)
	if err != nil {
		return source.Transient("list users", err)
	}
	latest, err := s.messages.LatestMessages(ctx, s.viewerID)
	if err != nil {
		return source.Transient("latest messages", err)
	}

	s.ApplyDirectory(users, latest)
	return nil
}

// ApplyDirectory rebuilds the conversation list from a fetched directory.
func (s *Session) ApplyDirectory(users []model.User, latest map[string]model.Message) {
	s.counterparts = make(map[string]model.User, len(users))
	for _, u := range users {
		s.counterparts[u.ID] = u
	}
	s.index.Rebuild(users, latest, s.reads.IsRead)
}

// Open shows the conversation with counterpartID: it loads the history,
// scopes deduplication to it and acknowledges it.
func (s *Session) Open(ctx context.Context, counterpartID string) error {
	if _, ok := s.counterparts[counterpartID]; !ok {
		return fmt.Errorf("opening conversation %s: %w", counterpartID, source.ErrUnknownCounterpart)
	}

	history, err := s.messages.FetchConversation(ctx, s.viewerID, counterpartID)
	if err != nil {
		return source.Transient("fetch conversation", err)
	}
	return s.ApplyHistory(counterpartID, history)
}

// Reload refetches the open conversation.
func (s *Session) Reload(ctx context.Context) error {
	active := s.reads.Active()
	if active == "" {
		return nil
	}

	history, err := s.messages.FetchConversation(ctx, s.viewerID, active)
	if err != nil {
		return source.Transient("fetch conversation", err)
	}
	return s.ApplyHistory(active, history)
}

// ApplyHistory shows a fetched conversation. Opening a new conversation
// scopes deduplication to it and acknowledges it; applying the history of
// the conversation already open refreshes it and keeps unconfirmed
// optimistic messages at the end.
func (s *Session) ApplyHistory(counterpartID string, history []model.Message) error {
	if _, ok := s.counterparts[counterpartID]; !ok {
		return fmt.Errorf("opening conversation %s: %w", counterpartID, source.ErrUnknownCounterpart)
	}

	thread := make([]model.Message, 0, len(history))
	thread = append(thread, history...)
	if counterpartID == s.reads.Active() {
		for _, m := range s.thread {
			if m.IsLocal() {
				thread = append(thread, m)
			}
		}
	}

	s.dedup.Scope(counterpartID)
	for _, m := range thread {
		s.dedup.Seed(m.ID)
	}
	s.thread = thread
	s.reads.SetActive(counterpartID)
	s.reads.MarkRead(counterpartID)
	return nil
}

// Close leaves the open conversation.
func (s *Session) Close() {
	s.reads.ClearActive()
	s.dedup.Scope("")
	s.thread = nil
}

// BeginSend appends an optimistic message to the open thread and returns
// it. The caller delivers it to the message store and reports the result
// with CompleteSend.
func (s *Session) BeginSend(body string) (Pending, error) {
	active := s.reads.Active()
	if active == "" {
		return Pending{}, ErrNoConversation
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Pending{}, ErrEmptyMessage
	}

	msg := model.Message{
		ID:          model.LocalIDPrefix + uuid.New().String(),
		SenderID:    s.viewerID,
		RecipientID: active,
		Body:        body,
		SentAt:      s.now().UTC(),
	}
	s.thread = append(s.thread, msg)
	return Pending{Message: msg}, nil
}

// CompleteSend reconciles an optimistic message with the store's answer.
// On success the optimistic copy is replaced by the stored message, or
// dropped if the change feed already delivered it. On failure the
// optimistic copy is removed and a *source.SendFailedError is returned.
func (s *Session) CompleteSend(p Pending, stored model.Message, sendErr error) error {
	if sendErr != nil {
		s.removeFromThread(p.Message.ID)
		return &source.SendFailedError{Pending: p.Message, Err: sendErr}
	}

	if s.dedup.Admit(stored.ID) == RejectDuplicate {
		s.removeFromThread(p.Message.ID)
	} else {
		s.replaceInThread(p.Message.ID, stored)
	}

	if _, err := s.index.ApplyOutbound(stored); err != nil {
		s.log.WithError(err).Warn("confirmed message for unknown counterpart")
	}
	return nil
}

// Send delivers body to the open conversation and waits for the store.
func (s *Session) Send(ctx context.Context, body string) (model.Message, error) {
	p, err := s.BeginSend(body)
	if err != nil {
		return model.Message{}, err
	}
	stored, sendErr := s.messages.SendMessage(ctx, p.Message)
	if err := s.CompleteSend(p, stored, sendErr); err != nil {
		return model.Message{}, err
	}
	return stored, nil
}

// HandleInserted applies a message delivered by the change feed or by a
// catch-up poll.
func (s *Session) HandleInserted(msg model.Message) (Outcome, error) {
	counterpartID := msg.Counterpart(s.viewerID)
	if counterpartID == "" {
		return OutcomeIgnored, nil
	}
	if _, ok := s.counterparts[counterpartID]; !ok {
		err := fmt.Errorf("message %s: %w", msg.ID, source.ErrUnknownCounterpart)
		s.log.WithField("counterpart", counterpartID).WithError(err).Warn("dropping message")
		return OutcomeIgnored, err
	}

	if s.dedup.Admit(msg.ID) == RejectDuplicate {
		return OutcomeDuplicate, nil
	}

	threadChanged := counterpartID == s.reads.Active() && s.insertInThread(msg)

	// A message that does not advance the conversation was seen before
	// the dedup set was cleared, or arrived out of order. It must not
	// touch the read marker or the unread flag.
	if !s.index.Advances(counterpartID, msg) {
		if threadChanged {
			return OutcomeApplied, nil
		}
		return OutcomeDuplicate, nil
	}

	var err error
	if msg.SenderID == counterpartID {
		read := s.reads.OnInboundMessage(counterpartID)
		_, err = s.index.ApplyInbound(msg, read)
	} else {
		_, err = s.index.ApplyOutbound(msg)
	}
	if err != nil {
		return OutcomeIgnored, err
	}
	return OutcomeApplied, nil
}

// MarkRead acknowledges the conversation with counterpartID.
func (s *Session) MarkRead(counterpartID string) {
	s.reads.MarkRead(counterpartID)
}

// Active returns the counterpart of the open conversation.
func (s *Session) Active() (model.User, bool) {
	id := s.reads.Active()
	if id == "" {
		return model.User{}, false
	}
	u, ok := s.counterparts[id]
	return u, ok
}

// Counterpart returns a directory entry by id.
func (s *Session) Counterpart(id string) (model.User, bool) {
	u, ok := s.counterparts[id]
	return u, ok
}

// Thread returns a copy of the open conversation, oldest first.
func (s *Session) Thread() []model.Message {
	out := make([]model.Message, len(s.thread))
	copy(out, s.thread)
	return out
}

// Summaries returns the ordered conversation list.
func (s *Session) Summaries() []model.ConversationSummary {
	return s.index.Summaries()
}

// UnreadCount returns how many conversations show the unread indicator.
func (s *Session) UnreadCount() int {
	n := 0
	for _, c := range s.index.Summaries() {
		if c.HasUnread() {
			n++
		}
	}
	return n
}

// insertInThread places msg by send time, ahead of pending optimistic
// messages. It reports whether msg was new to the thread.
func (s *Session) insertInThread(msg model.Message) bool {
	for _, m := range s.thread {
		if m.ID == msg.ID {
			return false
		}
	}
	i := sort.Search(len(s.thread), func(i int) bool {
		m := s.thread[i]
		return m.IsLocal() || m.SentAt.After(msg.SentAt)
	})
	s.thread = append(s.thread, model.Message{})
	copy(s.thread[i+1:], s.thread[i:])
	s.thread[i] = msg
	return true
}

func (s *Session) removeFromThread(id string) {
	for i, m := range s.thread {
		if m.ID == id {
			s.thread = append(s.thread[:i], s.thread[i+1:]...)
			return
		}
	}
}

func (s *Session) replaceInThread(id string, msg model.Message) {
	for i, m := range s.thread {
		if m.ID == id {
			s.thread[i] = msg
			return
		}
	}
}
