package chat

import (
	"fmt"
	"sort"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

// Index holds one ConversationSummary per counterpart, kept ordered
// unread-first, then by most recent activity, then by counterpart id.
type Index struct {
	byID    map[string]*model.ConversationSummary
	ordered []*model.ConversationSummary
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]*model.ConversationSummary)}
}

// Rebuild replaces the index with one summary per counterpart. A
// conversation starts unread when its latest message came from the
// counterpart and isRead does not report it as acknowledged.
func (ix *Index) Rebuild(
	counterparts []model.User,
	latest map[string]model.Message,
	isRead func(counterpartID string) bool,
) []model.ConversationSummary {
	ix.byID = make(map[string]*model.ConversationSummary, len(counterparts))
	ix.ordered = ix.ordered[:0]

	for _, u := range counterparts {
		s := &model.ConversationSummary{
			Counterpart:  u,
			LastActivity: u.CreatedAt,
		}
		if m, ok := latest[u.ID]; ok {
			m := m
			s.Latest = &m
			s.LastActivity = m.SentAt
			if m.SenderID == u.ID && (isRead == nil || !isRead(u.ID)) {
				s.Unread = 1
			}
		}
		ix.byID[u.ID] = s
		ix.ordered = append(ix.ordered, s)
	}

	ix.sort()
	return ix.Summaries()
}

// ApplyInbound records msg as the latest message from its sender. Unless
// read is set, the conversation is flagged unread. A message that does not
// advance the conversation (the current latest, or an older one delivered
// late) leaves the summary and its unread flag untouched. It reports
// whether the index changed.
func (ix *Index) ApplyInbound(msg model.Message, read bool) (bool, error) {
	s, ok := ix.byID[msg.SenderID]
	if !ok {
		return false, fmt.Errorf("inbound message %s from %s: %w",
			msg.ID, msg.SenderID, source.ErrUnknownCounterpart)
	}
	if !setLatest(s, msg) {
		return false, nil
	}

	if read {
		s.Unread = 0
	} else {
		s.Unread = 1
	}
	ix.sort()
	return true, nil
}

// ApplyOutbound records msg as the latest message sent to its recipient.
// It never flags the conversation unread.
func (ix *Index) ApplyOutbound(msg model.Message) (bool, error) {
	s, ok := ix.byID[msg.RecipientID]
	if !ok {
		return false, fmt.Errorf("outbound message %s to %s: %w",
			msg.ID, msg.RecipientID, source.ErrUnknownCounterpart)
	}
	if !setLatest(s, msg) {
		return false, nil
	}
	ix.sort()
	return true, nil
}

// Advances reports whether msg would become the latest message of the
// conversation with counterpartID. Messages sharing the latest timestamp
// but carrying another id advance it, so a new message is never missed.
func (ix *Index) Advances(counterpartID string, msg model.Message) bool {
	s, ok := ix.byID[counterpartID]
	if !ok {
		return false
	}
	return advances(s, msg)
}

// ClearUnread drops the unread indicator of a conversation.
func (ix *Index) ClearUnread(counterpartID string) {
	s, ok := ix.byID[counterpartID]
	if !ok || s.Unread == 0 {
		return
	}
	s.Unread = 0
	ix.sort()
}

// Get returns the summary for counterpartID.
func (ix *Index) Get(counterpartID string) (model.ConversationSummary, bool) {
	s, ok := ix.byID[counterpartID]
	if !ok {
		return model.ConversationSummary{}, false
	}
	return *s, true
}

// Summaries returns a copy of the ordered summaries.
func (ix *Index) Summaries() []model.ConversationSummary {
	out := make([]model.ConversationSummary, len(ix.ordered))
	for i, s := range ix.ordered {
		out[i] = *s
	}
	return out
}

func advances(s *model.ConversationSummary, msg model.Message) bool {
	if s.Latest == nil {
		return true
	}
	return msg.ID != s.Latest.ID && !msg.SentAt.Before(s.Latest.SentAt)
}

// setLatest moves the latest message forward and reports whether it did.
// The current latest and older messages (a late catch-up poll) leave it
// untouched.
func setLatest(s *model.ConversationSummary, msg model.Message) bool {
	if !advances(s, msg) {
		return false
	}
	m := msg
	s.Latest = &m
	s.LastActivity = m.SentAt
	return true
}

func (ix *Index) sort() {
	sort.SliceStable(ix.ordered, func(i, j int) bool {
		a, b := ix.ordered[i], ix.ordered[j]
		if a.Unread != b.Unread {
			return a.Unread > b.Unread
		}
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		return a.Counterpart.ID < b.Counterpart.ID
	})
}
