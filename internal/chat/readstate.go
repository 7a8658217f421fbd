package chat

// ReadState tracks which conversations the viewer has acknowledged since
// the counterpart last wrote. It is process-local and never persisted.
type ReadState struct {
	index  *Index
	read   map[string]struct{}
	active string
}

// NewReadState creates an empty ReadState that clears unread indicators
// in index.
func NewReadState(index *Index) *ReadState {
	return &ReadState{
		index: index,
		read:  make(map[string]struct{}),
	}
}

// MarkRead acknowledges the conversation with counterpartID.
func (r *ReadState) MarkRead(counterpartID string) {
	r.read[counterpartID] = struct{}{}
	if r.index != nil {
		r.index.ClearUnread(counterpartID)
	}
}

// OnInboundMessage is called when counterpartID sends a new message. It
// reports whether the message counts as read, which is only the case when
// the conversation is the one currently open.
func (r *ReadState) OnInboundMessage(counterpartID string) bool {
	if counterpartID != "" && counterpartID == r.active {
		r.read[counterpartID] = struct{}{}
		return true
	}
	delete(r.read, counterpartID)
	return false
}

// IsRead reports whether the conversation is acknowledged.
func (r *ReadState) IsRead(counterpartID string) bool {
	_, ok := r.read[counterpartID]
	return ok
}

// SetActive records the conversation currently shown to the viewer.
func (r *ReadState) SetActive(counterpartID string) {
	r.active = counterpartID
}

// ClearActive records that no conversation is shown.
func (r *ReadState) ClearActive() {
	r.active = ""
}

// Active returns the open conversation, or "" when none is.
func (r *ReadState) Active() string {
	return r.active
}
