package chat

// Admission is the verdict of the Deduplicator on an inbound message id.
type Admission int

const (
	// Accept means the id was not seen in the current scope.
	Accept Admission = iota

	// RejectDuplicate means the id was already applied, either as a
	// confirmed optimistic insert or as an earlier delivery.
	RejectDuplicate
)

func (a Admission) String() string {
	if a == RejectDuplicate {
		return "duplicate"
	}
	return "accept"
}

// DefaultDedupCapacity bounds the recently-seen set when no capacity is
// configured.
const DefaultDedupCapacity = 256

// Deduplicator remembers recently applied message ids for the open
// conversation. The set is bounded: once full, the oldest id is evicted.
type Deduplicator struct {
	capacity int
	scope    string
	seen     map[string]struct{}
	order    []string
}

// NewDeduplicator creates a Deduplicator holding at most capacity ids.
func NewDeduplicator(capacity int) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &Deduplicator{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Admit records id and returns Accept, or returns RejectDuplicate when id
// is already in the set.
func (d *Deduplicator) Admit(id string) Admission {
	if _, ok := d.seen[id]; ok {
		return RejectDuplicate
	}
	d.remember(id)
	return Accept
}

// Seed records ids without reporting admissions, typically the history
// fetched when a conversation is opened.
func (d *Deduplicator) Seed(ids ...string) {
	for _, id := range ids {
		if _, ok := d.seen[id]; !ok {
			d.remember(id)
		}
	}
}

// Scope switches the set to the conversation with counterpartID. Switching
// to a different conversation clears the set; re-scoping to the current one
// keeps it.
func (d *Deduplicator) Scope(counterpartID string) {
	if counterpartID == d.scope {
		return
	}
	d.scope = counterpartID
	d.Reset()
}

// Reset forgets every id.
func (d *Deduplicator) Reset() {
	d.seen = make(map[string]struct{}, d.capacity)
	d.order = d.order[:0]
}

// Contains reports whether id is in the set.
func (d *Deduplicator) Contains(id string) bool {
	_, ok := d.seen[id]
	return ok
}

// Len returns the number of ids held.
func (d *Deduplicator) Len() int {
	return len(d.order)
}

func (d *Deduplicator) remember(id string) {
	if len(d.order) == d.capacity {
		oldest := d.order[0]
		delete(d.seen, oldest)
		d.order = append(d.order[:0], d.order[1:]...)
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
}
