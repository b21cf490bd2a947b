package reconcile

import (
	log "github.com/sirupsen/logrus"
)

// State of one viewer's reconciler.
type State int

const (
	// Empty: nothing pulled yet.
	Empty State = iota
	// Loaded: the view holds the pulled list plus every merged event.
	Loaded
	// OptimisticPending: at least one local edit awaits its confirmation.
	OptimisticPending
)

// EventKind classifies an incoming push event.
type EventKind int

const (
	EventAdd EventKind = iota
	EventUpdate
	EventDelete
)

// Item is one entity in the view: id, the server version it was last
// confirmed at, and its fields. Fields are merged by name so a partial
// update never erases what it didn't carry.
type Item struct {
	ID      string
	Version int64
	Fields  map[string]interface{}
}

func (it Item) clone() Item {
	fields := make(map[string]interface{}, len(it.Fields))
	for k, v := range it.Fields {
		fields[k] = v
	}
	return Item{ID: it.ID, Version: it.Version, Fields: fields}
}

// Event is a push delivered on a subscription channel. ActorID identifies
// whose mutation produced it, which drives the optimistic tie-break.
type Event struct {
	Kind    EventKind
	ID      string
	ActorID string
	Version int64
	Fields  map[string]interface{}
}

type pendingEdit struct {
	// rollback is the item state before the optimistic edit; nil means the
	// edit was an optimistic add and failure removes the item entirely.
	rollback *Item
}

// Reconciler merges an initial pulled snapshot, push events, and the
// viewer's own optimistic edits into one consistent list. It is not safe
// for concurrent use; each viewer owns exactly one, fed from its single
// event loop.
type Reconciler struct {
	viewerID string
	state    State
	items    map[string]Item
	order    []string
	pending  map[string]pendingEdit
	deferred []Event
}

func New(viewerID string) *Reconciler {
	return &Reconciler{
		viewerID: viewerID,
		state:    Empty,
		items:    make(map[string]Item),
		pending:  make(map[string]pendingEdit),
	}
}

func (r *Reconciler) State() State {
	return r.state
}

// Load installs the initially pulled list, replacing anything applied
// before it. A re-pull after a reconnect gap also lands here: whatever was
// pending or deferred is discarded, the pulled list is authoritative.
func (r *Reconciler) Load(items []Item) {
	r.items = make(map[string]Item, len(items))
	r.order = r.order[:0]
	r.pending = make(map[string]pendingEdit)
	r.deferred = nil
	for _, it := range items {
		if _, ok := r.items[it.ID]; ok {
			continue
		}
		r.items[it.ID] = it.clone()
		r.order = append(r.order, it.ID)
	}
	r.state = Loaded
}

// Apply merges one push event. It never fails: duplicates are suppressed,
// stale updates dropped, updates for unknown ids treated as adds, deletes
// of unknown ids ignored. Events racing a pending local edit on the same
// id are deferred unless they confirm the viewer's own mutation.
func (r *Reconciler) Apply(ev Event) {
	if _, isPending := r.pending[ev.ID]; isPending {
		if ev.ActorID == r.viewerID {
			// the direct confirmation of our own mutation: server wins
			r.confirm(ev)
			return
		}
		// a foreign write racing our unresolved edit: hold it back so the
		// user never sees a value they didn't intend mid-edit
		r.deferred = append(r.deferred, ev)
		return
	}

	r.applyNow(ev)
}

func (r *Reconciler) applyNow(ev Event) {
	switch ev.Kind {
	case EventAdd:
		if _, ok := r.items[ev.ID]; ok {
			// at-least-once redelivery or pull/push overlap
			log.Debugf("reconcile: duplicate add for %s suppressed", ev.ID)
			return
		}
		r.insert(Item{ID: ev.ID, Version: ev.Version, Fields: ev.Fields})

	case EventUpdate:
		current, ok := r.items[ev.ID]
		if !ok {
			// missed the creation; an update for an unknown id is an
			// implicit add, keeping convergence after a gap
			r.insert(Item{ID: ev.ID, Version: ev.Version, Fields: ev.Fields})
			return
		}
		if ev.Version > 0 && current.Version > 0 && ev.Version <= current.Version {
			log.Debugf("reconcile: stale update v%d for %s at v%d dropped", ev.Version, ev.ID, current.Version)
			return
		}
		for k, v := range ev.Fields {
			current.Fields[k] = v
		}
		if ev.Version > current.Version {
			current.Version = ev.Version
		}
		r.items[ev.ID] = current

	case EventDelete:
		r.remove(ev.ID)
	}
}

func (r *Reconciler) insert(it Item) {
	r.items[it.ID] = it.clone()
	r.order = append(r.order, it.ID)
}

func (r *Reconciler) remove(id string) {
	if _, ok := r.items[id]; !ok {
		return
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Stage applies a local optimistic edit to an existing item. The change is
// visible immediately and provisional until Confirm or Fail.
func (r *Reconciler) Stage(id string, fields map[string]interface{}) bool {
	current, ok := r.items[id]
	if !ok {
		return false
	}
	if _, already := r.pending[id]; !already {
		rollback := current.clone()
		r.pending[id] = pendingEdit{rollback: &rollback}
	}
	for k, v := range fields {
		current.Fields[k] = v
	}
	r.items[id] = current
	r.state = OptimisticPending
	return true
}

// StageAdd applies a local optimistic creation.
func (r *Reconciler) StageAdd(it Item) {
	if _, ok := r.items[it.ID]; ok {
		return
	}
	r.insert(it)
	r.pending[it.ID] = pendingEdit{rollback: nil}
	r.state = OptimisticPending
}

// Confirm resolves a pending edit with the server's snapshot, which
// overwrites the optimistic guess wholesale.
func (r *Reconciler) Confirm(id string, confirmed Item) {
	r.confirm(Event{Kind: EventUpdate, ID: id, ActorID: r.viewerID, Version: confirmed.Version, Fields: confirmed.Fields})
}

func (r *Reconciler) confirm(ev Event) {
	delete(r.pending, ev.ID)

	if _, ok := r.items[ev.ID]; ok && ev.Kind != EventDelete {
		// server wins: replace rather than merge, the confirmation is a
		// full snapshot
		it := Item{ID: ev.ID, Version: ev.Version, Fields: ev.Fields}
		r.items[ev.ID] = it.clone()
	} else {
		r.applyNow(ev)
	}

	r.settle()
}

// Fail rolls back a pending edit after a mutation error or timeout. If a
// late confirmation still arrives, Apply treats it as a fresh add.
func (r *Reconciler) Fail(id string) {
	edit, ok := r.pending[id]
	if !ok {
		return
	}
	delete(r.pending, id)

	if edit.rollback == nil {
		r.remove(id)
	} else {
		r.items[id] = edit.rollback.clone()
	}

	r.settle()
}

// settle drains deferred events that are no longer blocked and recomputes
// the state.
func (r *Reconciler) settle() {
	replay := r.deferred
	r.deferred = nil
	for _, ev := range replay {
		r.Apply(ev)
	}

	if len(r.pending) == 0 {
		r.state = Loaded
	} else {
		r.state = OptimisticPending
	}
}

// Pending reports whether an optimistic edit on id awaits resolution.
func (r *Reconciler) Pending(id string) bool {
	_, ok := r.pending[id]
	return ok
}

// Items returns the current view in insertion order.
func (r *Reconciler) Items() []Item {
	out := make([]Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].clone())
	}
	return out
}

// Get returns one item by id.
func (r *Reconciler) Get(id string) (Item, bool) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, false
	}
	return it.clone(), true
}

// Len is the number of items currently in the view.
func (r *Reconciler) Len() int {
	return len(r.items)
}
