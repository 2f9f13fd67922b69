package combat

import (
	"container/heap"
	"time"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/unit"
)

// eventKind identifies what a scheduled event does when it fires.
type eventKind int

const (
	eventSpawn eventKind = iota
	eventAttack
	eventSlotReady
	eventRegen
	eventBuffExpiry
	eventRespawn
)

// String returns the event kind's name for logs.
func (k eventKind) String() string {
	switch k {
	case eventSpawn:
		return "spawn"
	case eventAttack:
		return "attack"
	case eventSlotReady:
		return "slot_ready"
	case eventRegen:
		return "regen"
	case eventBuffExpiry:
		return "buff_expiry"
	case eventRespawn:
		return "respawn"
	default:
		return "unknown"
	}
}

// event is one scheduled occurrence in simulated time.
type event struct {
	at   time.Duration
	seq  uint64
	kind eventKind
	// unit is nil for global events (spawn, regen).
	unit *unit.Unit
	// epoch is the unit's Epoch when the event was scheduled. Events whose
	// epoch no longer matches are stale and dropped.
	epoch int
	// group is the monster group generation; monster events outlive their
	// group when the party wipes.
	group int
}

// eventQueue is a min-heap ordered by time, then by insertion order.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// scheduler wraps the heap with a monotonic sequence counter so events
// scheduled for the same instant fire in insertion order.
type scheduler struct {
	q   eventQueue
	seq uint64
}

func (s *scheduler) push(e *event) {
	s.seq++
	e.seq = s.seq
	heap.Push(&s.q, e)
}

func (s *scheduler) pop() (*event, bool) {
	if len(s.q) == 0 {
		return nil, false
	}
	return heap.Pop(&s.q).(*event), true
}
