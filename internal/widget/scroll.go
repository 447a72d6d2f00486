package widget

import "sync"

// BottomThreshold is the distance-to-bottom, in viewport units, within
// which the viewer still counts as anchored to the newest content.
const BottomThreshold = 50

// ScrollAction tells the view what to do with the viewport after a
// content-arrival event.
type ScrollAction int

const (
	// NoScroll leaves the viewport where it is.
	NoScroll ScrollAction = iota
	// ScrollSmooth animates to the bottom.
	ScrollSmooth
	// ScrollInstant jumps to the bottom without animation. Used while
	// a reply streams, where smooth scrolling would stutter on every
	// chunk.
	ScrollInstant
)

// Reconciler decides, on every content-arrival event, whether the
// viewport follows new content or raises an unseen-messages flag
// instead. One per widget mount; nothing here is persisted.
//
// Two states: at-bottom (distance-to-bottom within BottomThreshold)
// and scrolled-up. The unseen flag can only be raised while scrolled
// up, and only an explicit return to the bottom clears it.
type Reconciler struct {
	mu         sync.Mutex
	scrolledUp bool
	unseen     bool
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// HandleScroll processes a manual scroll event. Crossing the threshold
// in either direction flips the state; returning within it also clears
// the unseen flag, since the viewer is back at the newest content.
func (r *Reconciler) HandleScroll(distanceToBottom float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if distanceToBottom > BottomThreshold {
		r.scrolledUp = true
		return
	}
	r.scrolledUp = false
	r.unseen = false
}

// ContentArrived is called for every discrete append and for every
// growth of the streaming message. It returns the viewport action and
// updates the unseen flag.
func (r *Reconciler) ContentArrived(streaming bool) ScrollAction {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scrolledUp {
		r.unseen = true
		return NoScroll
	}
	if streaming {
		return ScrollInstant
	}
	return ScrollSmooth
}

// JumpToBottom handles the explicit "jump to newest" affordance.
func (r *Reconciler) JumpToBottom() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrolledUp = false
	r.unseen = false
}

// ForceBottom anchors the viewport unconditionally. Sending a message
// always does this, regardless of where the viewer was.
func (r *Reconciler) ForceBottom() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrolledUp = false
	r.unseen = false
}

func (r *Reconciler) ScrolledUp() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scrolledUp
}

// HasUnseen reports whether content arrived while the viewer was
// scrolled up.
func (r *Reconciler) HasUnseen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unseen
}
