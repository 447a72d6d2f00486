package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcilerAtBottomFollowsContent(t *testing.T) {
	r := NewReconciler()

	// Anywhere within the threshold counts as anchored.
	for _, distance := range []float64{0, 10, BottomThreshold} {
		r.HandleScroll(distance)
		action := r.ContentArrived(false)
		assert.Equal(t, ScrollSmooth, action, "distance %v", distance)
		assert.False(t, r.HasUnseen())
	}

	// Streaming growth pins instantly instead of animating.
	assert.Equal(t, ScrollInstant, r.ContentArrived(true))
	assert.False(t, r.HasUnseen())
}

func TestReconcilerScrolledUpRaisesUnseen(t *testing.T) {
	r := NewReconciler()

	r.HandleScroll(BottomThreshold + 1)
	assert.True(t, r.ScrolledUp())

	action := r.ContentArrived(false)
	assert.Equal(t, NoScroll, action)
	assert.True(t, r.HasUnseen())

	// Streamed growth behaves the same while scrolled up.
	assert.Equal(t, NoScroll, r.ContentArrived(true))
	assert.True(t, r.HasUnseen())
}

func TestReconcilerUnseenMonotonicity(t *testing.T) {
	r := NewReconciler()

	// Content while at bottom never raises the flag.
	r.ContentArrived(false)
	r.ContentArrived(true)
	assert.False(t, r.HasUnseen())

	// Only content while scrolled up raises it.
	r.HandleScroll(200)
	assert.False(t, r.HasUnseen(), "scrolling alone must not raise the flag")
	r.ContentArrived(false)
	assert.True(t, r.HasUnseen())

	// Further content keeps it raised; nothing short of returning to
	// the bottom clears it.
	r.ContentArrived(true)
	assert.True(t, r.HasUnseen())
	r.HandleScroll(BottomThreshold + 30)
	assert.True(t, r.HasUnseen())

	// Manual return within threshold clears it.
	r.HandleScroll(BottomThreshold - 1)
	assert.False(t, r.HasUnseen())
	assert.False(t, r.ScrolledUp())
}

func TestReconcilerJumpToBottomClears(t *testing.T) {
	r := NewReconciler()

	r.HandleScroll(300)
	r.ContentArrived(false)
	assert.True(t, r.HasUnseen())

	r.JumpToBottom()
	assert.False(t, r.HasUnseen())
	assert.False(t, r.ScrolledUp())
}

func TestReconcilerSendForcesBottom(t *testing.T) {
	r := NewReconciler()

	r.HandleScroll(500)
	r.ContentArrived(false)
	assert.True(t, r.HasUnseen())

	// Sending a message always re-anchors, regardless of prior state.
	r.ForceBottom()
	assert.False(t, r.ScrolledUp())
	assert.False(t, r.HasUnseen())
	assert.Equal(t, ScrollSmooth, r.ContentArrived(false))
}
