package feed

import (
	"testing"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureAnchor(t *testing.T) {
	vp := NewListViewport(200, nil)
	assert.Nil(t, CaptureAnchor(vp))

	vp.Render(msgs(1, 10))
	vp.SetScrollTop(110)

	// centre is at 210, m6 spans 200..240
	a := CaptureAnchor(vp)
	require.NotNil(t, a)
	assert.Equal(t, models.ObjectID("m6"), a.MessageID)
	assert.Equal(t, 90.0, a.Offset)
	assert.Equal(t, 110.0, a.ScrollTop)
	assert.Equal(t, 400.0, a.ScrollHeight)
}

func TestRestoreAnchorAfterPrepend(t *testing.T) {
	vp := NewListViewport(200, nil)
	window := msgs(3, 12)
	vp.Render(window)
	vp.SetScrollTop(10)

	a := CaptureAnchor(vp)
	require.NotNil(t, a)
	assert.Equal(t, models.ObjectID("m5"), a.MessageID)

	vp.Render(MergeOlder(window, msgs(1, 2)))
	assert.True(t, RestoreAnchor(vp, a))

	el, ok := vp.Element("m5")
	require.True(t, ok)
	assert.InDelta(t, a.Offset, el.Top-vp.ScrollTop(), 1)
	assert.Equal(t, 90.0, vp.ScrollTop())
}

func TestRestoreAnchorFallsBackToHeightDelta(t *testing.T) {
	vp := NewListViewport(200, nil)
	vp.Render(msgs(5, 14))
	vp.SetScrollTop(100)
	a := CaptureAnchor(vp)
	require.NotNil(t, a)

	// the anchor itself disappears while two older messages arrive
	window := MergeOlder(msgs(5, 14), msgs(3, 4))
	window = append(window[:indexOf(window, a.MessageID)], window[indexOf(window, a.MessageID)+1:]...)
	vp.Render(window)

	assert.False(t, RestoreAnchor(vp, a))
	assert.Equal(t, 140.0, vp.ScrollTop())
	assert.False(t, RestoreAnchor(vp, nil))
}

func TestAnchorKeeper(t *testing.T) {
	clock := newFakeClock()
	vp := NewListViewport(200, nil)
	vp.Render(msgs(1, 20))
	k := NewAnchorKeeper(vp, 100*time.Millisecond, clock.Now)

	a, ok := k.Capture()
	require.True(t, ok)
	require.NotNil(t, a)

	var busyInside bool
	k.Adjust(func(vp Viewport) {
		busyInside = k.Busy()
		_, ok := k.Capture()
		assert.False(t, ok)
		vp.SetScrollTop(300)
	})
	assert.True(t, busyInside)
	assert.True(t, k.Busy())
	assert.Equal(t, 100*time.Millisecond, k.Remaining())

	_, ok = k.Capture()
	assert.False(t, ok)

	clock.Advance(100 * time.Millisecond)
	assert.False(t, k.Busy())
	_, ok = k.Capture()
	assert.True(t, ok)

	assert.True(t, k.Restore(a))
	assert.Equal(t, 0.0, vp.ScrollTop())
}

func TestListViewport(t *testing.T) {
	vp := NewListViewport(100, func(m models.Message) float64 {
		if m.ID == "m2" {
			return 80
		}
		return 40
	})
	vp.Render(msgs(1, 4))
	assert.Equal(t, 200.0, vp.ScrollHeight())

	vp.SetScrollTop(-20)
	assert.Equal(t, 0.0, vp.ScrollTop())
	vp.SetScrollTop(1000)
	assert.Equal(t, 100.0, vp.ScrollTop())
	assert.Equal(t, 0.0, DistanceFromBottom(vp))

	// viewport shows 100..200: m2 (40..120) is a quarter visible
	assert.InDelta(t, 0.25, vp.VisibleRatio("m2"), 0.001)
	assert.Equal(t, 1.0, vp.VisibleRatio("m4"))
	assert.Equal(t, 0.0, vp.VisibleRatio("m1"))
	assert.Equal(t, 0.0, vp.VisibleRatio("missing"))
	assert.Equal(t, []models.ObjectID{"m2", "m3", "m4"}, func() []models.ObjectID {
		var out []models.ObjectID
		for _, el := range vp.Elements() {
			out = append(out, el.ID)
		}
		return out
	}())

	assert.True(t, CenterOn(vp, "m3"))
	assert.Equal(t, 90.0, vp.ScrollTop())
	assert.False(t, CenterOn(vp, "missing"))

	small := NewListViewport(500, nil)
	small.Render(msgs(1, 2))
	assert.Equal(t, 500.0, small.ScrollHeight())
}
