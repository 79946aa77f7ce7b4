package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTrackerMarksOnce(t *testing.T) {
	src := newFakeSource(10)
	tr := NewReadTracker(src, "u1", "c1", 0.5, time.Second)
	tr.Register("m1")

	tr.Observe("m1", 0.3)
	tr.Observe("m1", 0.6)
	tr.Observe("m1", 0.2)
	tr.Observe("m1", 0.9)
	tr.Wait()

	assert.Equal(t, 1, src.callCount("mark"))
	assert.Equal(t, []models.ObjectID{"m1"}, src.marked)
}

func TestReadTrackerIgnoresUnregistered(t *testing.T) {
	src := newFakeSource(10)
	tr := NewReadTracker(src, "u1", "c1", 0.5, time.Second)

	tr.Observe("m1", 1)
	tr.Register("m2")
	tr.Unregister("m2")
	tr.Observe("m2", 1)
	tr.Wait()

	assert.Zero(t, src.callCount("mark"))
}

func TestReadTrackerThresholdIsExclusive(t *testing.T) {
	src := newFakeSource(10)
	tr := NewReadTracker(src, "u1", "c1", 0.5, time.Second)
	tr.Register("m1")

	tr.Observe("m1", 0.5)
	tr.Wait()
	assert.Zero(t, src.callCount("mark"))
}

func TestReadTrackerRetriesAfterFailure(t *testing.T) {
	src := newFakeSource(10)
	src.fail("mark", errors.New("unavailable"))
	tr := NewReadTracker(src, "u1", "c1", 0.5, time.Second)
	tr.Register("m1")

	tr.Observe("m1", 1)
	tr.Wait()
	require.Equal(t, 1, src.callCount("mark"))
	assert.Empty(t, src.marked)

	src.fail("mark", nil)
	tr.Observe("m1", 0)
	tr.Observe("m1", 1)
	tr.Wait()
	assert.Equal(t, 2, src.callCount("mark"))
	assert.Equal(t, []models.ObjectID{"m1"}, src.marked)
}

func TestReadTrackerFollowsViewport(t *testing.T) {
	src := newFakeSource(20)
	vp := NewListViewport(200, nil)
	tr := NewReadTracker(src, "u1", "c1", 0.5, time.Second)

	st := State{Messages: msgs(1, 20)}
	vp.Render(st.Messages)
	tr.Sync(st)

	// rows m1..m5 are fully visible at the top
	tr.ObserveViewport(vp)
	tr.Wait()
	assert.ElementsMatch(t, ids(msgs(1, 5)), src.marked)

	// exactly half of m8 and m13 is not enough
	vp.SetScrollTop(300)
	tr.ObserveViewport(vp)
	tr.Wait()
	assert.ElementsMatch(t, ids(append(msgs(1, 5), msgs(9, 12)...)), src.marked)

	// dropped messages are no longer observed
	tr.Sync(State{Messages: msgs(1, 5)})
	vp.SetScrollTop(600)
	tr.ObserveViewport(vp)
	tr.Wait()
	assert.Len(t, src.marked, 9)
}
