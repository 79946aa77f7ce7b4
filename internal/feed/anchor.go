package feed

import (
	"math"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// Element is a rendered message. Top is measured from the top of the
// scrollable content, not from the viewport.
type Element struct {
	ID     models.ObjectID
	Top    float64
	Height float64
}

func (e Element) Center() float64 {
	return e.Top + e.Height/2
}

// Viewport is the scroll container the feed renders into.
type Viewport interface {
	ScrollTop() float64
	SetScrollTop(top float64)
	ClientHeight() float64
	ScrollHeight() float64
	Elements() []Element
	Element(id models.ObjectID) (Element, bool)
}

// DistanceFromBottom is how far the viewport is scrolled up from the end.
func DistanceFromBottom(vp Viewport) float64 {
	return vp.ScrollHeight() - vp.ScrollTop() - vp.ClientHeight()
}

// Anchor pins a message to its offset from the viewport top. The scroll
// metrics at capture time feed the height-delta fallback.
type Anchor struct {
	MessageID    models.ObjectID
	Offset       float64
	ScrollTop    float64
	ScrollHeight float64
}

// CaptureAnchor picks the rendered element whose centre is closest to the
// viewport centre. It returns nil when nothing is rendered.
func CaptureAnchor(vp Viewport) *Anchor {
	elements := vp.Elements()
	if len(elements) == 0 {
		return nil
	}
	top := vp.ScrollTop()
	center := top + vp.ClientHeight()/2

	best := elements[0]
	bestDist := math.Abs(best.Center() - center)
	for _, el := range elements[1:] {
		if d := math.Abs(el.Center() - center); d < bestDist {
			best, bestDist = el, d
		}
	}
	return &Anchor{
		MessageID:    best.ID,
		Offset:       best.Top - top,
		ScrollTop:    top,
		ScrollHeight: vp.ScrollHeight(),
	}
}

// RestoreAnchor scrolls so the anchor message sits at its captured offset
// again. If the message is gone it keeps the old position shifted by the
// content height that was added. It reports whether the message was found.
func RestoreAnchor(vp Viewport, a *Anchor) bool {
	if a == nil {
		return false
	}
	if el, ok := vp.Element(a.MessageID); ok {
		vp.SetScrollTop(el.Top - a.Offset)
		return true
	}
	vp.SetScrollTop(a.ScrollTop + vp.ScrollHeight() - a.ScrollHeight)
	return false
}

// AnchorKeeper guards programmatic scroll writes. While an adjustment runs,
// and for the settle window after it, captures are refused and Busy reports
// true so scroll handlers can ignore the echo of their own writes.
type AnchorKeeper struct {
	mu          sync.Mutex
	vp          Viewport
	settle      time.Duration
	now         func() time.Time
	adjusting   bool
	settleUntil time.Time
}

func NewAnchorKeeper(vp Viewport, settle time.Duration, now func() time.Time) *AnchorKeeper {
	if now == nil {
		now = time.Now
	}
	return &AnchorKeeper{vp: vp, settle: settle, now: now}
}

func (k *AnchorKeeper) Viewport() Viewport {
	return k.vp
}

func (k *AnchorKeeper) Busy() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.busyLocked()
}

func (k *AnchorKeeper) busyLocked() bool {
	return k.adjusting || k.now().Before(k.settleUntil)
}

// Remaining is how long the current settle window still lasts.
func (k *AnchorKeeper) Remaining() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	return max(k.settleUntil.Sub(k.now()), 0)
}

// Capture returns false while busy.
func (k *AnchorKeeper) Capture() (*Anchor, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.busyLocked() {
		return nil, false
	}
	return CaptureAnchor(k.vp), true
}

// Restore realigns a captured anchor and opens a settle window.
func (k *AnchorKeeper) Restore(a *Anchor) bool {
	found := false
	k.Adjust(func(vp Viewport) {
		found = RestoreAnchor(vp, a)
	})
	return found
}

// Adjust runs a programmatic scroll write under the guard.
func (k *AnchorKeeper) Adjust(fn func(vp Viewport)) {
	k.mu.Lock()
	if k.adjusting {
		k.mu.Unlock()
		return
	}
	k.adjusting = true
	k.mu.Unlock()

	fn(k.vp)

	k.mu.Lock()
	k.adjusting = false
	k.settleUntil = k.now().Add(k.settle)
	k.mu.Unlock()
}

// ScrollToBottom and CenterOn are the two placement commands a feed issues.
func ScrollToBottom(vp Viewport) {
	vp.SetScrollTop(vp.ScrollHeight() - vp.ClientHeight())
}

func CenterOn(vp Viewport, id models.ObjectID) bool {
	el, ok := vp.Element(id)
	if !ok {
		return false
	}
	vp.SetScrollTop(el.Center() - vp.ClientHeight()/2)
	return true
}
