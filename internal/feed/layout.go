package feed

import (
	"sync"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// ListViewport is an in-memory Viewport that stacks messages top to bottom.
// Render must be called from a feed subscriber so layout happens before the
// feed restores its anchor.
type ListViewport struct {
	mu           sync.RWMutex
	clientHeight float64
	heightOf     func(models.Message) float64
	scrollTop    float64
	elements     []Element
	index        map[models.ObjectID]int
	total        float64
}

func NewListViewport(clientHeight float64, heightOf func(models.Message) float64) *ListViewport {
	if heightOf == nil {
		heightOf = func(models.Message) float64 { return 40 }
	}
	return &ListViewport{
		clientHeight: clientHeight,
		heightOf:     heightOf,
		index:        map[models.ObjectID]int{},
	}
}

// Render lays out msgs. The scroll offset is kept as is, like a browser
// does when content above the fold changes.
func (v *ListViewport) Render(msgs []models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.elements = make([]Element, 0, len(msgs))
	v.index = make(map[models.ObjectID]int, len(msgs))
	top := 0.0
	for i, m := range msgs {
		h := v.heightOf(m)
		v.elements = append(v.elements, Element{ID: m.ID, Top: top, Height: h})
		v.index[m.ID] = i
		top += h
	}
	v.total = top
	v.scrollTop = v.clamp(v.scrollTop)
}

// Subscriber adapts Render to a feed subscription.
func (v *ListViewport) Subscriber() func(State) {
	return func(st State) { v.Render(st.Messages) }
}

func (v *ListViewport) ScrollTop() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scrollTop
}

func (v *ListViewport) SetScrollTop(top float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollTop = v.clamp(top)
}

func (v *ListViewport) ClientHeight() float64 {
	return v.clientHeight
}

func (v *ListViewport) ScrollHeight() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return max(v.total, v.clientHeight)
}

// Elements returns the elements intersecting the visible area.
func (v *ListViewport) Elements() []Element {
	v.mu.RLock()
	defer v.mu.RUnlock()
	lo, hi := v.scrollTop, v.scrollTop+v.clientHeight
	out := make([]Element, 0, 16)
	for _, el := range v.elements {
		if el.Top+el.Height <= lo || el.Top >= hi {
			continue
		}
		out = append(out, el)
	}
	return out
}

func (v *ListViewport) Element(id models.ObjectID) (Element, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	i, ok := v.index[id]
	if !ok {
		return Element{}, false
	}
	return v.elements[i], true
}

// VisibleRatio is the share of the element's height inside the viewport.
func (v *ListViewport) VisibleRatio(id models.ObjectID) float64 {
	el, ok := v.Element(id)
	if !ok || el.Height <= 0 {
		return 0
	}
	top := v.ScrollTop()
	lo := max(el.Top, top)
	hi := min(el.Top+el.Height, top+v.clientHeight)
	if hi <= lo {
		return 0
	}
	return (hi - lo) / el.Height
}

func (v *ListViewport) clamp(top float64) float64 {
	maxTop := max(v.total-v.clientHeight, 0)
	return min(max(top, 0), maxTop)
}
