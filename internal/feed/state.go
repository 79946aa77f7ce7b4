package feed

import (
	"slices"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

type ScrollCommand int

const (
	ScrollNone ScrollCommand = iota
	ScrollToLatest
	ScrollCenterTarget
	ScrollRestoreAnchor
	ScrollKeepHeightDelta
)

// State is what a feed exposes to the view.
type State struct {
	ChannelID            models.ObjectID
	Messages             []models.Message
	HasMoreOlder         bool
	HasMoreNewer         bool
	LoadingOlder         bool
	LoadingNewer         bool
	TargetMessageID      models.ObjectID
	HighlightTarget      bool
	IsLoading            bool
	NotFound             bool
	NewMessagesAvailable bool
	// LiveLost is set once the live subscription ended on its own.
	LiveLost bool

	// Scroll is the placement the feed applies to the viewport right after
	// subscribers have rendered this state.
	Scroll ScrollCommand
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	return s
}

// Event drives a feed. Only the types in this package implement it.
type Event interface {
	event()
}

type (
	LiveBatchArrived struct{ Batch models.LiveBatch }
	LiveFailed       struct{ Err error }

	// ScrollChanged tells the feed the viewport moved; positions are read
	// from the viewport itself.
	ScrollChanged struct{}
	JumpToLatest  struct{}

	// Page results carry the window epoch they were requested in. A result
	// from an older epoch belongs to a window that was replaced.
	OlderLoadRequested struct{}
	OlderLoadSucceeded struct {
		Messages []models.Message
		Limit    int
		epoch    int
	}
	OlderLoadFailed struct {
		Err   error
		epoch int
	}

	NewerLoadRequested struct{}
	NewerLoadSucceeded struct {
		Messages []models.Message
		Limit    int
		epoch    int
	}
	NewerLoadFailed struct {
		Err   error
		epoch int
	}

	// TargetSeekRequested pages a SimpleFeed back to a target that is older
	// than its live window.
	TargetSeekRequested struct{}
	TargetSeekDone      struct {
		Messages  []models.Message
		Found     bool
		Exhausted bool
	}
	TargetSeekFailed struct{ Err error }

	ContextRequested struct{}
	ContextLoaded    struct{ Context models.MessageContext }
	ContextNotFound  struct{}
	ContextFailed    struct{ Err error }
)

func (LiveBatchArrived) event()    {}
func (LiveFailed) event()          {}
func (ScrollChanged) event()       {}
func (JumpToLatest) event()        {}
func (OlderLoadRequested) event()  {}
func (OlderLoadSucceeded) event()  {}
func (OlderLoadFailed) event()     {}
func (NewerLoadRequested) event()  {}
func (NewerLoadSucceeded) event()  {}
func (NewerLoadFailed) event()     {}
func (TargetSeekRequested) event() {}
func (TargetSeekDone) event()      {}
func (TargetSeekFailed) event()    {}
func (ContextRequested) event()    {}
func (ContextLoaded) event()       {}
func (ContextNotFound) event()     {}
func (ContextFailed) event()       {}
