package feed

import (
	"time"
)

type Direction int

const (
	Older Direction = iota
	Newer
)

func (d Direction) String() string {
	if d == Older {
		return "older"
	}
	return "newer"
}

// Boundary tracks one pagination direction of a view.
//
//	Idle --TryBegin--> Loading --Succeed/Fail--> Idle
//
// A boundary that received a short page never loads again.
type Boundary struct {
	CanLoad     bool
	Loading     bool
	LastRequest time.Time

	cooldown     time.Duration
	penalty      time.Duration
	blockedUntil time.Time
}

func NewBoundary(cooldown, penalty time.Duration) *Boundary {
	return &Boundary{
		CanLoad:  true,
		cooldown: cooldown,
		penalty:  penalty,
	}
}

// Ready reports whether a request may start at now.
func (b *Boundary) Ready(now time.Time) bool {
	if b.Loading || !b.CanLoad {
		return false
	}
	if !b.LastRequest.IsZero() && now.Sub(b.LastRequest) < b.cooldown {
		return false
	}
	return !now.Before(b.blockedUntil)
}

// TryBegin moves the boundary to Loading when Ready.
func (b *Boundary) TryBegin(now time.Time) bool {
	if !b.Ready(now) {
		return false
	}
	b.Loading = true
	b.LastRequest = now
	return true
}

// Succeed ends the in-flight request. It returns false for a result the
// boundary was not waiting for.
func (b *Boundary) Succeed(received, pageSize int) bool {
	if !b.Loading {
		return false
	}
	b.Loading = false
	if received < pageSize {
		b.CanLoad = false
	}
	return true
}

// Fail ends the in-flight request and blocks retries for the cool-down plus
// the failure penalty. CanLoad is left alone.
func (b *Boundary) Fail(now time.Time) bool {
	if !b.Loading {
		return false
	}
	b.Loading = false
	b.blockedUntil = now.Add(b.cooldown + b.penalty)
	return true
}

// Exhaust marks the direction as having no more data.
func (b *Boundary) Exhaust() {
	b.CanLoad = false
}

// RetryIn is how long until the boundary is Ready again, ignoring Loading
// and CanLoad.
func (b *Boundary) RetryIn(now time.Time) time.Duration {
	wait := time.Duration(0)
	if !b.LastRequest.IsZero() {
		wait = b.cooldown - now.Sub(b.LastRequest)
	}
	if blocked := b.blockedUntil.Sub(now); blocked > wait {
		wait = blocked
	}
	return max(wait, 0)
}
