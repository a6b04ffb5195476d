package feedclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// DefaultLikeWindow is the quiet period after the last click before the net
// like state is sent.
const DefaultLikeWindow = 500 * time.Millisecond

var (
	ErrCoalescerClosed = errors.New("like coalescer is closed")
	ErrUnknownPost     = errors.New("post is not in the store")
)

// LikeSender issues the single like call at the end of a burst. *Client
// implements it.
type LikeSender interface {
	SetLike(ctx context.Context, postID uint, liked bool) (*LikeState, error)
}

// Timer is the part of *time.Timer the coalescer uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// CoalescerOption configures a Coalescer.
type CoalescerOption func(*Coalescer)

// WithWindow sets the debounce window. Non-positive values keep the default.
func WithWindow(d time.Duration) CoalescerOption {
	return func(c *Coalescer) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithAfterFunc replaces the timer source.
func WithAfterFunc(f AfterFunc) CoalescerOption {
	return func(c *Coalescer) { c.afterFunc = f }
}

// WithSettled registers a callback run after every issued call, with the
// call's error. Owners typically refetch the post there.
func WithSettled(f func(postID uint, err error)) CoalescerOption {
	return func(c *Coalescer) { c.onSettled = f }
}

// WithCallTimeout bounds each like call.
func WithCallTimeout(d time.Duration) CoalescerOption {
	return func(c *Coalescer) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

type pendingLike struct {
	timer    Timer
	clicks   int
	gen      uint64
	snapshot PostView
}

// Coalescer turns bursts of like clicks on a post into at most one call.
// Each click updates the store at once; when a post has been quiet for the
// window, one call carrying the final state is sent if the number of clicks
// was odd. An even burst cancels out and sends nothing.
type Coalescer struct {
	sender      LikeSender
	store       *Store
	window      time.Duration
	callTimeout time.Duration
	afterFunc   AfterFunc
	onSettled   func(postID uint, err error)

	mu      sync.Mutex
	pending map[uint]*pendingLike
	gen     uint64
	closed  bool

	inflight conc.WaitGroup
}

func NewCoalescer(sender LikeSender, store *Store, opts ...CoalescerOption) *Coalescer {
	c := &Coalescer{
		sender:      sender,
		store:       store,
		window:      DefaultLikeWindow,
		callTimeout: defaultTimeout,
		afterFunc:   stdAfterFunc,
		pending:     make(map[uint]*pendingLike),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the debounce window in use.
func (c *Coalescer) Window() time.Duration {
	return c.window
}

// Click records one like toggle on postID and returns the optimistic view.
func (c *Coalescer) Click(postID uint) (PostView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return PostView{}, ErrCoalescerClosed
	}
	before, after, ok := c.store.toggle(postID)
	if !ok {
		return PostView{}, ErrUnknownPost
	}

	p := c.pending[postID]
	if p == nil {
		p = &pendingLike{snapshot: before}
		c.pending[postID] = p
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.clicks++
	c.gen++
	p.gen = c.gen
	gen := p.gen
	p.timer = c.afterFunc(c.window, func() { c.fire(postID, gen) })

	return after, nil
}

// Pending reports whether postID has an unsent burst.
func (c *Coalescer) Pending(postID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[postID]
	return ok
}

func (c *Coalescer) fire(postID uint, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pending[postID]
	if p == nil || p.gen != gen {
		// Reset by a later click or already flushed.
		return
	}
	c.dispatchLocked(postID, p)
}

// dispatchLocked clears the burst and sends its net effect. c.mu must be held.
func (c *Coalescer) dispatchLocked(postID uint, p *pendingLike) {
	delete(c.pending, postID)
	if p.clicks%2 == 0 {
		return
	}

	view, ok := c.store.Get(postID)
	if !ok {
		// Deleted while the burst was pending.
		return
	}
	liked := view.Liked
	snapshot := p.snapshot
	c.inflight.Go(func() {
		c.send(postID, liked, snapshot)
	})
}

func (c *Coalescer) send(postID uint, liked bool, snapshot PostView) {
	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()

	state, err := c.sender.SetLike(ctx, postID, liked)

	c.mu.Lock()
	next, newBurst := c.pending[postID]
	switch {
	case err != nil && newBurst:
		// Clicks made while the call was in flight stay applied, but on top
		// of what the server still holds.
		c.store.toggle(postID)
		next.snapshot = snapshot
	case err != nil:
		c.store.Set(snapshot)
	case state != nil && !newBurst:
		c.store.ApplyLikeState(*state)
	}
	c.mu.Unlock()

	if c.onSettled != nil {
		c.onSettled(postID, err)
	}
}

// Flush sends every pending burst now and waits for all calls to finish.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	for postID, p := range c.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		c.dispatchLocked(postID, p)
	}
	c.mu.Unlock()

	c.inflight.Wait()
}

// Close flushes pending bursts and rejects further clicks.
func (c *Coalescer) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Flush()
}
