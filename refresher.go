package gotrue

import (
	"context"
	"errors"
	"time"
)

const (
	defaultRefreshMargin = time.Minute
	refreshRetryInterval = 30 * time.Second
)

// refresher rotates the client's session before the access token expires.
// It sleeps until expiry minus the margin, refreshes, and reschedules; any
// session change wakes it up so the schedule always tracks the live session.
type refresher struct {
	client *Client
	margin time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}
}

func newRefresher(client *Client, margin time.Duration) *refresher {
	if margin <= 0 {
		margin = defaultRefreshMargin
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &refresher{
		client: client,
		margin: margin,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (r *refresher) start() {
	go r.run()
}

func (r *refresher) stop() {
	r.cancel()
	<-r.done
}

// notify is non-blocking; a pending wakeup is enough.
func (r *refresher) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *refresher) run() {
	defer close(r.done)

	for {
		wait, ok := r.nextWait()
		if !ok {
			// nothing refreshable; sleep until the session changes
			select {
			case <-r.ctx.Done():
				return
			case <-r.wake:
				continue
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-r.wake:
			timer.Stop()
			continue
		case <-timer.C:
		}

		if _, err := r.client.RefreshSession(r.ctx); err != nil {
			if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrMissingRefreshToken) {
				// session was signed out or replaced under us; reschedule
				continue
			}
			r.client.logger.Warn("auto refresh error: %v", err)
			select {
			case <-r.ctx.Done():
				return
			case <-r.wake:
			case <-time.After(refreshRetryInterval):
			}
		}
	}
}

// nextWait returns how long to sleep before the next refresh, or false when
// the current session cannot be refreshed on a schedule.
func (r *refresher) nextWait() (time.Duration, bool) {
	session := r.client.CurrentSession()
	if session == nil || session.RefreshToken == "" {
		return 0, false
	}

	expiry := session.ExpiryTime()
	if expiry.IsZero() {
		return 0, false
	}

	wait := time.Until(expiry) - r.margin
	if wait < 0 {
		wait = 0
	}
	return wait, true
}
