// Package landing holds the interactive state of the Abbot landing page and
// the transitions the page's buttons and form trigger.
package landing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"abbot-web/internal/invite"
	"abbot-web/internal/logging"
)

var (
	// ErrSubmitInFlight is returned by Submit while a previous submission has
	// not completed. No second dispatch is issued.
	ErrSubmitInFlight = errors.New("invite submission already in progress")
	// ErrDispatch wraps every failure reported by the Dispatcher.
	ErrDispatch = errors.New("invite dispatch failed")
	// ErrNoDispatcher is returned by Submit when the controller was built
	// without a Dispatcher.
	ErrNoDispatcher = errors.New("no invite dispatcher configured")
)

// Dispatcher sends an invitation for the given identifier and platform tag.
type Dispatcher interface {
	Dispatch(ctx context.Context, req invite.Request) (invite.Result, error)
}

// Notifier displays a message to the visitor.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) {
	f(message)
}

// Options configures a Controller.
type Options struct {
	Dispatcher Dispatcher
	Notifier   Notifier
	Logger     logging.Logger
}

// Outcome describes a completed submission.
type Outcome struct {
	Identifier string
	Platform   Platform
	Success    bool
	Message    string
}

// Controller owns the state of a single page session. It is safe for
// concurrent use.
type Controller struct {
	dispatcher Dispatcher
	notifier   Notifier
	logger     logging.Logger

	mu    sync.Mutex
	state State
}

// New returns a Controller in the initial state: no platform, direct mode,
// no panel, empty identifier, not loading.
func New(opts Options) *Controller {
	return &Controller{
		dispatcher: opts.Dispatcher,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelectPlatform switches to p and leaves channel mode. The identifier and
// the Telegram panel toggle are kept.
func (c *Controller) SelectPlatform(p Platform) error {
	if p != PlatformNostr && p != PlatformTelegram {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Platform = p
	c.state.Mode = ModeDirect
	return nil
}

// Reset returns to the unselected state and clears the identifier. The
// Telegram panel toggle is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Platform = PlatformNone
	c.state.Mode = ModeDirect
	c.state.Identifier = ""
}

// EnterChannelMode switches to the group/channel flow. It does not require a
// platform to be selected.
func (c *Controller) EnterChannelMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Mode = ModeChannel
}

// SelectQuickAdd shows the quick-add panel and hides the manual-add panel.
// Callers only offer it for Telegram; the assignment itself is unconditional.
func (c *Controller) SelectQuickAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Panel = PanelQuickAdd
}

// SelectManualAdd shows the manual-add panel and hides the quick-add panel.
func (c *Controller) SelectManualAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Panel = PanelManualAdd
}

// SetIdentifier stores s verbatim.
func (c *Controller) SetIdentifier(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Identifier = s
}

// Submission is a submit request that carries its own input. Platform is
// selected first unless it is PlatformNone. Silent skips the Notifier, for
// callers that report the Outcome themselves.
type Submission struct {
	Platform   Platform
	Identifier string
	Silent     bool
}

// Submit sends the current identifier and platform to the Dispatcher.
//
// While a submission is in flight the state reports Loading and further calls
// fail with ErrSubmitInFlight. Loading is cleared once the Dispatcher returns,
// whatever the result. Dispatcher errors are logged and returned wrapped in
// ErrDispatch; any message the Dispatcher produced is still passed to the
// Notifier and returned in the Outcome.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	out, err := c.beginLocked()
	c.mu.Unlock()
	if err != nil {
		return Outcome{}, err
	}
	return c.dispatch(ctx, out, false)
}

// SubmitWith applies sub and submits in one step. When a submission is
// already in flight it fails with ErrSubmitInFlight and the state is left
// untouched.
func (c *Controller) SubmitWith(ctx context.Context, sub Submission) (Outcome, error) {
	if sub.Platform != PlatformNone && sub.Platform != PlatformNostr && sub.Platform != PlatformTelegram {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, string(sub.Platform))
	}
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	if sub.Platform != PlatformNone {
		c.state.Platform = sub.Platform
		c.state.Mode = ModeDirect
	}
	c.state.Identifier = sub.Identifier
	out, err := c.beginLocked()
	c.mu.Unlock()
	if err != nil {
		return Outcome{}, err
	}
	return c.dispatch(ctx, out, sub.Silent)
}

func (c *Controller) beginLocked() (Outcome, error) {
	if c.state.Loading {
		return Outcome{}, ErrSubmitInFlight
	}
	if c.dispatcher == nil {
		return Outcome{}, ErrNoDispatcher
	}
	c.state.Loading = true
	return Outcome{Identifier: c.state.Identifier, Platform: c.state.Platform}, nil
}

func (c *Controller) dispatch(ctx context.Context, out Outcome, silent bool) (Outcome, error) {
	defer func() {
		c.mu.Lock()
		c.state.Loading = false
		c.mu.Unlock()
	}()

	result, err := c.dispatcher.Dispatch(ctx, invite.Request{
		ChannelID: out.Identifier,
		Platform:  string(out.Platform),
	})
	out.Success = result.Success && err == nil
	out.Message = result.Message

	if out.Message != "" && !silent {
		c.notify(out.Message)
	}
	if err != nil {
		c.logf("invite dispatch failed for platform=%q: %v", out.Platform, err)
		return out, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if !out.Success {
		c.logf("invite not accepted for platform=%q: %s", out.Platform, out.Message)
		return out, nil
	}
	c.logf("channel invite sent on %s", out.Platform.Label())
	return out, nil
}

func (c *Controller) notify(message string) {
	if c.notifier != nil {
		c.notifier.Notify(message)
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
