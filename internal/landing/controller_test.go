package landing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"abbot-web/internal/invite"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	requests []invite.Request
	result   invite.Result
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req invite.Request) (invite.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeDispatcher) calls() []invite.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]invite.Request(nil), f.requests...)
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func TestNewStartsUnselected(t *testing.T) {
	c := New(Options{})
	require.Equal(t, State{}, c.Snapshot())
	s := c.Snapshot()
	require.False(t, s.Selected())
	require.False(t, s.ChannelMode())
	require.False(t, s.QuickAddSelected())
	require.False(t, s.ManualAddSelected())
}

func TestSelectPlatformResetsChannelMode(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.SelectPlatform(PlatformNostr))
	c.EnterChannelMode()
	require.True(t, c.Snapshot().ChannelMode())

	require.NoError(t, c.SelectPlatform(PlatformTelegram))
	s := c.Snapshot()
	require.Equal(t, PlatformTelegram, s.Platform)
	require.False(t, s.ChannelMode())
}

func TestSelectPlatformKeepsIdentifierAndPanel(t *testing.T) {
	c := New(Options{})
	c.SetIdentifier("abc")
	c.SelectQuickAdd()
	require.NoError(t, c.SelectPlatform(PlatformNostr))
	s := c.Snapshot()
	require.Equal(t, "abc", s.Identifier)
	require.Equal(t, PanelQuickAdd, s.Panel)
}

func TestSelectPlatformRejectsUnknown(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.SelectPlatform(PlatformNostr))
	err := c.SelectPlatform(Platform("matrix"))
	require.ErrorIs(t, err, ErrUnknownPlatform)
	require.Equal(t, PlatformNostr, c.Snapshot().Platform)
	require.ErrorIs(t, c.SelectPlatform(PlatformNone), ErrUnknownPlatform)
}

func TestSubPanelsAreMutuallyExclusive(t *testing.T) {
	c := New(Options{})
	c.SelectQuickAdd()
	c.SelectManualAdd()
	s := c.Snapshot()
	require.False(t, s.QuickAddSelected())
	require.True(t, s.ManualAddSelected())

	c.SelectQuickAdd()
	s = c.Snapshot()
	require.True(t, s.QuickAddSelected())
	require.False(t, s.ManualAddSelected())
}

func TestResetClearsSelectionFromAnyState(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.SelectPlatform(PlatformTelegram))
	c.EnterChannelMode()
	c.SelectManualAdd()
	c.SetIdentifier("deadbeef")

	c.Reset()
	s := c.Snapshot()
	require.Equal(t, PlatformNone, s.Platform)
	require.False(t, s.ChannelMode())
	require.Equal(t, "", s.Identifier)
	// The panel toggle survives a reset, as the page always did.
	require.Equal(t, PanelManualAdd, s.Panel)
}

func TestEnterChannelModeIsIdempotentAndUnguarded(t *testing.T) {
	c := New(Options{})
	c.EnterChannelMode()
	c.EnterChannelMode()
	s := c.Snapshot()
	require.True(t, s.ChannelMode())
	require.Equal(t, PlatformNone, s.Platform)
}

func TestTelegramGroupWalkthrough(t *testing.T) {
	c := New(Options{})
	require.Equal(t, State{}, c.Snapshot())

	require.NoError(t, c.SelectPlatform(PlatformTelegram))
	require.Equal(t, State{Platform: PlatformTelegram}, c.Snapshot())

	c.EnterChannelMode()
	require.Equal(t, State{Platform: PlatformTelegram, Mode: ModeChannel}, c.Snapshot())

	c.SelectQuickAdd()
	s := c.Snapshot()
	require.True(t, s.QuickAddSelected())
	require.False(t, s.ManualAddSelected())
	require.True(t, s.ShowsPanel(PanelQuickAdd))

	c.SelectManualAdd()
	s = c.Snapshot()
	require.False(t, s.QuickAddSelected())
	require.True(t, s.ManualAddSelected())
	require.True(t, s.ShowsPanel(PanelManualAdd))
	require.False(t, s.ShowsPanel(PanelQuickAdd))
}

func TestPanelsHiddenForNostr(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.SelectPlatform(PlatformNostr))
	c.EnterChannelMode()
	c.SelectQuickAdd()
	s := c.Snapshot()
	require.True(t, s.QuickAddSelected())
	require.False(t, s.ShowsPanel(PanelQuickAdd))
	require.True(t, s.ShowsChannelForm())
}

func TestSubmitDispatchesIdentifierVerbatim(t *testing.T) {
	dispatcher := &fakeDispatcher{result: invite.Result{Success: true, Message: "Invite sent"}}
	notifier := &recordingNotifier{}
	c := New(Options{Dispatcher: dispatcher, Notifier: notifier})
	require.NoError(t, c.SelectPlatform(PlatformNostr))
	c.EnterChannelMode()
	identifier := " NOT-hex\t"
	c.SetIdentifier(identifier)

	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, "Invite sent", out.Message)
	require.Equal(t, []invite.Request{{ChannelID: identifier, Platform: "nostr"}}, dispatcher.calls())
	require.Equal(t, []string{"Invite sent"}, notifier.messages)
	require.False(t, c.Snapshot().Loading)
}

func TestSubmitReportsUnsuccessfulResult(t *testing.T) {
	dispatcher := &fakeDispatcher{result: invite.Result{Success: false, Message: "bad channel"}}
	notifier := &recordingNotifier{}
	c := New(Options{Dispatcher: dispatcher, Notifier: notifier})

	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, out.Success)
	require.Equal(t, []string{"bad channel"}, notifier.messages)
}

func TestSubmitWrapsDispatchFailure(t *testing.T) {
	boom := errors.New("connection refused")
	dispatcher := &fakeDispatcher{err: boom}
	notifier := &recordingNotifier{}
	c := New(Options{Dispatcher: dispatcher, Notifier: notifier})
	require.NoError(t, c.SelectPlatform(PlatformTelegram))

	out, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrDispatch)
	require.ErrorIs(t, err, boom)
	require.False(t, out.Success)
	require.Empty(t, notifier.messages)
	require.False(t, c.Snapshot().Loading)
}

func TestSubmitFailureStillNotifiesReturnedMessage(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result: invite.Result{Message: "502 Bad Gateway"},
		err:    invite.ErrRejected,
	}
	notifier := &recordingNotifier{}
	c := New(Options{Dispatcher: dispatcher, Notifier: notifier})

	out, err := c.Submit(context.Background())
	require.ErrorIs(t, err, invite.ErrDispatch)
	require.Equal(t, "502 Bad Gateway", out.Message)
	require.Equal(t, []string{"502 Bad Gateway"}, notifier.messages)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result:  invite.Result{Success: true},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := New(Options{Dispatcher: dispatcher})
	c.SetIdentifier("abc")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-dispatcher.started

	require.True(t, c.Snapshot().Loading)
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitInFlight)

	close(dispatcher.block)
	require.NoError(t, <-done)
	require.Len(t, dispatcher.calls(), 1)
	require.False(t, c.Snapshot().Loading)

	dispatcher.block = nil
	dispatcher.started = nil
	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, dispatcher.calls(), 2)
}

func TestSubmitWithoutDispatcher(t *testing.T) {
	c := New(Options{})
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoDispatcher)
	require.False(t, c.Snapshot().Loading)
}

func TestNotifierFunc(t *testing.T) {
	var got string
	NotifierFunc(func(m string) { got = m }).Notify("hi")
	require.Equal(t, "hi", got)
}

func TestSubmitWithAppliesInputAndDispatches(t *testing.T) {
	dispatcher := &fakeDispatcher{result: invite.Result{Success: true, Message: "joined"}}
	notifier := &recordingNotifier{}
	c := New(Options{Dispatcher: dispatcher, Notifier: notifier})
	c.EnterChannelMode()

	out, err := c.SubmitWith(context.Background(), Submission{Platform: PlatformTelegram, Identifier: " id "})
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, []invite.Request{{ChannelID: " id ", Platform: "telegram"}}, dispatcher.calls())
	require.Equal(t, []string{"joined"}, notifier.messages)

	s := c.Snapshot()
	require.Equal(t, PlatformTelegram, s.Platform)
	require.Equal(t, ModeDirect, s.Mode)
	require.Equal(t, " id ", s.Identifier)
}

func TestSubmitWithKeepsPlatformWhenNone(t *testing.T) {
	dispatcher := &fakeDispatcher{result: invite.Result{Success: true}}
	c := New(Options{Dispatcher: dispatcher})
	require.NoError(t, c.SelectPlatform(PlatformNostr))
	c.EnterChannelMode()

	_, err := c.SubmitWith(context.Background(), Submission{Identifier: "abc"})
	require.NoError(t, err)
	require.Equal(t, []invite.Request{{ChannelID: "abc", Platform: "nostr"}}, dispatcher.calls())
	require.True(t, c.Snapshot().ChannelMode())
}

func TestSubmitWithSilentSkipsNotifier(t *testing.T) {
	dispatcher := &fakeDispatcher{result: invite.Result{Success: true, Message: "joined"}}
	notifier := &recordingNotifier{}
	c := New(Options{Dispatcher: dispatcher, Notifier: notifier})

	out, err := c.SubmitWith(context.Background(), Submission{Identifier: "abc", Silent: true})
	require.NoError(t, err)
	require.Equal(t, "joined", out.Message)
	require.Empty(t, notifier.messages)
}

func TestSubmitWithRejectsUnknownPlatform(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	c := New(Options{Dispatcher: dispatcher})
	_, err := c.SubmitWith(context.Background(), Submission{Platform: Platform("matrix"), Identifier: "x"})
	require.ErrorIs(t, err, ErrUnknownPlatform)
	require.Empty(t, dispatcher.calls())
	require.Equal(t, "", c.Snapshot().Identifier)
}

func TestSubmitWithInFlightLeavesStateUntouched(t *testing.T) {
	dispatcher := &fakeDispatcher{
		result:  invite.Result{Success: true},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := New(Options{Dispatcher: dispatcher})
	c.EnterChannelMode()

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitWith(context.Background(), Submission{Platform: PlatformNostr, Identifier: "first"})
		done <- err
	}()
	<-dispatcher.started

	_, err := c.SubmitWith(context.Background(), Submission{Platform: PlatformTelegram, Identifier: "second"})
	require.ErrorIs(t, err, ErrSubmitInFlight)

	s := c.Snapshot()
	require.Equal(t, PlatformNostr, s.Platform)
	require.Equal(t, "first", s.Identifier)
	require.True(t, s.Loading)

	close(dispatcher.block)
	require.NoError(t, <-done)
	require.Len(t, dispatcher.calls(), 1)
}
