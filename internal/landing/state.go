package landing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Platform names a messaging ecosystem Abbot can be invited into. The string
// value is the tag sent to the invitation backend.
type Platform string

const (
	PlatformNone     Platform = ""
	PlatformNostr    Platform = "nostr"
	PlatformTelegram Platform = "telegram"
)

// ErrUnknownPlatform is returned when a platform tag is not recognised.
var ErrUnknownPlatform = errors.New("unknown platform")

// ParsePlatform maps a platform tag to a Platform. Matching ignores case and
// surrounding space; the empty tag is rejected.
func ParsePlatform(tag string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(tag))) {
	case PlatformNostr:
		return PlatformNostr, nil
	case PlatformTelegram:
		return PlatformTelegram, nil
	default:
		return PlatformNone, fmt.Errorf("%w: %q", ErrUnknownPlatform, tag)
	}
}

// Label is the human name of the platform.
func (p Platform) Label() string {
	switch p {
	case PlatformNostr:
		return "Nostr"
	case PlatformTelegram:
		return "Telegram"
	default:
		return ""
	}
}

// Mode is the sub-flow chosen once a platform is selected.
type Mode uint8

const (
	// ModeDirect is the direct-message flow.
	ModeDirect Mode = iota
	// ModeChannel is the group/channel flow.
	ModeChannel
)

func (m Mode) String() string {
	if m == ModeChannel {
		return "channel"
	}
	return "direct"
}

// Panel is the Telegram instruction panel being shown. Holding a single value
// keeps quick-add and manual-add mutually exclusive.
type Panel uint8

const (
	PanelNone Panel = iota
	PanelQuickAdd
	PanelManualAdd
)

func (p Panel) String() string {
	switch p {
	case PanelQuickAdd:
		return "quick-add"
	case PanelManualAdd:
		return "manual-add"
	default:
		return "none"
	}
}

// State is a snapshot of one visitor's page state.
type State struct {
	Platform   Platform
	Mode       Mode
	Panel      Panel
	Identifier string
	Loading    bool
}

// Selected reports whether a platform has been chosen.
func (s State) Selected() bool {
	return s.Platform != PlatformNone
}

// ChannelMode reports whether the group/channel flow is active.
func (s State) ChannelMode() bool {
	return s.Mode == ModeChannel
}

// QuickAddSelected reports whether the quick-add panel toggle is on.
func (s State) QuickAddSelected() bool {
	return s.Panel == PanelQuickAdd
}

// ManualAddSelected reports whether the manual-add panel toggle is on.
func (s State) ManualAddSelected() bool {
	return s.Panel == PanelManualAdd
}

// ShowsPanel reports whether panel p is actually displayed. The toggles are
// only meaningful for Telegram in channel mode.
func (s State) ShowsPanel(p Panel) bool {
	return s.Platform == PlatformTelegram && s.ChannelMode() && s.Panel == p && p != PanelNone
}

// ShowsChannelForm reports whether the identifier form is displayed.
func (s State) ShowsChannelForm() bool {
	return s.Platform == PlatformNostr && s.ChannelMode()
}

var channelIDPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ChannelIDPattern is the advisory pattern rendered on the identifier input.
const ChannelIDPattern = "[a-f0-9]{64}"

// LooksLikeChannelID reports whether s is 64 lowercase hex characters. It is
// a display hint only; Submit never checks it.
func LooksLikeChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}
