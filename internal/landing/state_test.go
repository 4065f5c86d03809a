package landing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform(" Nostr ")
	require.NoError(t, err)
	require.Equal(t, PlatformNostr, p)

	p, err = ParsePlatform("telegram")
	require.NoError(t, err)
	require.Equal(t, PlatformTelegram, p)

	_, err = ParsePlatform("")
	require.ErrorIs(t, err, ErrUnknownPlatform)
	_, err = ParsePlatform("signal")
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestPlatformLabels(t *testing.T) {
	require.Equal(t, "Nostr", PlatformNostr.Label())
	require.Equal(t, "Telegram", PlatformTelegram.Label())
	require.Equal(t, "", PlatformNone.Label())
}

func TestModeAndPanelStrings(t *testing.T) {
	require.Equal(t, "direct", ModeDirect.String())
	require.Equal(t, "channel", ModeChannel.String())
	require.Equal(t, "none", PanelNone.String())
	require.Equal(t, "quick-add", PanelQuickAdd.String())
	require.Equal(t, "manual-add", PanelManualAdd.String())
}

func TestLooksLikeChannelID(t *testing.T) {
	valid := strings.Repeat("a1", 32)
	require.True(t, LooksLikeChannelID(valid))
	require.False(t, LooksLikeChannelID(strings.ToUpper(valid)))
	require.False(t, LooksLikeChannelID(valid[:63]))
	require.False(t, LooksLikeChannelID(valid+"0"))
	require.False(t, LooksLikeChannelID(""))
}

func TestShowsPanelRequiresTelegramChannelMode(t *testing.T) {
	s := State{Platform: PlatformTelegram, Panel: PanelManualAdd}
	require.False(t, s.ShowsPanel(PanelManualAdd))
	s.Mode = ModeChannel
	require.True(t, s.ShowsPanel(PanelManualAdd))
	require.False(t, s.ShowsPanel(PanelNone))
}
