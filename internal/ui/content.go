package ui

import (
	"html/template"
	"net/url"
	"strings"
)

const (
	atlBitLabURL     = "https://atlbitlab.com"
	establishedBlock = "797812"
	establishedURL   = "https://mempool.space/block/000000000000000000000f9b0f09e68af01ae61e6f96659d992a3618ca850dec"
	twitterURL       = "https://twitter.com/atlbitlabbot"
	githubURL        = "https://github.com/ATLBitLabBot/me"
	whitepaperPath   = "/bitcoin.pdf"
	helpContactURL   = "https://t.me/nonni_io"
	helpContact      = "@nonni_io"
	description      = "Helpful bitcoiner bot from Atlanta by ATL BitLab. Est. block 797812."
	pageTitle        = "Meet Abbot: the helpful Atlanta bitcoiner bot | ATL BitLab"
)

// Site carries the identities the landing page links to.
type Site struct {
	TelegramHandle string
	NostrNpub      string
	ContactEmail   string
}

// SocialLink is one entry of the icon row at the top of the page.
type SocialLink struct {
	Label string
	Icon  string
	Href  string
}

func (s Site) handle() string {
	return strings.TrimPrefix(strings.TrimSpace(s.TelegramHandle), "@")
}

// TelegramAppURL opens the bot in the Telegram app. The tg scheme is not on
// html/template's allow-list so it is marked safe here.
func (s Site) TelegramAppURL() template.URL {
	return template.URL("tg://resolve?domain=" + url.QueryEscape(s.handle()))
}

// TelegramWebURL is the t.me page of the bot.
func (s Site) TelegramWebURL() string {
	return "https://t.me/" + url.PathEscape(s.handle())
}

// TelegramStartGroupURL opens Telegram's "add to group" picker for the bot.
func (s Site) TelegramStartGroupURL() string {
	return s.TelegramWebURL() + "?startgroup=true"
}

// NostrDMURL opens a direct message with the bot on nostrchat.io.
func (s Site) NostrDMURL() string {
	return "https://www.nostrchat.io/dm/" + url.PathEscape(s.NostrNpub)
}

// Socials lists the icon links in display order.
func (s Site) Socials() []SocialLink {
	return []SocialLink{
		{Label: "Twitter", Icon: "🐦", Href: twitterURL},
		{Label: "Primal", Icon: "🟣", Href: "https://primal.net/p/" + url.PathEscape(s.NostrNpub)},
		{Label: "Email", Icon: "📧", Href: "mailto:" + s.ContactEmail},
		{Label: "GitHub", Icon: "💻", Href: githubURL},
		{Label: "Whitepaper", Icon: "🥚", Href: whitepaperPath},
	}
}

// MetaTag is a <meta> element in the page head.
type MetaTag struct {
	Name     string
	Property string
	Content  string
}

// MetaTags returns the Open Graph, Twitter card and app-link tags.
func (s Site) MetaTags() []MetaTag {
	app := string(s.TelegramAppURL())
	return []MetaTag{
		{Property: "og:title", Content: "Abbot"},
		{Property: "og:image", Content: "/static/abbot.jpg"},
		{Property: "og:site_name", Content: "Telegram"},
		{Property: "og:description", Content: description},
		{Property: "twitter:title", Content: "Abbot"},
		{Property: "twitter:image", Content: "/static/abbot.jpg"},
		{Property: "twitter:site", Content: "@Telegram"},
		{Property: "al:ios:app_store_id", Content: "686449807"},
		{Property: "al:ios:app_name", Content: "Telegram Messenger"},
		{Property: "al:ios:url", Content: app},
		{Property: "al:android:url", Content: app},
		{Property: "al:android:app_name", Content: "Telegram"},
		{Property: "al:android:package", Content: "org.telegram.messenger"},
		{Name: "description", Content: description},
		{Name: "twitter:card", Content: "summary"},
		{Name: "twitter:site", Content: "@Telegram"},
		{Name: "twitter:description", Content: description},
		{Name: "twitter:app:name:iphone", Content: "Telegram Messenger"},
		{Name: "twitter:app:id:iphone", Content: "686449807"},
		{Name: "twitter:app:url:iphone", Content: app},
		{Name: "twitter:app:name:ipad", Content: "Telegram Messenger"},
		{Name: "twitter:app:id:ipad", Content: "686449807"},
		{Name: "twitter:app:url:ipad", Content: app},
		{Name: "twitter:app:name:googleplay", Content: "Telegram"},
		{Name: "twitter:app:id:googleplay", Content: "org.telegram.messenger"},
		{Name: "twitter:app:url:googleplay", Content: s.TelegramWebURL()},
	}
}
