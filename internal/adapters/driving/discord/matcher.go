// Package discord connects blockwatch to a Discord guild: it watches
// messages for tweet links, resolves their authors, and reacts on the
// message when the author sits in the blocked set.
package discord

import "regexp"

// statusURLPattern matches tweet status links and captures the host.
var statusURLPattern = regexp.MustCompile(`https?://([a-zA-Z0-9\-\.]+)/[a-zA-Z0-9_]+/status/[0-9]+`)

// allowedHosts are the hosts a matched link may point at. Mirrors that
// re-serve tweet pages count the same as the canonical hosts.
var allowedHosts = map[string]struct{}{
	"twitter.com":       {},
	"www.twitter.com":   {},
	"x.com":             {},
	"www.x.com":         {},
	"fixvx.com":         {},
	"www.fixvx.com":     {},
	"vxtwitter.com":     {},
	"www.vxtwitter.com": {},
	"fxtwitter.com":     {},
	"www.fxtwitter.com": {},
}

// MatchStatusURLs extracts every allowed-host status URL from a message.
func MatchStatusURLs(content string) []string {
	matches := statusURLPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	var urls []string
	for _, match := range matches {
		if _, ok := allowedHosts[match[1]]; !ok {
			continue
		}
		urls = append(urls, match[0])
	}
	return urls
}
