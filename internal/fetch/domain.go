package fetch

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeDomain reduces a URL to its registrable domain: subdomains and
// paths are discarded, so "https://shop.example.co.uk/store" becomes
// "example.co.uk". A bare hostname is accepted as-is. Anything that cannot be
// reduced to a registrable domain yields the empty string.
func NormalizeDomain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := parsed.Hostname()
	if host == "" {
		// "example.com" parses with an empty host; treat the whole input as
		// a hostname unless it obviously is not one.
		if strings.ContainsAny(rawURL, "/ ") {
			return ""
		}
		host = rawURL
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(strings.TrimSuffix(host, ".")))
	if err != nil {
		return ""
	}
	return domain
}
