// Package skoob collects the service-specific surface of skoob.com.br:
// URLs, API hosts, CSS markers and the browser-shaped header set the
// bookshelf API expects. Everything here is data; behavior lives in the
// auth and harvest packages.
package skoob

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the public site root.
	BaseURL = "https://www.skoob.com.br"

	// LoginURL is the interactive login page. Login is always completed
	// by a human; nothing here submits credentials.
	LoginURL = BaseURL + "/login"

	// BookshelfEndpoint is the internal API the site frontend calls for
	// shelf pages.
	BookshelfEndpoint = "https://prd-api.skoob.com.br/api/v1/bookshelf"

	// TokenLifetimeDays is the observed bearer token lifetime. Expiry is
	// not detectable up front; a rejected first page is the only signal.
	TokenLifetimeDays = 13
)

// API hostnames whose outbound requests carry the authorization header.
var apiHosts = []string{
	"prd-api.skoob.com.br",
	"api.skoob.com.br",
}

// User profile path prefixes. The current frontend uses /pt/user/<hex24>/,
// older pages use /usuario/<digits>/.
const (
	UserPathPrefix       = "/pt/user/"
	LegacyUserPathPrefix = "/usuario/"
)

// CSS selectors evaluated against rendered pages.
const (
	// AuthMarkerSelector matches any account-scoped link; its presence is
	// a soft signal that login completed.
	AuthMarkerSelector = `a[href*="/pt/user/"], a[href*="/usuario/"]`

	// ShelfLinkSelector matches links pointing directly at the user's
	// shelf, the preferred source for the account identifier.
	ShelfLinkSelector = `a[href*="/pt/user/"][href*="/bookshelf"], a[href*="/usuario/"][href*="/estante"]`
)

// IsAPIRequest reports whether rawURL is addressed to one of the Skoob
// API hosts, matching the hostname exactly or as a subdomain suffix.
func IsAPIRequest(rawURL string) bool {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Hostname()
	} else if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.ToLower(host)
	for _, h := range apiHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// BookshelfPageURL returns the frontend shelf page for a user. Loading
// it makes the frontend call the bookshelf API, which is what the
// network observer waits for.
func BookshelfPageURL(accountID, filter string) string {
	return fmt.Sprintf("%s%s%s/bookshelf?filter=%s", BaseURL, UserPathPrefix, accountID, url.QueryEscape(filter))
}

// BookURL resolves an API item slug to an absolute book page URL.
func BookURL(slug string) string {
	if slug == "" {
		return ""
	}
	if strings.HasPrefix(slug, "http") {
		return slug
	}
	return BaseURL + "/" + strings.TrimPrefix(slug, "/")
}

// BrowserHeaders returns the header set the site frontend sends to the
// bookshelf API, with the given bearer credential. Accept-Encoding is
// set explicitly, so responses arrive compressed and must be decoded by
// the caller.
func BrowserHeaders(credential string) map[string]string {
	return map[string]string{
		"accept":             "*/*",
		"accept-encoding":    "gzip, deflate, br, zstd",
		"accept-language":    "en-GB,en;q=0.9,pt-BR;q=0.8,pt;q=0.7,en-US;q=0.6",
		"authorization":      credential,
		"content-type":       "application/json",
		"origin":             BaseURL,
		"referer":            BaseURL + "/",
		"sec-ch-ua":          `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
		"sec-ch-ua-mobile":   "?0",
		"sec-ch-ua-platform": `"Windows"`,
		"sec-fetch-dest":     "empty",
		"sec-fetch-mode":     "cors",
		"sec-fetch-site":     "same-site",
		"user-agent":         UserAgent,
	}
}

// UserAgent mirrors the Chrome build the header set claims.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
