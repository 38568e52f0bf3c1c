package forensic

import (
	"regexp"
	"strings"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// Browser title parsing is inherently heuristic: titles usually carry a page
// title, sometimes a domain, rarely a full URL. The precedence below (full
// URL, then domain after stripping the browser suffix, then the cleaned raw
// title) is load-bearing; downstream history content depends on it.

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	domainPattern = regexp.MustCompile(`([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}`)
)

// browserKeywords identify browser applications by name.
var browserKeywords = []string{"chrome", "firefox", "edge", "brave", "opera", "safari"}

// browserSuffixes are the product names browsers append to window titles.
// Longer names first so "Microsoft Edge" strips before "Edge".
var browserSuffixes = []string{
	"Google Chrome", "Mozilla Firefox", "Microsoft Edge", "Edge", "Chrome", "Firefox",
}

// titleSeparators join the page title and the browser suffix.
var titleSeparators = []string{" - ", " — ", " – ", " | "}

// IsBrowser reports whether the application name matches a known browser.
func IsBrowser(appName string) bool {
	lower := strings.ToLower(appName)
	for _, kw := range browserKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractTab derives the tab entry and, when possible, an absolute URL from
// a browser window title.
//
// Returns the tab entry to record and the URL to add to the session's URL
// history; url is empty when no URL or domain could be derived.
func ExtractTab(title string) (tab, url string) {
	// Full URL anywhere in the title wins.
	if m := urlPattern.FindString(title); m != "" {
		return m, m
	}

	clean := stripBrowserSuffix(title)

	// Domain-looking remainder: record as "domain - page title".
	if domain := domainPattern.FindString(clean); domain != "" {
		remainder := strings.Replace(clean, domain, "", 1)
		remainder = strings.TrimLeft(remainder, " \t-|")
		remainder = strings.TrimSpace(remainder)
		tab = domain
		if remainder != "" {
			tab = domain + " - " + remainder
		}
		return tab, "https://" + domain
	}

	return strings.TrimSpace(clean), ""
}

// stripBrowserSuffix removes a trailing "<sep><browser name>" from the title.
func stripBrowserSuffix(title string) string {
	for _, name := range browserSuffixes {
		for _, sep := range titleSeparators {
			if i := strings.Index(title, sep+name); i >= 0 {
				return title[:i]
			}
		}
	}
	return title
}

// ClassifyContext infers the usage context of an application from its name.
func ClassifyContext(appName string) telemetry.AppContext {
	lower := strings.ToLower(appName)
	switch {
	case IsBrowser(appName):
		return telemetry.ContextWebBrowsing
	case strings.Contains(lower, "code") || strings.Contains(lower, "visual studio"):
		return telemetry.ContextDevelopment
	case strings.Contains(lower, "slack") || strings.Contains(lower, "teams") || strings.Contains(lower, "discord"):
		return telemetry.ContextCommunication
	case strings.Contains(lower, "word") || strings.Contains(lower, "excel") || strings.Contains(lower, "powerpoint"):
		return telemetry.ContextProductivity
	default:
		return telemetry.ContextGeneral
	}
}
