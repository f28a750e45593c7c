package dispatch

import (
	"net/url"
	"slices"
	"strings"
)

// DefaultEngine is used for unknown or empty engine names.
const DefaultEngine = "duckduckgo"

var engineURLs = map[string]string{
	"duckduckgo": "https://duckduckgo.com/?q=",
	"google":     "https://www.google.com/search?q=",
	"bing":       "https://www.bing.com/search?q=",
	"yahoo":      "https://search.yahoo.com/search?p=",
	"yandex":     "https://yandex.com/search/?text=",
	"brave":      "https://search.brave.com/search?q=",
	"ecosia":     "https://www.ecosia.org/search?q=",
	"qwant":      "https://www.qwant.com/?q=",
	"startpage":  "https://www.startpage.com/do/dsearch?query=",
	"perplexity": "https://www.perplexity.ai/?q=",
	"phind":      "https://www.phind.com/search?q=",
}

// Engines returns the supported search engine names, sorted.
func Engines() []string {
	names := make([]string, 0, len(engineURLs))
	for name := range engineURLs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidEngine reports whether name is a supported search engine.
func ValidEngine(name string) bool {
	_, ok := engineURLs[strings.ToLower(name)]
	return ok
}

// SearchURL builds the query URL for engine, falling back to DefaultEngine.
func SearchURL(engine, query string) string {
	base, ok := engineURLs[strings.ToLower(engine)]
	if !ok {
		base = engineURLs[DefaultEngine]
	}
	return base + url.QueryEscape(query)
}
