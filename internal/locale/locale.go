// Package locale resolves a visitor's language against the bundled message
// files and localizes the small set of server-side strings (category
// labels, reading-time text).
package locale

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// CookieName is the locale preference cookie set by the front-end.
	CookieName = "locale"
	// CookieUnset is the sentinel for a visitor who has never confirmed a
	// preference, distinct from one who explicitly chose the default.
	CookieUnset = "unset"
)

// ParseAcceptLanguage splits an Accept-Language header into locale codes
// in the client's stated order. Quality weights are stripped, not sorted
// by: first listed wins.
func ParseAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	parts := strings.Split(header, ",")
	locales := make([]string, 0, len(parts))
	for _, part := range parts {
		code := part
		if i := strings.Index(part, ";"); i >= 0 {
			code = part[:i]
		}
		code = strings.TrimSpace(code)
		if code != "" {
			locales = append(locales, code)
		}
	}
	return locales
}

// FindBestMatch picks the supported locale best matching the preference
// list: exact match first, then a supported locale sharing the primary
// language subtag, then fallback.
func FindBestMatch(preferred, supported []string, fallback string) string {
	for _, want := range preferred {
		for _, have := range supported {
			if want == have {
				return have
			}
		}

		lang := primarySubtag(want)
		for _, have := range supported {
			if primarySubtag(have) == lang {
				return have
			}
		}
	}
	return fallback
}

func primarySubtag(code string) string {
	if i := strings.Index(code, "-"); i >= 0 {
		return code[:i]
	}
	return code
}

// Matcher holds the discovered supported locales and their message
// catalogs.
type Matcher struct {
	Default   string
	Supported []string

	messages map[string]map[string]string
}

// NewMatcher scans dir for <locale>.json message files. The default
// locale's file missing is a startup invariant violation and a hard error.
func NewMatcher(dir, defaultLocale string) (*Matcher, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages dir: %w", err)
	}

	m := &Matcher{
		Default:  defaultLocale,
		messages: make(map[string]map[string]string),
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		code := strings.TrimSuffix(name, ".json")

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read messages for %s: %w", code, err)
		}

		var catalog map[string]string
		if err := json.Unmarshal(raw, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse messages for %s: %w", code, err)
		}

		m.Supported = append(m.Supported, code)
		m.messages[code] = catalog
	}
	sort.Strings(m.Supported)

	if _, ok := m.messages[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no message file in %s", defaultLocale, dir)
	}

	return m, nil
}

// Resolve picks a locale for one request: a confirmed cookie value wins,
// then the Accept-Language header, then the default.
func (m *Matcher) Resolve(cookie, acceptLanguage string) string {
	if cookie != "" && cookie != CookieUnset {
		for _, have := range m.Supported {
			if cookie == have {
				return have
			}
		}
	}
	return FindBestMatch(ParseAcceptLanguage(acceptLanguage), m.Supported, m.Default)
}

// Message looks up a catalog string, falling back to the default locale's
// catalog and finally to the key itself.
func (m *Matcher) Message(locale, key string) string {
	if catalog, ok := m.messages[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := m.messages[m.Default][key]; ok {
		return msg
	}
	return key
}

// LocalizeCategory maps a raw CMS category value to its label for locale.
// Unknown categories pass through unchanged.
func (m *Matcher) LocalizeCategory(locale, category string) string {
	key := "category." + category
	if msg := m.Message(locale, key); msg != key {
		return msg
	}
	return category
}
