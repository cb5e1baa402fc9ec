package xregexp

import (
	"strings"

	"github.com/dlclark/regexp2/v2"

	"github.com/looplj/acquiesce/internal/pkg/xmap"
)

type patternCache struct {
	regex      *regexp2.Regexp
	exactMatch bool
	compileErr bool
}

var globalCache = xmap.New[string, *patternCache]()

func MatchString(pattern string, str string) bool {
	cached := getOrCreatePattern(pattern)

	if cached.compileErr {
		return false
	}

	if cached.exactMatch {
		return pattern == str
	}

	matched, err := cached.regex.MatchString(str)

	return err == nil && matched
}

func Filter(items []string, pattern string) []string {
	if pattern == "" {
		return []string{}
	}

	cached := getOrCreatePattern(pattern)

	if cached.compileErr {
		return []string{}
	}

	matched := make([]string, 0)

	if cached.exactMatch {
		for _, item := range items {
			if pattern == item {
				matched = append(matched, item)
			}
		}
	} else {
		for _, item := range items {
			if ok, err := cached.regex.MatchString(item); err == nil && ok {
				matched = append(matched, item)
			}
		}
	}

	return matched
}

func getOrCreatePattern(pattern string) *patternCache {
	if cached, ok := globalCache.Load(pattern); ok {
		return cached
	}

	cached := &patternCache{}

	if !containsRegexChars(pattern) {
		cached.exactMatch = true
		globalCache.Store(pattern, cached)

		return cached
	}

	compiled, err := regexp2.Compile(ensureAnchored(pattern), regexp2.None)
	if err != nil {
		cached.compileErr = true
	} else {
		cached.regex = compiled
	}

	globalCache.Store(pattern, cached)

	return cached
}

func containsRegexChars(pattern string) bool {
	return strings.ContainsAny(pattern, "*?+[]{}()^$.|\\")
}

// ensureAnchored wraps pattern in ^...$ so MatchString requires a full match
// rather than regexp2's default partial match, without disturbing a leading
// inline flag group (e.g. "(?i)") or anchors the pattern already supplies.
func ensureAnchored(pattern string) string {
	prefix, body := "", pattern

	if strings.HasPrefix(body, "(?") {
		if end := strings.Index(body, ")"); end != -1 && isFlagGroup(body[2:end]) {
			prefix, body = body[:end+1], body[end+1:]
		}
	}

	if !strings.HasPrefix(body, "^") {
		body = "^" + body
	}

	if !strings.HasSuffix(body, "$") {
		body += "$"
	}

	return prefix + body
}

// isFlagGroup reports whether s is a bare inline-flag body such as "i" or
// "ims", as opposed to a capturing-group marker like ":" or "=".
func isFlagGroup(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}

	return true
}
