package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// LinkExtractor finds forum post links in message text
type LinkExtractor struct {
	pattern *regexp.Regexp
}

// NewLinkExtractor builds an extractor for post links under baseURL, e.g.
// https://www.smogon.com/forums/threads/some-thread.123/#post-987654
func NewLinkExtractor(baseURL string) (*LinkExtractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid forum base URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid forum base URL %q: missing host", baseURL)
	}

	prefix := regexp.QuoteMeta(u.Host + strings.TrimRight(u.Path, "/"))
	pattern, err := regexp.Compile(`(?i)https?://` + prefix + `/threads/[^/\s]+(?:/page-\d+)?(?:/?#post-|/post-)(\d+)`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile link pattern: %w", err)
	}
	return &LinkExtractor{pattern: pattern}, nil
}

// PostIDs returns the distinct post IDs linked in text, in order of appearance
func (x *LinkExtractor) PostIDs(text string) []string {
	matches := x.pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
