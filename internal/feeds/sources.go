package feeds

import (
	"net/url"
	"strings"
)

// Source is one feed endpoint plus an optional display-name override.
type Source struct {
	URL  string
	Name string
}

// DisplayName returns the configured name, or a name derived from the
// endpoint host when no override is set.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Host == "" {
		return s.URL
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	host = strings.TrimPrefix(host, "feeds.")
	return host
}
