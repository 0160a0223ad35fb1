package proxy

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildTargetURL resolves a path remainder against an upstream base using
// RFC 3986 relative-reference resolution. At most one leading slash is
// stripped from the remainder so it resolves relative to the base path
// instead of resetting to the host root; this also neutralizes
// protocol-relative remainders like "//evil.example/x".
//
// The resolved URL is pinned to the base's scheme and host: a remainder
// that would escape to a different host is rejected.
func BuildTargetURL(base *url.URL, remainder, rawQuery string) (*url.URL, error) {
	if base == nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute")
	}

	rel := strings.TrimPrefix(remainder, "/")
	ref, err := url.Parse(rel)
	if err != nil {
		return nil, fmt.Errorf("invalid path remainder %q: %w", remainder, err)
	}

	target := base.ResolveReference(ref)

	if target.Scheme != base.Scheme || target.Host != base.Host {
		return nil, fmt.Errorf("remainder %q resolves off the upstream host", remainder)
	}

	target.RawQuery = rawQuery
	return target, nil
}
