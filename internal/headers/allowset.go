package headers

import (
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// AllowSet is a fixed, case-insensitive set of header names permitted to
// pass from client to upstream. It is built once at startup and immutable
// afterwards.
type AllowSet struct {
	names map[string]struct{} // lowercase
}

// NewAllowSet builds an AllowSet from a list of header names. Names are
// normalized to lowercase once here, not per request.
func NewAllowSet(names []string) *AllowSet {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return &AllowSet{names: set}
}

// Contains reports whether the header name is allowed. Matching is
// case-insensitive on the name only.
func (s *AllowSet) Contains(name string) bool {
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// Len returns the number of allowed header names.
func (s *AllowSet) Len() int {
	return len(s.names)
}

// Filter projects inbound headers onto the allowed subset. Values are
// copied verbatim; headers whose name or value cannot be encoded on the
// outbound request are silently dropped.
func (s *AllowSet) Filter(in http.Header) http.Header {
	out := make(http.Header, len(s.names))
	for name, values := range in {
		if !s.Contains(name) {
			continue
		}
		if !httpguts.ValidHeaderFieldName(name) {
			continue
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				continue
			}
			out.Add(name, v)
		}
	}
	return out
}
