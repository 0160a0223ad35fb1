package proxy

import (
	"io"
	"net/http"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/wudi/apiproxy/internal/errors"
)

// headerPair is a pre-computed header name + value.
type headerPair struct {
	Name  string
	Value string
}

// securityHeaders are applied last on every relayed response, overwriting
// any same-named upstream header.
var securityHeaders = []headerPair{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"X-XSS-Protection", "1; mode=block"},
}

// OutboundResponse is the translated upstream response, ready to write to
// the client.
type OutboundResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// hopHeaders are connection-scoped headers that must not be relayed.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Translate converts an upstream response into an OutboundResponse. The
// status is copied verbatim (out-of-range codes become 500), re-encodable
// headers are copied with hop-by-hop headers removed, the four security
// headers are applied last, and the body is read fully as raw bytes.
//
// The body is buffered before the caller commits a status line, so a read
// failure here can still yield a JSON 500 instead of a truncated stream.
func Translate(resp *http.Response) (*OutboundResponse, error) {
	out := &OutboundResponse{
		StatusCode: resp.StatusCode,
		Header:     make(http.Header, len(resp.Header)+len(securityHeaders)),
	}

	if out.StatusCode < 100 || out.StatusCode > 599 {
		out.StatusCode = http.StatusInternalServerError
	}

	for name, values := range resp.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			continue
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				continue
			}
			out.Header.Add(name, v)
		}
	}
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}

	// Applied after the upstream copy so these always win.
	for _, p := range securityHeaders {
		out.Header.Set(p.Name, p.Value)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ErrBodyReadFailure.Wrap(err)
	}
	out.Body = body

	return out, nil
}

// Write sends the translated response to the client.
func (o *OutboundResponse) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range o.Header {
		h[name] = values
	}
	h.Set("Content-Length", strconv.Itoa(len(o.Body)))
	w.WriteHeader(o.StatusCode)
	w.Write(o.Body)
}
