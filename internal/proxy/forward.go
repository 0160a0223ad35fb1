package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
)

// FailureClass classifies an outbound transport failure.
type FailureClass int

const (
	// FailConnect covers connection establishment failures.
	FailConnect FailureClass = iota
	// FailTimeout covers deadline expiry on the request or response.
	FailTimeout
	// FailOther covers every other transport-level failure.
	FailOther
)

// String returns the metrics label for the class.
func (c FailureClass) String() string {
	switch c {
	case FailConnect:
		return "upstream_connect"
	case FailTimeout:
		return "upstream_timeout"
	default:
		return "upstream_other"
	}
}

// ForwardError wraps a transport failure with its classification.
type ForwardError struct {
	Class FailureClass
	Err   error
}

func (e *ForwardError) Error() string {
	return "forward: " + e.Err.Error()
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// allowedMethods is the closed set of methods the proxy will forward.
var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodOptions: true,
	http.MethodHead:    true,
}

// MethodAllowed reports whether the proxy forwards the given method.
// Callers must reject other methods before Send.
func MethodAllowed(method string) bool {
	return allowedMethods[method]
}

// Forwarder issues outbound requests over the shared client.
type Forwarder struct {
	client *http.Client
}

// NewForwarder creates a Forwarder around the shared client. The client is
// never rebuilt per request.
func NewForwarder(client *http.Client) *Forwarder {
	return &Forwarder{client: client}
}

// Send issues a single outbound request and returns the upstream response
// or a classified ForwardError. The body is passed through byte-for-byte;
// exactly one attempt is made, never retried.
func (f *Forwarder) Send(ctx context.Context, method string, target *url.URL, header http.Header, body io.Reader, contentLength int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &ForwardError{Class: FailOther, Err: err}
	}
	req.Header = header
	req.ContentLength = contentLength

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ForwardError{Class: Classify(err), Err: err}
	}
	return resp, nil
}

// Classify maps a transport error onto the closed failure classification:
// dial failures are connect errors, deadline expiry is a timeout, and
// everything else is other.
func Classify(err error) FailureClass {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return FailConnect
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}
	return FailOther
}
