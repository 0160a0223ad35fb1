package proxy

import (
	stderrors "errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wudi/apiproxy/internal/errors"
	"github.com/wudi/apiproxy/internal/headers"
	"github.com/wudi/apiproxy/internal/logging"
	"github.com/wudi/apiproxy/internal/metrics"
	"github.com/wudi/apiproxy/internal/router"
)

// Proxy is the routing-and-forwarding pipeline. All fields are set at
// construction and shared read-only by concurrent request handlers.
type Proxy struct {
	table     *router.Table
	allowed   *headers.AllowSet
	forwarder *Forwarder
	collector *metrics.Collector // may be nil
}

// Config holds the pipeline's immutable collaborators.
type Config struct {
	Table     *router.Table
	Allowed   *headers.AllowSet
	Forwarder *Forwarder
	Collector *metrics.Collector
}

// New creates the pipeline.
func New(cfg Config) *Proxy {
	return &Proxy{
		table:     cfg.Table,
		allowed:   cfg.Allowed,
		forwarder: cfg.Forwarder,
		collector: cfg.Collector,
	}
}

// ServeHTTP runs one request through the pipeline: route resolution,
// target construction, method validation, header filtering, forwarding,
// and response translation. Every failure maps to exactly one JSON error.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	match, ok := p.table.Resolve(r.URL.Path)
	if !ok {
		p.fail(w, errors.ErrNoRouteMatch, "no_route")
		return
	}

	target, err := BuildTargetURL(match.Target, match.Remainder, r.URL.RawQuery)
	if err != nil {
		p.fail(w, errors.ErrInvalidURL.Wrap(err), "invalid_url")
		return
	}

	if !MethodAllowed(r.Method) {
		p.fail(w, errors.ErrMethodNotAllowed, "method_not_allowed")
		return
	}

	outHeader := p.allowed.Filter(r.Header)

	start := time.Now()
	resp, err := p.forwarder.Send(r.Context(), r.Method, target, outHeader, r.Body, r.ContentLength)
	if err != nil {
		p.failForward(w, match.Prefix, err)
		return
	}
	defer resp.Body.Close()

	out, err := Translate(resp)
	if err != nil {
		logging.Warn("Failed to read upstream response body",
			zap.String("route", match.Prefix),
			zap.String("target", target.String()),
			zap.Error(err),
		)
		p.fail(w, errors.ErrBodyReadFailure, "body_read")
		return
	}

	out.Write(w)

	if p.collector != nil {
		p.collector.RecordRequest(match.Prefix, r.Method, out.StatusCode, time.Since(start))
	}
}

// failForward writes the error response for a forwarding failure.
func (p *Proxy) failForward(w http.ResponseWriter, route string, err error) {
	// An inbound body over the serving layer's cap surfaces here, while
	// the transport streams it to the upstream.
	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		p.fail(w, errors.ErrRequestTooLarge, "body_too_large")
		return
	}

	var fwdErr *ForwardError
	class := FailOther
	if stderrors.As(err, &fwdErr) {
		class = fwdErr.Class
	}

	logging.Warn("Upstream request failed",
		zap.String("route", route),
		zap.String("class", class.String()),
		zap.Error(err),
	)

	switch class {
	case FailConnect:
		p.fail(w, errors.ErrUpstreamConnect, class.String())
	case FailTimeout:
		p.fail(w, errors.ErrUpstreamTimeout, class.String())
	default:
		p.fail(w, errors.ErrUpstreamOther, class.String())
	}
}

// fail writes a JSON error and records the failure class.
func (p *Proxy) fail(w http.ResponseWriter, pe *errors.ProxyError, class string) {
	if p.collector != nil {
		p.collector.RecordError(class)
	}
	pe.WriteJSON(w)
}
