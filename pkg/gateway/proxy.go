package gateway

import (
	"fmt"
	"net/http"
	proxyutil "net/http/httputil"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/castingagency/gatekeeper/pkg/auth"
	"github.com/castingagency/gatekeeper/pkg/httputil"
	"github.com/castingagency/gatekeeper/pkg/observability"
)

// Headers set on forwarded requests. Client-supplied copies are removed.
const (
	SubjectHeader     = "X-Auth-Subject"
	PermissionsHeader = "X-Auth-Permissions"
)

// Forwarder proxies authorized requests to the resource service
type Forwarder struct {
	target *url.URL
	proxy  *proxyutil.ReverseProxy
	logger logrus.FieldLogger
}

// NewForwarder creates a forwarder for upstreamURL. A nil transport uses
// http.DefaultTransport with trace propagation.
func NewForwarder(upstreamURL string, transport http.RoundTripper, logger logrus.FieldLogger) (*Forwarder, error) {
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream URL %q: scheme must be http or https", upstreamURL)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q: missing host", upstreamURL)
	}

	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	f := &Forwarder{
		target: target,
		logger: logger,
	}
	f.proxy = &proxyutil.ReverseProxy{
		Rewrite: func(pr *proxyutil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport:    transport,
		ErrorHandler: f.handleError,
	}

	return f, nil
}

// Target returns the upstream base URL
func (f *Forwarder) Target() *url.URL {
	return f.target
}

// Forward sends r upstream with identity headers derived from claims. It has
// the shape of a protected operation so it can sit behind a Guard.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	out := r.Clone(r.Context())
	out.Header.Del(SubjectHeader)
	out.Header.Del(PermissionsHeader)

	if subject := claims.Subject(); subject != "" {
		out.Header.Set(SubjectHeader, subject)
	}
	if permissions, ok := claims.Permissions(); ok {
		out.Header.Set(PermissionsHeader, strings.Join(permissions, ","))
	}

	f.proxy.ServeHTTP(w, out)
}

func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context(), f.logger).WithFields(logrus.Fields{
		"upstream": f.target.Host,
	}).WithError(err).Warn("upstream request failed")

	httputil.WriteError(w, r, &httputil.RequestError{
		Status:      http.StatusBadGateway,
		Description: "The upstream service could not be reached.",
	})
}
