package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("sisgap/scraper")

// Headers captured from a desktop Chrome session. SISGAP rejects requests
// that do not look like they come from a browser.
const (
	headerAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	headerAcceptEncoding = "gzip"
	headerAcceptLanguage = "es-ES,es;q=0.8,en;q=0.6"
	headerConnection     = "keep-alive"
	headerUpgradeInsec   = "1"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/50.0.2661.94 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

// SessionState is the lifecycle position of a Session.
type SessionState int

const (
	StateClosed SessionState = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s SessionState) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Resources are the paths of the SISGAP pages, relative to the base URL.
type Resources struct {
	Landing   string
	Login     string
	PostLogin string
	Logout    string
	Timetable string
	Roster    string
}

// DefaultResources returns the paths used by the SISGAP staff portal.
func DefaultResources() Resources {
	return Resources{
		Landing:   "sisgap/paginas/profesores/indice.jsp",
		Login:     "sisgap/logon.do",
		PostLogin: "sisgap/iniciadaLogon.do",
		Logout:    "sisgap/cerrarSesion.do",
		Timetable: "sisgap/profesores/solicPasarLista.do",
		Roster:    "sisgap/profesores/edAsistGrupo.do",
	}
}

type SessionOptions struct {
	BaseURL     string
	Credentials Credentials
	// Zero-valued paths fall back to DefaultResources.
	Resources Resources
	UserAgent string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Session keeps the cookie and referer that make a sequence of requests look
// like one continuous browser session. A Session must not be shared between
// concurrent operations.
type Session struct {
	baseURL   *url.URL
	creds     Credentials
	resources Resources
	userAgent string
	http      *resty.Client
	log       *slog.Logger

	cookie  string
	referer string
	state   SessionState
}

func NewSession(opts SessionOptions) (*Session, error) {
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", opts.BaseURL)
	}

	resources := mergeResources(opts.Resources, DefaultResources())
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	// the session cookie is carried by hand, a jar would duplicate it
	client.SetCookieJar(nil)
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))
	host := baseURL.Host
	client.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
		req.Host = host
		return nil
	})

	return &Session{
		baseURL:   baseURL,
		creds:     opts.Credentials,
		resources: resources,
		userAgent: userAgent,
		http:      client,
		log:       logger.With("component", "sisgap_session"),
	}, nil
}

func mergeResources(r, defaults Resources) Resources {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Resources{
		Landing:   pick(r.Landing, defaults.Landing),
		Login:     pick(r.Login, defaults.Login),
		PostLogin: pick(r.PostLogin, defaults.PostLogin),
		Logout:    pick(r.Logout, defaults.Logout),
		Timetable: pick(r.Timetable, defaults.Timetable),
		Roster:    pick(r.Roster, defaults.Roster),
	}
}

// Resources returns the page paths this session talks to.
func (s *Session) Resources() Resources {
	return s.resources
}

// State reports where the session is in its lifecycle.
func (s *Session) State() SessionState {
	return s.state
}

func (s *Session) reset() {
	s.cookie = ""
	s.referer = ""
}

func (s *Session) resolve(resource string, query url.Values) string {
	u := s.baseURL.JoinPath(strings.TrimPrefix(resource, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// buildRequest attaches the browser headers plus the cookie and referer held
// by the session. Requests with form fields are sent as url-encoded POSTs.
func (s *Session) buildRequest(ctx context.Context, fields url.Values) *resty.Request {
	req := s.http.R().
		SetContext(ctx).
		SetHeader("Accept", headerAccept).
		SetHeader("Accept-Encoding", headerAcceptEncoding).
		SetHeader("Accept-Language", headerAcceptLanguage).
		SetHeader("Connection", headerConnection).
		SetHeader("Host", s.baseURL.Host).
		SetHeader("Upgrade-Insecure-Requests", headerUpgradeInsec).
		SetHeader("User-Agent", s.userAgent)

	if s.cookie != "" {
		req.SetHeader("Cookie", s.cookie)
	}
	if s.referer != "" {
		req.SetHeader("Referer", s.referer)
	}
	if fields != nil {
		req.SetFormDataFromValues(fields)
	}
	return req
}

func (s *Session) send(ctx context.Context, resource string, query, fields url.Values) (*resty.Response, error) {
	method := resty.MethodGet
	if fields != nil {
		method = resty.MethodPost
	}
	target := s.resolve(resource, query)

	ctx, span := tracer.Start(ctx, "session:"+method, trace.WithAttributes(
		attribute.String("resource", resource),
	))
	defer span.End()

	s.log.Debug("request", "method", method, "url", target)
	res, err := s.buildRequest(ctx, fields).Execute(method, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}

	s.referer = target
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if res.IsError() {
		s.log.Warn("unexpected status", "url", target, "status", res.StatusCode())
	}
	return res, nil
}

// Open performs the login handshake: landing page for the session cookie,
// credentials POST and the post-login page. Calling Open on an open session
// restarts the handshake.
func (s *Session) Open(ctx context.Context) error {
	s.reset()
	s.state = StateOpening

	err := s.handshake(ctx)
	if err != nil {
		s.reset()
		s.state = StateClosed
		return err
	}

	s.state = StateOpen
	s.log.Info("session opened", "user", s.creds.Username, "centre", s.creds.Centre)
	return nil
}

func (s *Session) handshake(ctx context.Context) error {
	// Step 1: the landing page hands out the session cookie
	res, err := s.send(ctx, s.resources.Landing, nil, nil)
	if err != nil {
		return &ScrapeError{Resource: s.resources.Landing, Err: err}
	}
	cookie := sessionCookie(res.Header())
	if cookie == "" {
		return &AuthenticationError{Reason: "landing page did not set a session cookie"}
	}
	s.cookie = cookie

	// Step 2: identify with username, password and centre
	res, err = s.send(ctx, s.resources.Login, nil, url.Values{
		"usuario":  {s.creds.Username},
		"password": {s.creds.Password},
		"centro":   {s.creds.Centre},
	})
	if err != nil {
		return &ScrapeError{Resource: s.resources.Login, Err: err}
	}
	if res.StatusCode() >= http.StatusBadRequest {
		return &AuthenticationError{Reason: fmt.Sprintf("login answered with status %d", res.StatusCode())}
	}
	if showsLoginForm(res.Body()) {
		return &AuthenticationError{Reason: "credentials rejected"}
	}

	// Step 3: land in the session
	res, err = s.send(ctx, s.resources.PostLogin, nil, nil)
	if err != nil {
		return &ScrapeError{Resource: s.resources.PostLogin, Err: err}
	}
	if showsLoginForm(res.Body()) {
		return &AuthenticationError{Reason: "post-login page still asks for credentials"}
	}
	return nil
}

// sessionCookie keeps the first ";"-delimited segment of Set-Cookie verbatim.
func sessionCookie(header http.Header) string {
	raw := header.Get("Set-Cookie")
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(raw, ";", 2)[0])
}

// showsLoginForm reports whether the page still renders a password input,
// which SISGAP does when it bounces a login attempt.
func showsLoginForm(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	return doc.Find("input[name=password]").Length() > 0
}

// Get fetches a resource and returns the raw body.
func (s *Session) Get(ctx context.Context, resource string, query url.Values) ([]byte, error) {
	if s.state != StateOpen {
		return nil, ErrSessionClosed
	}
	res, err := s.send(ctx, resource, query, nil)
	if err != nil {
		return nil, err
	}
	return res.Body(), nil
}

// Post submits form fields to a resource and returns the raw body.
func (s *Session) Post(ctx context.Context, resource string, fields url.Values) ([]byte, error) {
	if s.state != StateOpen {
		return nil, ErrSessionClosed
	}
	if fields == nil {
		fields = url.Values{}
	}
	res, err := s.send(ctx, resource, nil, fields)
	if err != nil {
		return nil, err
	}
	return res.Body(), nil
}

// Close logs out and forgets the cookie and referer whatever the logout
// request returns. The server side may keep the session alive.
func (s *Session) Close(ctx context.Context) error {
	if s.state == StateClosed {
		s.reset()
		return nil
	}

	s.state = StateClosing
	_, err := s.send(ctx, s.resources.Logout, nil, nil)
	s.reset()
	s.state = StateClosed
	if err != nil {
		s.log.Warn("logout failed", "err", err)
		return &ScrapeError{Resource: s.resources.Logout, Err: err}
	}
	s.log.Info("session closed")
	return nil
}
