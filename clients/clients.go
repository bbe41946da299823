package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lumix-edu/lumix-core/events"
	"github.com/lumix-edu/lumix-core/session"
)

const DefaultTimeout = 12 * time.Second

// HTTP talks to the LumiX AI backend on behalf of the signed-in session.
type HTTP struct {
	c       *http.Client
	base    string
	timeout time.Duration
	sess    *session.Store
	pub     events.Publisher
	log     *logrus.Entry
}

func NewHTTP(base string, timeout time.Duration, sess *session.Store, pub events.Publisher, log *logrus.Entry) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if pub == nil {
		pub = events.Discard
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HTTP{
		c:       &http.Client{},
		base:    strings.TrimRight(base, "/"),
		timeout: timeout,
		sess:    sess,
		pub:     pub,
		log:     log.WithField("component", "clients"),
	}
}

// post sends payload to path and decodes a 2xx body into out. Every call is bounded
// by h.timeout; non-2xx replies come back as *APIError.
func (h *HTTP) post(ctx context.Context, path string, payload, out any, authed bool) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "ai %s encode", path)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+path, bytes.NewReader(b))
	if err != nil {
		return errors.Wrapf(err, "ai %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed && h.sess != nil {
		req.Header.Set("Authorization", "Bearer "+h.sess.Token())
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return errors.Wrapf(err, "ai %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return h.accessError(ctx, path, resp, body, authed)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "ai %s decode", path)
	}
	return nil
}

// accessError turns a failed reply into *APIError and reacts to access failures:
// a 401 logs the session out and raises an auth event (unless the session is the
// demo one), a 403 carrying a code raises a paywall event. Anonymous calls carried
// no credentials, so their failures say nothing about the session.
func (h *HTTP) accessError(ctx context.Context, path string, resp *http.Response, body []byte, authed bool) error {
	e := parseAPIError(path, resp, body)
	if !authed {
		return e
	}
	switch {
	case e.Status == http.StatusUnauthorized:
		if h.sess != nil && h.sess.Token() == session.DemoToken {
			e.DemoIgnored = true
			h.log.WithField("path", path).Warn("demo session call returned 401, ignoring")
			break
		}
		if h.sess != nil {
			h.sess.Logout(ctx)
		}
		h.pub.Publish(events.Event{Type: events.TypeAuth, Status: http.StatusUnauthorized})
	case e.Status == http.StatusForbidden && e.Code != "":
		h.pub.Publish(events.Event{Type: events.TypePaywall, Status: http.StatusForbidden, Code: e.Code})
	}
	return e
}

type responseBody struct {
	Response string `json:"response"`
}
