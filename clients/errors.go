package clients

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type APIError struct {
	Path    string
	Status  int
	Code    string
	Message string
	// DemoIgnored marks a 401 received under the demo token; the session was kept.
	DemoIgnored bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ai %s %d: %s", e.Path, e.Status, e.Message)
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type errorDetail struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

func parseAPIError(path string, resp *http.Response, body []byte) *APIError {
	e := &APIError{Path: path, Status: resp.StatusCode}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		var s string
		var d errorDetail
		switch {
		case len(eb.Detail) == 0:
		case json.Unmarshal(eb.Detail, &s) == nil:
			e.Message = s
		case json.Unmarshal(eb.Detail, &d) == nil:
			e.Message = d.Message
			if d.Code != nil {
				e.Code = fmt.Sprint(d.Code)
			}
		}
		if e.Message == "" {
			e.Message = eb.Message
		}
		if e.Message == "" {
			e.Message = eb.Error
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	if e.Message == "" {
		e.Message = "Request failed"
	}
	return e
}

func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsAuth reports a 401 that ended a real (non-demo) session.
func IsAuth(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Status == http.StatusUnauthorized && !e.DemoIgnored
}

// IsPaywall reports a 403 the server tagged with a plan code.
func IsPaywall(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Status == http.StatusForbidden && e.Code != ""
}

func IsRateLimited(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Status == http.StatusTooManyRequests
}
