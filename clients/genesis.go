package clients

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/pkg/errors"
)

// --- Genesis engine (/ai/genesis/*) ---
type SyllabusReq struct {
	Topic string `json:"topic"`
	Grade string `json:"grade"`
	Weeks int    `json:"weeks"`
}

type CountReq struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

func (h *HTTP) Syllabus(ctx context.Context, req SyllabusReq) (string, error) {
	return h.genesis(ctx, "/ai/genesis/syllabus", req)
}

func (h *HTTP) Flashcards(ctx context.Context, req CountReq) (string, error) {
	return h.genesis(ctx, "/ai/genesis/flashcards", req)
}

func (h *HTTP) StructuredQuiz(ctx context.Context, req CountReq) (string, error) {
	return h.genesis(ctx, "/ai/genesis/quiz", req)
}

func (h *HTTP) genesis(ctx context.Context, path string, req any) (string, error) {
	var out responseBody
	if err := h.post(ctx, path, req, &out, true); err != nil {
		return "", err
	}
	return out.Response, nil
}

var (
	jsonFence = regexp.MustCompile("(?s)```json\\n(.*?)\\n```")
	anyFence  = regexp.MustCompile("(?s)```(.*?)```")
)

// ParseFencedJSON decodes the first ```json fenced block of text, else the first
// fenced block of any kind, else text itself.
func ParseFencedJSON(text string, v any) error {
	body := text
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		body = m[1]
	} else if m := anyFence.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return errors.Wrap(err, "ai returned invalid JSON")
	}
	return nil
}
