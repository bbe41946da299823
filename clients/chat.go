package clients

import "context"

// --- Chat (/ai/chat, /ai/landing-chat) ---
type ChatReq struct {
	Prompt  string `json:"prompt"`
	Role    string `json:"role"`
	Context string `json:"context"`
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LandingReq struct {
	Prompt  string `json:"prompt"`
	History []Turn `json:"history"`
}

func (h *HTTP) Chat(ctx context.Context, req ChatReq) (string, error) {
	var out responseBody
	if err := h.post(ctx, "/ai/chat", req, &out, true); err != nil {
		return "", err
	}
	return out.Response, nil
}

// LandingChat is the public marketing-page assistant; it carries no credentials.
func (h *HTTP) LandingChat(ctx context.Context, prompt string, history []Turn) (string, error) {
	if history == nil {
		history = []Turn{}
	}
	var out responseBody
	if err := h.post(ctx, "/ai/landing-chat", LandingReq{Prompt: prompt, History: history}, &out, false); err != nil {
		return "", err
	}
	return out.Response, nil
}
