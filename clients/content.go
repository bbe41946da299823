package clients

import "context"

// --- Teaching content (/ai/quiz, /ai/report) ---
type QuizReq struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

type ReportReq struct {
	StudentID string `json:"student_id"`
}

func (h *HTTP) Quiz(ctx context.Context, topic, difficulty string) (string, error) {
	var out responseBody
	if err := h.post(ctx, "/ai/quiz", QuizReq{Topic: topic, Difficulty: difficulty}, &out, true); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (h *HTTP) Report(ctx context.Context, studentID string) (string, error) {
	var out responseBody
	if err := h.post(ctx, "/ai/report", ReportReq{StudentID: studentID}, &out, true); err != nil {
		return "", err
	}
	return out.Response, nil
}
