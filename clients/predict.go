package clients

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// --- Prediction (/ai/predict) ---
type PredictReq struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	GradeLevel    int     `json:"grade_level"`
	GPA           float64 `json:"gpa"`
	Attendance    float64 `json:"attendance"`
	BehaviorScore float64 `json:"behavior_score"`
	Notes         string  `json:"notes"`
	RiskLevel     string  `json:"risk_level"`
}

type PredictResp struct {
	Prediction string `json:"prediction"`
	RiskLevel  string `json:"riskLevel"`
}

func (h *HTTP) Predict(ctx context.Context, req PredictReq) (*PredictResp, error) {
	var raw struct {
		Result json.RawMessage `json:"result"`
	}
	if err := h.post(ctx, "/ai/predict", req, &raw, true); err != nil {
		return nil, err
	}

	// result is either the object itself or a JSON document inside a string
	body := []byte(raw.Result)
	var s string
	if json.Unmarshal(body, &s) == nil {
		body = []byte(s)
	}
	var out PredictResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, "ai /ai/predict decode result")
	}
	return &out, nil
}
