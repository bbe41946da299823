package clients

import "context"

// --- School branding (/ai/analyze-url) ---
type AnalyzeURLReq struct {
	URL string `json:"url"`
}

type BrandResp struct {
	Name           string `json:"name"`
	Motto          string `json:"motto"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	LogoURL        string `json:"logoUrl"`
	WebsiteContext string `json:"websiteContext"`
}

func (h *HTTP) AnalyzeURL(ctx context.Context, url string) (*BrandResp, error) {
	var out BrandResp
	if err := h.post(ctx, "/ai/analyze-url", AnalyzeURLReq{URL: url}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
