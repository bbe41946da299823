package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumix-edu/lumix-core/clients"
	"github.com/lumix-edu/lumix-core/events"
	"github.com/lumix-edu/lumix-core/quota"
	"github.com/lumix-edu/lumix-core/session"
)

type rig struct {
	a    *Assistant
	sess *session.Store
	rec  *events.Recorder
	hits atomic.Int32
}

func newRig(t *testing.T, s session.Session, h http.HandlerFunc) *rig {
	t.Helper()
	r := &rig{rec: &events.Recorder{}}
	var url string
	if h == nil {
		// a listener that is already gone: every call fails at the transport
		srv := httptest.NewServer(http.NotFoundHandler())
		url = srv.URL
		srv.Close()
	} else {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.hits.Add(1)
			h(w, req)
		}))
		t.Cleanup(srv.Close)
		url = srv.URL
	}
	ledger := quota.NewMemoryLedger("")
	gate := quota.NewGate(ledger, quota.DefaultCeiling, r.rec, nil)
	r.sess = session.NewStore(s, nil, gate)
	r.a = NewAssistant(clients.NewHTTP(url, time.Second, r.sess, r.rec, nil), r.sess, gate, nil)
	r.a.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r
}

func respond(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": text})
	}
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

var (
	demo = session.Session{Token: session.DemoToken, Role: "teacher", Subscription: "demo"}
	paid = session.Session{Token: "tok-1", Role: "teacher", Subscription: "pro"}
)

func TestDemoQuizQuota(t *testing.T) {
	r := newRig(t, demo, respond("should not be called"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := r.a.GenerateQuiz(ctx, "Algebra", "easy")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Quiz (demo simulation)\nTopic: Algebra\nDifficulty: easy"))
	}
	_, err := r.a.GenerateQuiz(ctx, "Algebra", "easy")
	require.Error(t, err)
	assert.True(t, quota.IsExceeded(err))
	assert.Equal(t, "Demo AI limit reached", err.Error())
	assert.Equal(t, 1, r.rec.Count(events.TypePaywall))
	assert.Zero(t, r.hits.Load())

	// other features keep their own allowance
	_, err = r.a.GenerateLessonPlan(ctx, "Fractions", "")
	assert.NoError(t, err)
}

func TestDemoLogoutRestoresQuota(t *testing.T) {
	r := newRig(t, demo, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := r.a.GenerateFlashcards(ctx, "Cells", 2)
		require.NoError(t, err)
	}
	r.sess.Logout(ctx)
	r.sess.Save(demo)

	cards, err := r.a.GenerateFlashcards(ctx, "Cells", 2)
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{
		{Term: "Cells Term 1", Def: "Demo definition for Cells term 1."},
		{Term: "Cells Term 2", Def: "Demo definition for Cells term 2."},
	}, cards)
}

func TestDemoStructuredQuizAndSyllabus(t *testing.T) {
	r := newRig(t, demo, nil)
	ctx := context.Background()

	items, err := r.a.GenerateStructuredQuiz(ctx, "Waves", 0)
	require.NoError(t, err)
	require.Len(t, items, 10)
	for i, it := range items {
		assert.Equal(t, i%4, it.Correct)
		assert.Len(t, it.Options, 4)
	}

	weeks, err := r.a.GenerateSyllabus(ctx, "Physics", "9", 99)
	require.NoError(t, err)
	require.Len(t, weeks, 52)
	assert.Equal(t, "Physics - Demo Week 1", weeks[0].Topic)
}

func TestDemoUngatedMocks(t *testing.T) {
	r := newRig(t, demo, nil)
	ctx := context.Background()

	p, err := r.a.PredictStudentOutcome(ctx, Student{GPA: 1.0})
	require.NoError(t, err)
	assert.Equal(t, RiskLow, p.RiskLevel)
	assert.True(t, strings.HasPrefix(p.Prediction, "[DEMO MODE]"))

	for i := 0; i < 5; i++ {
		out, err := r.a.AskSystemAgent(ctx, "who is absent?", nil, "admin", nil)
		require.NoError(t, err)
		assert.Contains(t, out, `"who is absent?"`)
	}
	assert.Zero(t, r.rec.Count(events.TypePaywall))
}

func TestDemoSchoolProfile(t *testing.T) {
	r := newRig(t, demo, nil)
	p, err := r.a.AnalyzeSchoolURL(context.Background(), "https://city-grammar.edu.pk/about")
	require.NoError(t, err)
	assert.Equal(t, "City grammar", p.Name)
	assert.Equal(t, "Demo simulation: synthesized profile for city-grammar.edu.pk.", p.WebsiteContext)
	assert.True(t, p.Modules.Nexus)
}

func TestSchoolNameFromHost(t *testing.T) {
	cases := map[string]string{
		"city-grammar.edu.pk": "City grammar",
		"école-bleue.fr":      "École bleue",
		"ωmega.gr":            "Ωmega",
		"":                    "School",
	}
	for host, want := range cases {
		got := schoolNameFromHost(host)
		assert.Equal(t, want, got, host)
		assert.True(t, utf8.ValidString(got), host)
	}
}

func TestOfflinePredictionHeuristic(t *testing.T) {
	r := newRig(t, paid, nil)
	ctx := context.Background()

	p, err := r.a.PredictStudentOutcome(ctx, Student{GPA: 1.5, Attendance: 60, BehaviorScore: 40})
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, p.RiskLevel)
	assert.Equal(t, "High risk: prioritize attendance recovery, behavior support, and tutoring.", p.Prediction)

	p, err = r.a.PredictStudentOutcome(ctx, Student{GPA: 2.2, Attendance: 80, BehaviorScore: 90})
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, p.RiskLevel)

	p, err = r.a.PredictStudentOutcome(ctx, Student{GPA: 3.8, Attendance: 98, BehaviorScore: 90})
	require.NoError(t, err)
	assert.Equal(t, RiskLow, p.RiskLevel)
}

func TestOfflineFallbacks(t *testing.T) {
	r := newRig(t, paid, nil)
	ctx := context.Background()

	quiz, err := r.a.GenerateQuiz(ctx, "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(quiz, "Quiz (offline fallback)\nTopic: this topic\nDifficulty: medium"))

	cards, err := r.a.GenerateFlashcards(ctx, "Cells", 60)
	require.NoError(t, err)
	assert.Len(t, cards, 50)
	assert.Equal(t, "Definition placeholder for Cells term 1.", cards[0].Def)

	students := []Student{{Name: "Ayesha", GPA: 3.1, Attendance: 91, RiskLevel: RiskLow}, {Name: "Bilal", GPA: 2.0, Attendance: 70}}
	out, err := r.a.AskSystemAgent(ctx, "How is ayesha doing?", students, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, "AI is temporarily offline. Quick summary based on local data:\n- Ayesha: GPA 3.10, Attendance 91%, Risk Low", out)

	out, err = r.a.AskSystemAgent(ctx, "overall?", students, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, "AI is temporarily offline. Local snapshot: Total students 2, Avg GPA 2.55, Avg Attendance 80.5%.", out)

	p, err := r.a.AnalyzeSchoolURL(ctx, "https://city-grammar.edu.pk")
	require.NoError(t, err)
	assert.Equal(t, "AI Analysis failed for city-grammar.edu.pk. Using default heuristics.", p.WebsiteContext)
	assert.Equal(t, "#6366f1", p.SecondaryColor)
}

func TestGenesisParsesFencedJSON(t *testing.T) {
	r := newRig(t, paid, respond("Here you go:\n```json\n[{\"term\":\"Mitosis\",\"def\":\"Cell division\"}]\n```"))
	cards, err := r.a.GenerateFlashcards(context.Background(), "Cells", 1)
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{{Term: "Mitosis", Def: "Cell division"}}, cards)
}

func TestGenesisBadJSONFallsBack(t *testing.T) {
	r := newRig(t, paid, respond("not json at all"))
	weeks, err := r.a.GenerateSyllabus(context.Background(), "Physics", "9", 0)
	require.NoError(t, err)
	require.Len(t, weeks, 4)
	assert.Equal(t, "Physics - Week 1", weeks[0].Topic)
}

func TestGenesisNullFallsBack(t *testing.T) {
	ctx := context.Background()
	r := newRig(t, paid, respond("null"))

	weeks, err := r.a.GenerateSyllabus(ctx, "Physics", "9", 2)
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, "Physics - Week 1", weeks[0].Topic)

	cards, err := r.a.GenerateFlashcards(ctx, "Cells", 3)
	require.NoError(t, err)
	assert.Len(t, cards, 3)

	items, err := r.a.GenerateStructuredQuiz(ctx, "Waves", 0)
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestGenesisEmptyArrayIsKept(t *testing.T) {
	r := newRig(t, paid, respond("[]"))
	cards, err := r.a.GenerateFlashcards(context.Background(), "Cells", 3)
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestAuthAndPaywallPropagate(t *testing.T) {
	ctx := context.Background()

	r := newRig(t, paid, status(http.StatusUnauthorized, `{"detail":"expired"}`))
	_, err := r.a.GenerateLessonPlan(ctx, "Fractions", "5")
	require.Error(t, err)
	assert.True(t, clients.IsAuth(err))
	assert.Equal(t, 1, r.rec.Count(events.TypeAuth))
	assert.False(t, r.sess.Get().Authenticated())

	r = newRig(t, paid, status(http.StatusForbidden, `{"detail":{"code":"PLAN_REQUIRED","message":"Upgrade"}}`))
	_, err = r.a.PredictStudentOutcome(ctx, Student{})
	require.Error(t, err)
	assert.True(t, clients.IsPaywall(err))
	assert.Equal(t, 1, r.rec.Count(events.TypePaywall))
}

func TestServerErrorFallsBack(t *testing.T) {
	r := newRig(t, paid, status(http.StatusInternalServerError, `{"detail":"boom"}`))
	out, err := r.a.GenerateParentReport(context.Background(), Student{Name: "Ayesha", GradeLevel: 7, GPA: 3.456, Attendance: 92})
	require.NoError(t, err)
	assert.Contains(t, out, "Parent Report (offline fallback)")
	assert.Contains(t, out, "GPA: 3.46")
	assert.Contains(t, out, "Risk Level: Low")
}

func TestAgentRateLimited(t *testing.T) {
	r := newRig(t, paid, status(http.StatusTooManyRequests, `{"detail":"slow down"}`))
	out, err := r.a.AskSystemAgent(context.Background(), "hi", nil, "admin", nil)
	require.NoError(t, err)
	assert.Equal(t, msgJittery, out)
}

func TestLandingChat(t *testing.T) {
	ctx := context.Background()

	r := newRig(t, session.Session{}, respond(`{"text":"See our plans","action":"scroll","target":"pricing"}`))
	assert.Equal(t, LandingReply{Text: "See our plans", Action: "navigate", Target: "/subscribe"}, r.a.LandingChat(ctx, "price?", nil))

	r = newRig(t, session.Session{}, respond("Hello there."))
	assert.Equal(t, LandingReply{Text: "Hello there."}, r.a.LandingChat(ctx, "hi", nil))

	r = newRig(t, session.Session{}, status(http.StatusTooManyRequests, `{}`))
	assert.Equal(t, msgAIQuota, r.a.LandingChat(ctx, "hi", nil).Text)

	r = newRig(t, session.Session{}, nil)
	assert.Equal(t, msgNoLink, r.a.LandingChat(ctx, "hi", nil).Text)
}

func TestParseLandingReply(t *testing.T) {
	cases := []struct {
		in   string
		want LandingReply
	}{
		{`{"action":"scroll","target":"features"}`, LandingReply{Text: "Executing command...", Action: "scroll", Target: "features"}},
		{`{"text":"Go","action":"scroll","target":"/login"}`, LandingReply{Text: "Go", Action: "navigate", Target: "/login"}},
		{`{"text":"Go","action":"navigate","target":"/subscribe"}`, LandingReply{Text: "Go", Action: "navigate", Target: "/subscribe"}},
		{`{broken}`, LandingReply{Text: `{broken}`}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseLandingReply(c.in), c.in)
	}
}

func TestCheckEthics(t *testing.T) {
	assert.False(t, CheckEthics("I HATE homework").Safe)
	assert.Equal(t, EthicsResult{Safe: true, Message: "Content Safe."}, CheckEthics("Great work"))
}

func TestGenerateInsights(t *testing.T) {
	r := newRig(t, paid, nil)
	assert.Empty(t, r.a.GenerateInsights(nil))

	got := r.a.GenerateInsights([]Student{
		{GPA: 3.9, Attendance: 95, BehaviorScore: 90},
		{GPA: 1.5, Attendance: 60, BehaviorScore: 40},
	})
	require.Len(t, got, 4)
	assert.Equal(t, "ins-1700000000000-gpa", got[0].ID)
	assert.Equal(t, "Average GPA is 2.70 across 2 students", got[0].Description)
	assert.Equal(t, "warning", got[1].Severity)
	assert.Equal(t, "At-Risk Cohort", got[2].Title)
	assert.Equal(t, "warning", got[2].Severity)
	assert.Equal(t, "High Achievers", got[3].Title)
}

func TestAnalyzeFinancialsDemoIsLocal(t *testing.T) {
	r := newRig(t, demo, respond("remote"))
	out, err := r.a.AnalyzeFinancials(context.Background(), []FeeRecord{
		{Amount: 120000, Status: "Paid", Type: "Tuition"},
		{Amount: 30000, Status: "Pending", Type: "Transport"},
		{Amount: 50000, Status: "Overdue", Type: "Tuition"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ledger overview: Collected PKR 120,000, Pending PKR 30,000, Overdue PKR 50,000. Collection rate 60.0%. Largest stream: Tuition.", out)
	assert.Zero(t, r.hits.Load())
}

func TestAnalyzeFinancialsUsesBackend(t *testing.T) {
	r := newRig(t, paid, respond("Audit: healthy."))
	out, err := r.a.AnalyzeFinancials(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Audit: healthy.", out)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(dir, "quiz", []QuizItem{{Q: "q1", Options: []string{"a"}}})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var b struct {
		SessionID string     `json:"session_id"`
		Name      string     `json:"name"`
		Payload   []QuizItem `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.True(t, strings.HasPrefix(b.SessionID, "session_"))
	assert.Equal(t, "quiz", b.Name)
	assert.Equal(t, "q1", b.Payload[0].Q)
}
