package orchestrator

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lumix-edu/lumix-core/navigation"
)

var printer = message.NewPrinter(language.English)

// riskScore is the offline stand-in for the prediction model.
func riskScore(s Student) int {
	score := 0
	switch {
	case s.GPA < 2.0:
		score += 2
	case s.GPA < 2.5:
		score++
	}
	switch {
	case s.Attendance < 75:
		score += 2
	case s.Attendance < 85:
		score++
	}
	switch {
	case s.BehaviorScore < 50:
		score += 2
	case s.BehaviorScore < 70:
		score++
	}
	return score
}

func heuristicPrediction(s Student) Prediction {
	switch score := riskScore(s); {
	case score >= 4:
		return Prediction{RiskLevel: RiskHigh, Prediction: "High risk: prioritize attendance recovery, behavior support, and tutoring."}
	case score >= 2:
		return Prediction{RiskLevel: RiskMedium, Prediction: "Moderate risk: monitor trends and intervene early on weak signals."}
	}
	return Prediction{RiskLevel: RiskLow, Prediction: "Stable: maintain momentum with consistent reinforcement."}
}

func clamp(n, lo, hi, def int) int {
	if n == 0 {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func lines(ls ...string) string { return strings.Join(ls, "\n") }

func hostnameOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return raw
}

// schoolNameFromHost turns "city-grammar.edu.pk" into "City grammar".
func schoolNameFromHost(host string) string {
	name := strings.SplitN(host, ".", 2)[0]
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return "School"
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func defaultSchool(host, context string) SchoolProfile {
	return SchoolProfile{
		Name:           schoolNameFromHost(host),
		Motto:          "Inspired Learning. Bold Futures.",
		PrimaryColor:   "#06b6d4",
		SecondaryColor: "#6366f1",
		IsConfigured:   true,
		WebsiteContext: context,
		Modules:        navigation.AllModules(),
		SystemSettings: SystemSettings{SecurityLevel: "standard", AICreativity: 50},
	}
}

func studentContext(s Student) string {
	return fmt.Sprintf("Student: %s (Grade %d)\nGPA: %v | Attendance: %v%% | Behavior: %v/100\nRisk Level: %s\nNotes: %s",
		s.Name, s.GradeLevel, s.GPA, s.Attendance, s.BehaviorScore, s.RiskLevel, s.Notes)
}

func mentioned(query string, students []Student) []Student {
	q := strings.ToLower(query)
	var out []Student
	for _, s := range students {
		if s.Name != "" && strings.Contains(q, strings.ToLower(s.Name)) {
			out = append(out, s)
		}
	}
	return out
}

func averages(students []Student) (gpa, attendance float64) {
	if len(students) == 0 {
		return 0, 0
	}
	for _, s := range students {
		gpa += s.GPA
		attendance += s.Attendance
	}
	n := float64(len(students))
	return gpa / n, attendance / n
}

// localAgentAnswer summarises the students a query names, or the whole roster.
func localAgentAnswer(query string, students []Student) string {
	if matched := mentioned(query, students); len(matched) > 0 {
		if len(matched) > 5 {
			matched = matched[:5]
		}
		ls := make([]string, 0, len(matched))
		for _, s := range matched {
			ls = append(ls, fmt.Sprintf("- %s: GPA %.2f, Attendance %v%%, Risk %s", s.Name, s.GPA, s.Attendance, s.RiskLevel))
		}
		return "AI is temporarily offline. Quick summary based on local data:\n" + strings.Join(ls, "\n")
	}
	gpa, att := averages(students)
	return fmt.Sprintf("AI is temporarily offline. Local snapshot: Total students %d, Avg GPA %.2f, Avg Attendance %.1f%%.", len(students), gpa, att)
}

func money(v float64) string { return printer.Sprintf("%d", int64(math.Round(v))) }
