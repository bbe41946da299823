package orchestrator

import "github.com/lumix-edu/lumix-core/navigation"

type Student struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	GradeLevel    int     `json:"gradeLevel"` // 1-12
	GPA           float64 `json:"gpa"`        // 0.0-4.0
	Attendance    float64 `json:"attendance"` // percent
	BehaviorScore float64 `json:"behaviorScore"`
	Notes         string  `json:"notes"`
	RiskLevel     string  `json:"riskLevel,omitempty"`
}

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

type Prediction struct {
	Prediction string `json:"prediction"`
	RiskLevel  string `json:"riskLevel"`
}

type QuizItem struct {
	Q       string   `json:"q"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

type Flashcard struct {
	Term string `json:"term"`
	Def  string `json:"def"`
}

type SyllabusWeek struct {
	Week     int    `json:"week"`
	Topic    string `json:"topic"`
	Details  string `json:"details"`
	Activity string `json:"activity"`
}

type SystemSettings struct {
	SecurityLevel string `json:"securityLevel"`
	AICreativity  int    `json:"aiCreativity"`
}

type SchoolProfile struct {
	Name           string              `json:"name"`
	Motto          string              `json:"motto"`
	PrimaryColor   string              `json:"primaryColor"`
	SecondaryColor string              `json:"secondaryColor,omitempty"`
	LogoURL        string              `json:"logoUrl,omitempty"`
	IsConfigured   bool                `json:"isConfigured"`
	WebsiteContext string              `json:"websiteContext,omitempty"`
	Modules        *navigation.Modules `json:"modules,omitempty"`
	SystemSettings SystemSettings      `json:"systemSettings"`
}

type Insight struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // info, warning, critical
	Agent       string `json:"agent"`
}

type FeeRecord struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate"`
	Status      string  `json:"status"` // Paid, Pending, Overdue
	Type        string  `json:"type"`
}

type EthicsResult struct {
	Safe    bool   `json:"isSafe"`
	Message string `json:"message"`
}

// LandingReply is the marketing assistant's answer; Action/Target are set when the
// model asked the page to scroll or navigate.
type LandingReply struct {
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
	Target string `json:"target,omitempty"`
}
