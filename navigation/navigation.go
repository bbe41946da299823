// Package navigation decides which application modules a user sees, given their
// role, the modules their school switched on, and whether the session is a demo.
package navigation

type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Modules are the optional school modules; nil means every module is on.
type Modules struct {
	Transport bool `json:"transport"`
	Library   bool `json:"library"`
	Finance   bool `json:"finance"`
	Nexus     bool `json:"nexus"`
}

func AllModules() *Modules {
	return &Modules{Transport: true, Library: true, Finance: true, Nexus: true}
}

func (m *Modules) enabled(id string) bool {
	if m == nil {
		return true
	}
	switch id {
	case "transport":
		return m.Transport
	case "library":
		return m.Library
	case "finance":
		return m.Finance
	case "nexus":
		return m.Nexus
	}
	return true
}

var dashboard = Item{ID: "dashboard", Label: "Dashboard"}

var menus = map[string][]Item{
	"admin": {
		dashboard,
		{ID: "students", Label: "Students"},
		{ID: "genesis", Label: "Genesis Engine"},
		{ID: "finance", Label: "Finance"},
		{ID: "analytics", Label: "Lumen AI"},
		{ID: "nexus", Label: "Nexus Bridge"},
		{ID: "transport", Label: "Transport"},
		{ID: "library", Label: "Library"},
		{ID: "agents", Label: "Agent Grid"},
		{ID: "subscription", Label: "Subscription"},
		{ID: "system-config", Label: "System Config"},
	},
	"teacher": {
		dashboard,
		{ID: "academics", Label: "My Classes"},
		{ID: "genesis", Label: "Genesis Engine"},
		{ID: "students", Label: "Students"},
		{ID: "library", Label: "Library"},
		{ID: "assistant", Label: "AI Copilot"},
	},
	"student": {
		dashboard,
		{ID: "ai-tutor", Label: "AI Tutor"},
		{ID: "academics", Label: "My Schedule"},
		{ID: "assignments", Label: "Assignments"},
		{ID: "library", Label: "Library"},
		{ID: "finance", Label: "Fee Status"},
	},
	"parent": {
		dashboard,
		{ID: "ai-guardian", Label: "AI Guardian"},
		{ID: "students", Label: "My Children"},
		{ID: "finance", Label: "Invoices"},
		{ID: "transport", Label: "Transport"},
		{ID: "dashboard", Label: "Notices"},
	},
}

func init() { menus["developer"] = menus["admin"] }

// demoRestricted are premium surfaces hidden from demo sessions.
var demoRestricted = map[string]bool{
	"genesis": true, "nexus": true, "agents": true, "system-config": true, "analytics": true,
}

func Items(role string, modules *Modules, demo bool) []Item {
	base, ok := menus[role]
	if !ok {
		base = []Item{dashboard}
	}
	out := make([]Item, 0, len(base))
	for _, it := range base {
		if !modules.enabled(it.ID) {
			continue
		}
		if demo && demoRestricted[it.ID] {
			continue
		}
		out = append(out, it)
	}
	return out
}

func Allowed(role string, modules *Modules, demo bool, id string) bool {
	for _, it := range Items(role, modules, demo) {
		if it.ID == id {
			return true
		}
	}
	return false
}
