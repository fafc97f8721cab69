package dashboard

import "sync"

const (
	TabAnalyze   = "analyze"
	TabIngest    = "ingest"
	TabTemplates = "templates"
	TabTrends    = "trends"
)

var tabOrder = []struct {
	name  string
	label string
}{
	{TabAnalyze, "Analyze"},
	{TabIngest, "Ingest"},
	{TabTemplates, "Templates"},
	{TabTrends, "Trends"},
}

// Tab is one navigation entry and its panel.
type Tab struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	PanelID string `json:"panel_id"`
	Active  bool   `json:"active"`
}

// PanelID returns the element id of the panel shown by tab.
func PanelID(tab string) string {
	return "panel-" + tab
}

// IsTab reports whether name is a known tab.
func IsTab(name string) bool {
	for _, t := range tabOrder {
		if t.name == name {
			return true
		}
	}
	return false
}

// Views tracks the single active tab.
type Views struct {
	mu     sync.RWMutex
	active string
}

func NewViews() *Views {
	return &Views{active: TabAnalyze}
}

// Activate makes tab the only active tab. Unknown names are rejected and
// leave the current tab active.
func (v *Views) Activate(tab string) bool {
	if !IsTab(tab) {
		return false
	}
	v.mu.Lock()
	v.active = tab
	v.mu.Unlock()
	return true
}

func (v *Views) Active() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active
}

// Tabs lists every tab in display order with exactly one marked active.
func (v *Views) Tabs() []Tab {
	active := v.Active()
	out := make([]Tab, 0, len(tabOrder))
	for _, t := range tabOrder {
		out = append(out, Tab{
			Name:    t.name,
			Label:   t.label,
			PanelID: PanelID(t.name),
			Active:  t.name == active,
		})
	}
	return out
}
