// Package indicator turns a strength result into what the strength meter
// shows: bar color and width, the label line, and one mark per rule.
package indicator

import (
	"github.com/jwalitptl/formkit/pkg/strength"
)

const (
	MarkPassed  = "✓"
	MarkFailed  = "✗"
	ClassPassed = "text-green-600"
	ClassFailed = "text-gray-500"
)

var colors = [strength.MaxScore]string{"bg-red-500", "bg-orange-500", "bg-yellow-500", "bg-blue-500", "bg-green-500"}

var ruleText = map[strength.Rule]string{
	strength.RuleLength:    "At least 8 characters",
	strength.RuleUppercase: "One uppercase letter",
	strength.RuleLowercase: "One lowercase letter",
	strength.RuleNumber:    "One number",
	strength.RuleSpecial:   "One special character",
}

// Check is one requirement line of the checklist.
type Check struct {
	Rule      strength.Rule `json:"rule"`
	ElementID string        `json:"element_id"`
	Passed    bool          `json:"passed"`
	Mark      string        `json:"mark"`
	Class     string        `json:"class"`
	Text      string        `json:"text"`
}

// View is the rendered strength bar and checklist.
type View struct {
	Score        int     `json:"score"`
	ColorClass   string  `json:"color_class"`
	WidthPercent float64 `json:"width_percent"`
	Text         string  `json:"text"`
	Checks       []Check `json:"checks"`
}

// ColorFor returns the bar color for a score; zero and out-of-range scores
// have none.
func ColorFor(score int) string {
	if score < 1 || score > strength.MaxScore {
		return ""
	}
	return colors[score-1]
}

// Render maps an evaluation onto the bar and checklist.
func Render(r strength.Result) View {
	checks := make([]Check, len(r.Checks))
	for i, c := range r.Checks {
		ch := Check{
			Rule:      c.Rule,
			ElementID: string(c.Rule) + "_check",
			Passed:    c.Passed,
			Mark:      MarkFailed,
			Class:     ClassFailed,
			Text:      ruleText[c.Rule],
		}
		if c.Passed {
			ch.Mark = MarkPassed
			ch.Class = ClassPassed
		}
		checks[i] = ch
	}

	return View{
		Score:        r.Score,
		ColorClass:   ColorFor(r.Score),
		WidthPercent: float64(r.Score) / float64(strength.MaxScore) * 100,
		Text:         "Password strength: " + r.DisplayLabel(),
		Checks:       checks,
	}
}

// Line is the check's text as the meter displays it, mark first.
func (c Check) Line() string {
	return c.Mark + " " + c.Text
}
