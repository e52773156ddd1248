// Package strength scores candidate passwords against a fixed checklist of
// five independent rules. Evaluate is pure and safe for concurrent use.
package strength

import (
	"regexp"
	"unicode/utf16"
)

// Rule names one predicate of the checklist.
type Rule string

const (
	RuleLength    Rule = "length"
	RuleUppercase Rule = "uppercase"
	RuleLowercase Rule = "lowercase"
	RuleNumber    Rule = "number"
	RuleSpecial   Rule = "special"
)

const (
	// MinLength is the character count required by the length rule.
	MinLength = 8
	// MaxScore is the number of rules in the checklist.
	MaxScore = 5
	// Threshold is the minimum score accepted for a signup password.
	Threshold = 4
	// SpecialChars is the set of characters satisfying the special rule.
	SpecialChars = `!@#$%^&*(),.?":{}|<>`
)

// NoLabel is displayed for a score of zero.
const NoLabel = "None"

var labels = [MaxScore]string{"Very Weak", "Weak", "Medium", "Strong", "Very Strong"}

type ruleDef struct {
	rule Rule
	test func(string) bool
}

// length counts UTF-16 code units, as a browser reports a password's length:
// characters outside the Basic Multilingual Plane count twice.
func length(p string) int {
	return len(utf16.Encode([]rune(p)))
}

func matches(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

// Evaluation order is fixed and determines the order of Result.Checks.
var ruleTable = [MaxScore]ruleDef{
	{RuleLength, func(p string) bool { return length(p) >= MinLength }},
	{RuleUppercase, matches(regexp.MustCompile(`[A-Z]`))},
	{RuleLowercase, matches(regexp.MustCompile(`[a-z]`))},
	{RuleNumber, matches(regexp.MustCompile(`[0-9]`))},
	{RuleSpecial, matches(regexp.MustCompile(`[` + regexp.QuoteMeta(SpecialChars) + `]`))},
}

// Rules returns the checklist in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(ruleTable))
	for i, d := range ruleTable {
		out[i] = d.rule
	}
	return out
}

// Check is the outcome of a single rule.
type Check struct {
	Rule   Rule `json:"rule"`
	Passed bool `json:"passed"`
}

// Result is the scored breakdown for one password. It is a value; every call
// to Evaluate builds a fresh one.
type Result struct {
	Checks         []Check `json:"checks"`
	Score          int     `json:"score"`
	Label          string  `json:"label"`
	MeetsThreshold bool    `json:"meets_threshold"`
}

// Evaluate scores password. It accepts any string, including empty and
// invalid UTF-8, and never fails.
func Evaluate(password string) Result {
	checks := make([]Check, len(ruleTable))
	score := 0
	for i, d := range ruleTable {
		ok := d.test(password)
		checks[i] = Check{Rule: d.rule, Passed: ok}
		if ok {
			score++
		}
	}

	return Result{
		Checks:         checks,
		Score:          score,
		Label:          LabelFor(score),
		MeetsThreshold: score >= Threshold,
	}
}

// LabelFor maps a score to its strength label. Scores outside 1..MaxScore
// have no label and yield "".
func LabelFor(score int) string {
	if score < 1 || score > MaxScore {
		return ""
	}
	return labels[score-1]
}

// DisplayLabel is Label, or NoLabel when the score is zero.
func (r Result) DisplayLabel() string {
	if r.Label == "" {
		return NoLabel
	}
	return r.Label
}

// Passed reports whether rule was satisfied. Unknown rules report false.
func (r Result) Passed(rule Rule) bool {
	for _, c := range r.Checks {
		if c.Rule == rule {
			return c.Passed
		}
	}
	return false
}

// RulesPassed returns the checks as a map keyed by rule name.
func (r Result) RulesPassed() map[Rule]bool {
	m := make(map[Rule]bool, len(r.Checks))
	for _, c := range r.Checks {
		m[c.Rule] = c.Passed
	}
	return m
}

// Failed returns the rules that did not pass, in evaluation order.
func (r Result) Failed() []Rule {
	var out []Rule
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c.Rule)
		}
	}
	return out
}
