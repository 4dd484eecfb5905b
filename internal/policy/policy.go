// Package policy scores candidate passwords against a fixed rule set.
// It is consulted at registration only; login verifies the stored hash and
// never re-validates policy.
package policy

import (
	"strings"
	"unicode"
)

// Rule names reported in Result.Failed. The names are part of the facade's
// error contract with the presentation layer.
const (
	RuleLength       = "length"
	RuleUppercase    = "uppercase"
	RuleLowercase    = "lowercase"
	RuleNumbers      = "numbers"
	RuleSpecialChars = "specialChars"
)

// symbolSet is the fixed set of accepted punctuation/symbol characters.
const symbolSet = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

// Rules configures which checks are enforced. Disabled checks still count
// as satisfied for scoring purposes.
type Rules struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSpecial   bool
}

// DefaultRules enables every check with a minimum length of 8.
func DefaultRules() Rules {
	return Rules{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   true,
	}
}

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool
	Failed []string
	Score  int
	Label  string
}

var labels = [6]string{"Very weak", "Weak", "Fair", "Good", "Strong", "Very strong"}

// StrengthLabel maps a 0..5 score onto its fixed label scale.
func StrengthLabel(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return labels[score]
}

// Validate checks password against the rules. Score counts satisfied checks
// (0–5) regardless of whether the check is enforced.
func Validate(password string, rules Rules) Result {
	checks := map[string]bool{
		RuleLength:       len(password) >= rules.MinLength,
		RuleUppercase:    strings.ContainsFunc(password, unicode.IsUpper),
		RuleLowercase:    strings.ContainsFunc(password, unicode.IsLower),
		RuleNumbers:      strings.ContainsFunc(password, unicode.IsDigit),
		RuleSpecialChars: strings.ContainsAny(password, symbolSet),
	}

	enforced := map[string]bool{
		RuleLength:       true,
		RuleUppercase:    rules.RequireUppercase,
		RuleLowercase:    rules.RequireLowercase,
		RuleNumbers:      rules.RequireNumbers,
		RuleSpecialChars: rules.RequireSpecial,
	}

	res := Result{}
	// Deterministic reporting order.
	for _, name := range []string{RuleLength, RuleUppercase, RuleLowercase, RuleNumbers, RuleSpecialChars} {
		if checks[name] || !enforced[name] {
			res.Score++
		}
		if enforced[name] && !checks[name] {
			res.Failed = append(res.Failed, name)
		}
	}
	res.Valid = len(res.Failed) == 0
	res.Label = StrengthLabel(res.Score)
	return res
}
