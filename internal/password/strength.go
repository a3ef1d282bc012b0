// Package password implements the password change workflow.
package password

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// SpecialCharacters are the characters that satisfy the special character rule.
const SpecialCharacters = "!@#$%^&*"

// MinLength is the minimum number of characters of a new password.
const MinLength = 8

// Requirements reports which rules a new password satisfies.
type Requirements struct {
	Length    bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Special   bool
	Match     bool
}

// Check evaluates the rules for a new password and its confirmation.
func Check(newPassword, confirm string) Requirements {
	return Requirements{
		Length:    utf8.RuneCountInString(newPassword) >= MinLength,
		Uppercase: strings.ContainsFunc(newPassword, isUpper),
		Lowercase: strings.ContainsFunc(newPassword, isLower),
		Number:    strings.ContainsFunc(newPassword, isDigit),
		Special:   strings.ContainsAny(newPassword, SpecialCharacters),
		Match:     newPassword == confirm,
	}
}

// Met reports whether every rule is satisfied.
func (r Requirements) Met() bool {
	return len(r.Failed()) == 0
}

// Failed returns the names of the rules that are not satisfied. The names
// match the setPassword.requirements translation keys.
func (r Requirements) Failed() []string {
	rules := []lo.Tuple2[string, bool]{
		lo.T2("length", r.Length),
		lo.T2("uppercase", r.Uppercase),
		lo.T2("lowercase", r.Lowercase),
		lo.T2("number", r.Number),
		lo.T2("special", r.Special),
		lo.T2("match", r.Match),
	}
	return lo.FilterMap(rules, func(rule lo.Tuple2[string, bool], _ int) (string, bool) {
		return rule.A, !rule.B
	})
}

// Level is the strength label of a password.
type Level string

const (
	LevelWeak     Level = "weak"
	LevelModerate Level = "moderate"
	LevelStrong   Level = "strong"
)

// Key returns the translation key of the level.
func (l Level) Key() string {
	return "setPassword.strength." + string(l)
}

// Strength scores a password from 0 to 5, one point per satisfied character rule.
func Strength(pwd string) (int, Level) {
	r := Check(pwd, pwd)
	score := lo.CountBy([]bool{r.Length, r.Uppercase, r.Lowercase, r.Number, r.Special}, func(ok bool) bool {
		return ok
	})
	switch {
	case score == 5:
		return score, LevelStrong
	case score >= 3:
		return score, LevelModerate
	default:
		return score, LevelWeak
	}
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
