package models

import "github.com/samber/lo"

// TagKind is a tag set on a profile record.
type TagKind string

const (
	TagInterests TagKind = "interests"
	TagSkills    TagKind = "skills"
)

var (
	// InterestOptions are the interests a profile can select.
	InterestOptions = []string{
		"technology", "music", "sports", "travel", "reading",
		"art", "cooking", "gaming", "photography", "writing",
	}
	// SkillOptions are the skills a profile can select.
	SkillOptions = []string{
		"javascript", "react", "python", "css", "html",
		"nodejs", "typescript", "sql", "java", "csharp",
	}
)

// Options returns the catalog for kind, or nil for an unknown kind.
func (k TagKind) Options() []string {
	switch k {
	case TagInterests:
		return InterestOptions
	case TagSkills:
		return SkillOptions
	default:
		return nil
	}
}

// Valid reports whether k is a known tag kind.
func (k TagKind) Valid() bool {
	return k == TagInterests || k == TagSkills
}

// Allows reports whether tag is part of the catalog for k.
func (k TagKind) Allows(tag string) bool {
	return lo.Contains(k.Options(), tag)
}
