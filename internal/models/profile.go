package models

import (
	"encoding/json"
	"time"
)

// Profile is the user authored profile, stored in the userProfiles mapping keyed by email.
type Profile struct {
	Username       string     `json:"username"`
	Bio            string     `json:"bio"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Location       string     `json:"location"`
	Interests      []string   `json:"interests" validate:"dive,interest"`
	Skills         []string   `json:"skills" validate:"dive,skill"`
	ProfilePicture string     `json:"profilePicture"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
	Extra          Extra      `json:"-"`
}

var profileFields = []string{
	"username", "bio", "email", "location", "interests", "skills", "profilePicture", "lastUpdated",
}

// Tags returns the tag set of the given kind.
func (p *Profile) Tags(kind TagKind) []string {
	if kind == TagSkills {
		return p.Skills
	}
	return p.Interests
}

// SetTags replaces the tag set of the given kind.
func (p *Profile) SetTags(kind TagKind, tags []string) {
	if kind == TagSkills {
		p.Skills = tags
		return
	}
	p.Interests = tags
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	c := p
	c.Interests = append([]string{}, p.Interests...)
	c.Skills = append([]string{}, p.Skills...)
	if p.LastUpdated != nil {
		t := *p.LastUpdated
		c.LastUpdated = &t
	}
	if p.Extra != nil {
		c.Extra = make(Extra, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitObject(data, profileFields)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Profile(v)
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	type plain Profile
	return joinObject(plain(p), p.Extra)
}
