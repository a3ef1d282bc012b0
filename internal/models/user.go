package models

import (
	"encoding/json"
	"time"
)

const (
	DisplayThemeDark  = "Dark"
	DisplayThemeLight = "Light"
)

// User is an entry of the users collection.
type User struct {
	UserID   ID           `json:"userid" validate:"required"`
	Email    string       `json:"email,omitempty" validate:"omitempty,email"`
	Username string       `json:"username,omitempty"`
	Password string       `json:"password"`
	Profile  *UserProfile `json:"profile,omitempty" validate:"omitempty"`
	Extra    Extra        `json:"-"`
}

// UserProfile holds the settings owned part of a user record.
type UserProfile struct {
	Preferences *Preferences `json:"preferences,omitempty" validate:"omitempty"`
	Privacy     *Privacy     `json:"privacy,omitempty" validate:"omitempty"`
	Extra       Extra        `json:"-"`
}

// Preferences are the display preferences stored on a user record.
type Preferences struct {
	DisplayTheme string `json:"displayTheme,omitempty" validate:"omitempty,oneof=Dark Light dark light"`
	Language     string `json:"language,omitempty" validate:"omitempty,oneof=en fr"`
	FontSize     string `json:"fontSize,omitempty" validate:"omitempty,oneof=small medium large"`
	Extra        Extra  `json:"-"`
}

// Privacy are the privacy settings stored on a user record.
type Privacy struct {
	ProfileVisibility *bool      `json:"profileVisibility,omitempty"`
	OnlineStatus      *bool      `json:"onlineStatus,omitempty"`
	LastOnline        *time.Time `json:"lastOnline,omitempty"`
	Extra             Extra      `json:"-"`
}

var (
	userFields        = []string{"userid", "email", "username", "password", "profile"}
	userProfileFields = []string{"preferences", "privacy"}
	preferencesFields = []string{"displayTheme", "language", "fontSize"}
	privacyFields     = []string{"profileVisibility", "onlineStatus", "lastOnline"}
)

// EnsureProfile returns the profile of u, creating empty nested objects as needed.
func (u *User) EnsureProfile() *UserProfile {
	if u.Profile == nil {
		u.Profile = &UserProfile{}
	}
	if u.Profile.Preferences == nil {
		u.Profile.Preferences = &Preferences{}
	}
	if u.Profile.Privacy == nil {
		u.Profile.Privacy = &Privacy{}
	}
	return u.Profile
}

// EnsurePrivacy returns the privacy settings of u, creating only the objects
// on the path to them.
func (u *User) EnsurePrivacy() *Privacy {
	if u.Profile == nil {
		u.Profile = &UserProfile{}
	}
	if u.Profile.Privacy == nil {
		u.Profile.Privacy = &Privacy{}
	}
	return u.Profile.Privacy
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitObject(data, userFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*u = User(p)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return joinObject(plain(u), u.Extra)
}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitObject(data, userProfileFields)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = UserProfile(v)
	return nil
}

func (p UserProfile) MarshalJSON() ([]byte, error) {
	type plain UserProfile
	return joinObject(plain(p), p.Extra)
}

func (p *Preferences) UnmarshalJSON(data []byte) error {
	type plain Preferences
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitObject(data, preferencesFields)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Preferences(v)
	return nil
}

func (p Preferences) MarshalJSON() ([]byte, error) {
	type plain Preferences
	return joinObject(plain(p), p.Extra)
}

func (p *Privacy) UnmarshalJSON(data []byte) error {
	type plain Privacy
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitObject(data, privacyFields)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Privacy(v)
	return nil
}

func (p Privacy) MarshalJSON() ([]byte, error) {
	type plain Privacy
	return joinObject(plain(p), p.Extra)
}
