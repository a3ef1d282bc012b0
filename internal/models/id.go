package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a user identifier. Stored records use either JSON strings or numbers,
// identifiers are always compared by their string form and re-encoded in the
// form they were read in.
type ID struct {
	value   string
	numeric bool
}

// NewID returns a string identifier.
func NewID(value string) ID {
	return ID{value: value}
}

func (id ID) String() string {
	return id.value
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Matches reports whether id equals other by string comparison.
func (id ID) Matches(other string) bool {
	return id.value != "" && id.value == other
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or a number: %w", err)
	}
	*id = ID{value: n.String(), numeric: n != ""}
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}
