package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	r := Check("New1!abcd", "New1!abcd")
	assert.True(t, r.Met())
	assert.Empty(t, r.Failed())

	r = Check("new", "other")
	assert.False(t, r.Met())
	assert.Equal(t, []string{"length", "uppercase", "number", "special", "match"}, r.Failed())
}

func TestStrength(t *testing.T) {
	tests := []struct {
		pwd   string
		score int
		level Level
	}{
		{pwd: "", score: 0, level: LevelWeak},
		{pwd: "abc", score: 1, level: LevelWeak},
		{pwd: "abcdefgh", score: 2, level: LevelWeak},
		{pwd: "Abcdefgh", score: 3, level: LevelModerate},
		{pwd: "Abcdefg1", score: 4, level: LevelModerate},
		{pwd: "Abcdef1!", score: 5, level: LevelStrong},
		{pwd: "A1!", score: 3, level: LevelModerate},
	}

	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			score, level := Strength(tt.pwd)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.level, level)
		})
	}

	assert.Equal(t, "setPassword.strength.strong", LevelStrong.Key())
}
