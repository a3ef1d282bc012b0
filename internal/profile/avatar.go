package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/jon4hz/agora/internal/config"
	"github.com/jon4hz/agora/internal/models"
)

// PictureURL returns the picture to display for p: the uploaded picture, a
// Gravatar for the profile email when enabled, or the placeholder.
func PictureURL(p models.Profile, gravatar *config.GravatarConfig) string {
	if p.ProfilePicture != "" && p.ProfilePicture != PlaceholderPicture {
		return p.ProfilePicture
	}
	if u := GravatarURL(p.Email, gravatar); u != "" {
		return u
	}
	return PlaceholderPicture
}

// GravatarURL builds the Gravatar URL for email.
// Returns an empty string if Gravatar is disabled or email is empty.
func GravatarURL(email string, cfg *config.GravatarConfig) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if cfg == nil || !cfg.Enabled || email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := url.URL{
		Scheme: "https",
		Host:   "www.gravatar.com",
		Path:   "/avatar/" + hex.EncodeToString(hash[:]),
	}

	q := url.Values{}
	if cfg.DefaultImage != "" {
		q.Set("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		q.Set("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		q.Set("s", strconv.Itoa(cfg.Size))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
