package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"leconn/internal/models"
)

var (
	ErrEmptyPost   = errors.New("Post cannot be empty")
	ErrPostTooLong = fmt.Errorf("Post is too long (max %d characters)", models.PostMaxLength)
)

// Profile field limits.
const (
	MaxNameLength     = 50
	MaxBioLength      = 160
	MaxWebsiteLength  = 100
	MaxLocationLength = 30
	MaxImageURLLength = 2048
)

// NormalizePostContent trims surrounding whitespace and enforces the
// 1..PostMaxLength character window. Length is counted in runes.
func NormalizePostContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyPost
	}
	if utf8.RuneCountInString(trimmed) > models.PostMaxLength {
		return "", ErrPostTooLong
	}
	return trimmed, nil
}

// ValidateProfileUpdate checks the fields present in update.
func ValidateProfileUpdate(update models.ProfileUpdate) error {
	checks := []struct {
		field string
		value *string
		max   int
	}{
		{"name", update.Name, MaxNameLength},
		{"bio", update.Bio, MaxBioLength},
		{"website", update.Website, MaxWebsiteLength},
		{"location", update.Location, MaxLocationLength},
		{"image", update.Image, MaxImageURLLength},
		{"banner", update.Banner, MaxImageURLLength},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(*c.value)) > c.max {
			return fmt.Errorf("%s must not exceed %d characters", c.field, c.max)
		}
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return errors.New("name cannot be empty")
	}
	return nil
}
