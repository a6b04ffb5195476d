package validation

import (
	"strings"
	"testing"

	"leconn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePostContent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{"Trimmed", "  hello  ", "hello", nil},
		{"Exactly Max", strings.Repeat("x", models.PostMaxLength), strings.Repeat("x", models.PostMaxLength), nil},
		{"Max Counted In Runes", strings.Repeat("é", models.PostMaxLength), strings.Repeat("é", models.PostMaxLength), nil},
		{"Empty", "", "", ErrEmptyPost},
		{"Whitespace Only", " \n\t ", "", ErrEmptyPost},
		{"Too Long", strings.Repeat("x", models.PostMaxLength+1), "", ErrPostTooLong},
		{"Padding Does Not Count", " " + strings.Repeat("x", models.PostMaxLength) + " ", strings.Repeat("x", models.PostMaxLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePostContent(tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateProfileUpdate(t *testing.T) {
	t.Parallel()
	str := func(s string) *string { return &s }

	assert.NoError(t, ValidateProfileUpdate(models.ProfileUpdate{}))
	assert.NoError(t, ValidateProfileUpdate(models.ProfileUpdate{Bio: str("gopher")}))
	assert.Error(t, ValidateProfileUpdate(models.ProfileUpdate{Bio: str(strings.Repeat("b", MaxBioLength+1))}))
	assert.Error(t, ValidateProfileUpdate(models.ProfileUpdate{Name: str("   ")}))
	assert.Error(t, ValidateProfileUpdate(models.ProfileUpdate{Location: str(strings.Repeat("l", MaxLocationLength+1))}))
}
