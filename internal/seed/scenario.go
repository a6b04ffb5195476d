// Package seed creates demo data for development and tests. Everything goes
// through the repositories so counters stay consistent with rows.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "Password123!"

// Account is a fixed, named user created before the random ones.
type Account struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Bio      string `yaml:"bio"`
	IsAdmin  bool   `yaml:"is_admin"`
}

// Scenario describes how much data to generate.
type Scenario struct {
	// RandomSeed makes runs reproducible. Zero picks a random seed.
	RandomSeed     int64     `yaml:"random_seed"`
	Password       string    `yaml:"password"`
	Users          int       `yaml:"users"`
	PostsPerUser   int       `yaml:"posts_per_user"`
	ReplyRatio     float64   `yaml:"reply_ratio"`
	MaxLikes       int       `yaml:"max_likes_per_post"`
	RepostRatio    float64   `yaml:"repost_ratio"`
	FollowsPerUser int       `yaml:"follows_per_user"`
	Accounts       []Account `yaml:"accounts"`
}

// DefaultScenario is a small populated network.
func DefaultScenario() Scenario {
	return Scenario{
		Password:       DefaultPassword,
		Users:          20,
		PostsPerUser:   5,
		ReplyRatio:     0.3,
		MaxLikes:       10,
		RepostRatio:    0.1,
		FollowsPerUser: 5,
		Accounts: []Account{
			{Username: "admin", Name: "Admin", Email: "admin@example.com", IsAdmin: true},
		},
	}
}

// LoadScenario reads a YAML scenario. Fields left out keep their defaults.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scenario: %w", err)
	}
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return sc, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Validate rejects negative sizes and ratios outside 0..1.
func (s Scenario) Validate() error {
	if s.Users < 0 || s.PostsPerUser < 0 || s.MaxLikes < 0 || s.FollowsPerUser < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	if s.ReplyRatio < 0 || s.ReplyRatio > 1 || s.RepostRatio < 0 || s.RepostRatio > 1 {
		return fmt.Errorf("ratios must be between 0 and 1")
	}
	for _, a := range s.Accounts {
		if a.Username == "" || a.Email == "" {
			return fmt.Errorf("account needs username and email")
		}
	}
	return nil
}
