// Command admin provides maintenance utilities for leconn.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"leconn/internal/config"
	"leconn/internal/database"
	"leconn/internal/models"
	"leconn/internal/repository"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "admin",
		Usage: "leconn maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "reconcile-counts",
				Usage: "recompute like, repost and reply counters from rows",
				Action: withDB(func(c *cli.Context, db *gorm.DB) error {
					fixed, err := repository.NewPostRepository(db).RecountCounters(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "reconciled %d posts\n", fixed)
					return nil
				}),
			},
			{
				Name:  "stats",
				Usage: "print table sizes and counter drift as JSON",
				Action: withDB(func(c *cli.Context, db *gorm.DB) error {
					stats, err := repository.CollectStats(c.Context, db)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(stats)
				}),
			},
			{
				Name:      "promote",
				Usage:     "grant admin to a user",
				ArgsUsage: "<user_id>",
				Action: withDB(func(c *cli.Context, db *gorm.DB) error {
					return setAdmin(c, db, true)
				}),
			},
			{
				Name:      "demote",
				Usage:     "revoke admin from a user",
				ArgsUsage: "<user_id>",
				Action: withDB(func(c *cli.Context, db *gorm.DB) error {
					return setAdmin(c, db, false)
				}),
			},
		},
	}
}

// withDB loads configuration and connects before running action.
func withDB(action func(*cli.Context, *gorm.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := database.Connect(c.Context, cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		return action(c, db)
	}
}

func setAdmin(c *cli.Context, db *gorm.DB, admin bool) error {
	if c.NArg() < 1 {
		return cli.ShowSubcommandHelp(c)
	}
	userID := c.Args().First()

	var user models.User
	if err := db.WithContext(c.Context).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user with ID %s not found", userID)
		}
		return fmt.Errorf("database error: %w", err)
	}
	if user.IsAdmin == admin {
		fmt.Fprintf(c.App.Writer, "user %s (ID: %d) unchanged\n", user.Username, user.ID)
		return nil
	}
	if err := db.WithContext(c.Context).Model(&user).Update("is_admin", admin).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "user %s (ID: %d) is_admin=%t\n", user.Username, user.ID, admin)
	return nil
}
