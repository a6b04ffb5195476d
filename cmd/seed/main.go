// Command seed fills the database with generated users, posts and engagement.
package main

import (
	"fmt"
	"log"
	"os"

	"leconn/internal/config"
	"leconn/internal/database"
	"leconn/internal/seed"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "generate leconn demo data",
		Flags: []cli.Flag{
			&cli.PathFlag{Name: "scenario", Usage: "YAML scenario file; built-in defaults when empty"},
			&cli.IntFlag{Name: "users", Value: -1, Usage: "override the scenario's user count"},
			&cli.BoolFlag{Name: "clean", Value: true, Usage: "wipe existing rows first"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	sc := seed.DefaultScenario()
	if path := c.Path("scenario"); path != "" {
		loaded, err := seed.LoadScenario(path)
		if err != nil {
			return err
		}
		sc = loaded
	}
	if n := c.Int("users"); n >= 0 {
		sc.Users = n
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(c.Context, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	s := seed.NewSeeder(db)
	if c.Bool("clean") {
		if err := s.ClearAll(c.Context); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}

	res, err := s.Run(c.Context, sc)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "seeded %d users, %d posts, %d replies, %d likes, %d reposts, %d follows\n",
		res.Users, res.Posts, res.Replies, res.Likes, res.Reposts, res.Follows)
	fmt.Fprintf(c.App.Writer, "every seeded user has the password %q\n", sc.Password)
	return nil
}
