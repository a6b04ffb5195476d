// Command migrate inspects and changes the leconn database schema.
package main

import (
	"fmt"
	"log"
	"os"

	"leconn/internal/config"
	"leconn/internal/database"

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
		Name:  "migrate",
		Usage: "leconn schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending SQL migrations",
				Action: withSchema(func(c *cli.Context, db *gorm.DB, _ *config.Config) error {
					n, err := database.NewMigrator(db, database.Registered()).Up(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", n)
					return nil
				}),
			},
			{
				Name:  "auto",
				Usage: "run GORM AutoMigrate for every managed model",
				Action: withSchema(func(c *cli.Context, db *gorm.DB, cfg *config.Config) error {
					cfg.DBSchemaMode = string(database.SchemaModeAuto)
					if err := database.ApplySchema(c.Context, db, cfg); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "auto-migrate complete")
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "show the schema plan and pending migrations",
				Action: withSchema(func(c *cli.Context, db *gorm.DB, cfg *config.Config) error {
					st, err := database.GetSchemaStatus(c.Context, db, cfg)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "mode=%s env=%s sql=%t auto=%t applied=%v\n",
						st.Mode, st.Env, st.SQL, st.Auto, st.Applied)
					for _, m := range st.Pending {
						fmt.Fprintf(c.App.Writer, "pending %s\n", m.ID())
					}
					return nil
				}),
			},
			{
				Name:      "down",
				Usage:     "revert one applied migration",
				ArgsUsage: "<version>",
				Action: withSchema(func(c *cli.Context, db *gorm.DB, _ *config.Config) error {
					var version int
					if _, err := fmt.Sscan(c.Args().First(), &version); err != nil {
						return cli.Exit("down needs a numeric version", 2)
					}
					if err := database.RollbackMigration(c.Context, db, version); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "reverted %06d\n", version)
					return nil
				}),
			},
		},
	}
}

// withSchema connects without applying the schema so each command controls it.
func withSchema(action func(*cli.Context, *gorm.DB, *config.Config) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := database.ConnectWithOptions(c.Context, cfg, database.ConnectOptions{})
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		return action(c, db, cfg)
	}
}
