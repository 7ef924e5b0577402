// Command manage runs administrative tasks against the API database.
//
//	manage [-config path] migrate [-status]
//	manage [-config path] createadmin -email a@b.c [-username name] [-password secret]
//	manage [-config path] setrole -email a@b.c -role moderator
//	manage [-config path] deleteuser -email a@b.c
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"imdb/proj/internal/config"
	"imdb/proj/internal/lib/logger"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/storage/postgres"
	"imdb/proj/internal/storage/postgres/models"

	"github.com/fatih/color"
)

var errUsage = errors.New("usage: manage [-config path] <migrate|createadmin|setrole|deleteuser> [flags]")

type command func(ctx context.Context, db *postgres.PostgresDB, log *slog.Logger, args []string) error

var commands = map[string]command{
	"migrate":     migrate,
	"createadmin": createAdmin,
	"setrole":     setRole,
	"deleteuser":  deleteUser,
}

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)
	if err := run(cfg, log, flag.Args()); err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
	ctx := context.Background()
	connectCtx, cancel := context.WithTimeout(ctx, cfg.DB.ConnectTimeout)
	defer cancel()
	db, err := postgres.New(connectCtx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		log.Error("failed to connect to database", sl.Err(err))
		return err
	}
	defer db.Close()
	return cmd(ctx, db, log.With("command", args[0]), args[1:])
}

func migrate(ctx context.Context, db *postgres.PostgresDB, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	status := fs.Bool("status", false, "print migration status instead of applying")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *status {
		return db.MigrationStatus(ctx)
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	color.Green("migrations applied")
	return nil
}

func createAdmin(ctx context.Context, db *postgres.PostgresDB, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	email := fs.String("email", "", "admin email")
	username := fs.String("username", "", "admin username, defaults to the email local part")
	password := fs.String("password", "", "admin password, generated when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	admin, generated, err := newAdmin(*email, *username, *password)
	if err != nil {
		return err
	}
	user, err := models.New(db).User.Insert(ctx, admin)
	if err != nil {
		log.Error("failed to create admin", sl.Err(err))
		return err
	}
	color.Green("admin %s (id=%d) created", user.Username, user.ID)
	if generated != "" {
		color.Yellow("generated password: %s", generated)
	}
	return nil
}

func setRole(ctx context.Context, db *postgres.PostgresDB, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("setrole", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	roleName := fs.String("role", "", "user, moderator or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	role, err := parseRole(*roleName)
	if err != nil {
		return err
	}
	user, err := models.New(db).User.SetRole(ctx, *email, role)
	if err != nil {
		log.Error("failed to set role", sl.Err(err))
		return err
	}
	color.Green("%s is now %s", user.Email, user.Role)
	return nil
}

func deleteUser(ctx context.Context, db *postgres.PostgresDB, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("deleteuser", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	users := models.New(db).User
	user, err := users.GetByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", *email, err)
	}
	if err := users.Delete(ctx, user.ID); err != nil {
		log.Error("failed to delete user", sl.Err(err))
		return err
	}
	color.Green("user %s deleted together with their reviews and comments", user.Email)
	return nil
}
