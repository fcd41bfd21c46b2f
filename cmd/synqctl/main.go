// synqctl runs operational tasks against the Synq database: schema
// migrations, system role bootstrap and service API keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"synq/backend/internal/config"
	"synq/backend/internal/db"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/logging"
	"synq/backend/internal/services"
)

const usage = `usage: synqctl <command> [flags]

commands:
  migrate          apply pending SQL migrations (--status to only report)
  ensure-roles     create the ADMIN, MANAGER and USER system roles if missing
  create-api-key   issue a service API key (--label)
  revoke-api-key   disable a service API key (--key)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Print(usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.AppEnv); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, rest := args[0], args[1:]
	switch command {
	case "migrate":
		return migrate(ctx, cfg, rest)
	case "ensure-roles":
		return ensureRoles(ctx, cfg, rest)
	case "create-api-key":
		return createAPIKey(ctx, cfg, rest)
	case "revoke-api-key":
		return revokeAPIKey(ctx, cfg, rest)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseFlags(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, args []string) error {
	var statusOnly bool
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.BoolVar(&statusOnly, "status", false, "print migration status instead of applying")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	conn, err := db.InitPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	if statusOnly {
		return db.MigrationStatus(ctx, conn.DB)
	}
	if err := db.Migrate(ctx, conn.DB); err != nil {
		return err
	}
	logging.Info("Migrations applied")
	return nil
}

func ensureRoles(ctx context.Context, cfg *config.Config, args []string) error {
	flagSet := pflag.NewFlagSet("ensure-roles", pflag.ContinueOnError)
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}

	gormDB, err := db.InitPostgresORM(cfg.DB)
	if err != nil {
		return err
	}

	created, err := services.NewRoleService(repositories.NewStore(gormDB)).EnsureDefaultRoles(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("system roles ready (%d created)\n", created)
	return nil
}

func createAPIKey(ctx context.Context, cfg *config.Config, args []string) error {
	var label string
	flagSet := pflag.NewFlagSet("create-api-key", pflag.ContinueOnError)
	flagSet.StringVarP(&label, "label", "l", "", "who the key is issued to")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if label == "" {
		return errors.New("--label is required")
	}

	conn, err := db.InitPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	key, err := repositories.NewApiKeysRepo(conn).Create(ctx, label)
	if err != nil {
		return err
	}
	fmt.Println("New API Key:", key.ID)
	return nil
}

func revokeAPIKey(ctx context.Context, cfg *config.Config, args []string) error {
	var key string
	flagSet := pflag.NewFlagSet("revoke-api-key", pflag.ContinueOnError)
	flagSet.StringVarP(&key, "key", "k", "", "the key to disable")
	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if key == "" {
		return errors.New("--key is required")
	}

	conn, err := db.InitPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := repositories.NewApiKeysRepo(conn).Revoke(ctx, key); err != nil {
		return err
	}
	fmt.Println("API key revoked")
	return nil
}
