package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/auth"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/config"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/repository"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var (
		op          string
		n           int
		force       bool
		emailDomain string
		password    string
	)

	flag.StringVar(&op, "op", "", "operation to run (init-admin, categories, accounts, suggestions, cleanup-entities)")
	flag.IntVar(&n, "n", 20, "number of records for accounts and suggestions")
	flag.BoolVar(&force, "force", false, "re-seed categories even if some exist")
	flag.StringVar(&emailDomain, "domain", "company.com", "email domain for random accounts")
	flag.StringVar(&password, "password", "Passw0rd!", "shared password for random accounts")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	hash := func(p string) (string, error) {
		return auth.HashPassword(p, cfg.Security.BcryptCost)
	}

	ctx = context.Background()
	switch op {
	case "":
		slog.Error("no operation given, see -h")
	case "init-admin":
		admin, created, err := seed.InitAdmin(ctx, repo, hash, seed.AdminParams{
			Email:     cfg.DefaultAdmin.Email,
			Password:  cfg.DefaultAdmin.Password,
			Role:      domain.Role(cfg.DefaultAdmin.Role),
			FirstName: cfg.DefaultAdmin.FirstName,
			LastName:  cfg.DefaultAdmin.LastName,
		})
		if err != nil {
			slog.Error("failed to create default admin", slog.String("error", err.Error()))
			return
		}
		if created {
			slog.Info("default admin created", slog.Int64("id", admin.ID), slog.String("email", admin.Email))
		} else {
			slog.Info("default admin already exists", slog.String("email", cfg.DefaultAdmin.Email))
		}
	case "categories":
		if _, err := seed.SeedCategories(ctx, repo, force); err != nil {
			slog.Error("failed to seed categories", slog.String("error", err.Error()))
		}
	case "accounts":
		if n <= 0 {
			slog.Error("n must be positive")
			return
		}
		created, err := seed.RandomAccounts(ctx, repo, hash, n, emailDomain, password)
		if err != nil {
			slog.Error("failed to seed accounts", slog.String("error", err.Error()))
			return
		}
		slog.Info("accounts inserted", slog.Int("count", created))
	case "suggestions":
		if n <= 0 {
			slog.Error("n must be positive")
			return
		}
		categories, err := repo.ListActiveCategories(ctx)
		if err != nil {
			slog.Error("failed to load categories", slog.String("error", err.Error()))
			return
		}
		created, err := seed.RandomSuggestions(ctx, repo, categories, n, time.Now())
		if err != nil {
			slog.Error("failed to seed suggestions", slog.String("error", err.Error()))
			return
		}
		slog.Info("suggestions inserted", slog.Int("count", created))
	case "cleanup-entities":
		updated, err := seed.CleanupEntities(ctx, repo)
		if err != nil {
			slog.Error("entity cleanup failed", slog.Int("updated", updated), slog.String("error", err.Error()))
			return
		}
		slog.Info("entity cleanup finished", slog.Int("updated", updated))
	default:
		slog.Error("unknown operation", slog.String("op", op))
	}
}
