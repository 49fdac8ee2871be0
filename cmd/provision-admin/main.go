// Утилита оператора: создаёт администратора или меняет флаг администратора у существующего пользователя.
//
//	ADMIN_PASSWORD=... provision-admin -username root -email root@example.com -full-name "Root"
//	provision-admin -username alice -promote
//	provision-admin -username alice -demote
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/config"
	"github.com/magabrotheeeer/license-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/migrations"
	"github.com/magabrotheeeer/license-portal/internal/services/account"
	"github.com/magabrotheeeer/license-portal/internal/storage/repository"
)

func main() {
	username := flag.String("username", "", "имя пользователя")
	email := flag.String("email", "", "e-mail нового администратора")
	fullName := flag.String("full-name", "Administrator", "полное имя нового администратора")
	promote := flag.Bool("promote", false, "выдать права существующему пользователю")
	demote := flag.Bool("demote", false, "снять права с существующего пользователя")
	flag.Parse()

	if *username == "" || (*promote && *demote) {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad()
	logger := sl.New(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, logger, *username, *email, *fullName, *promote, *demote); err != nil {
		logger.Error("provision-admin failed", sl.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, username, email, fullName string, promote, demote bool) error {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Run(db.DB.DB, cfg.MigrationsPath); err != nil {
		return err
	}

	svc := account.New(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), nil, nil, logger)

	if promote || demote {
		user, err := svc.SetAdmin(ctx, username, promote)
		if err != nil {
			return err
		}
		fmt.Printf("user %s (id %d): admin=%t\n", user.Username, user.ID, user.IsAdmin)
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return fmt.Errorf("new admin needs -email and ADMIN_PASSWORD")
	}
	user, err := svc.ProvisionAdmin(ctx, username, email, password, fullName)
	if err != nil {
		return err
	}
	fmt.Printf("admin %s created with id %d\n", user.Username, user.ID)
	return nil
}
