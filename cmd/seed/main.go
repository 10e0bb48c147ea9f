// Command seed creates the initial SUPERADMIN account. It is safe to run
// repeatedly: an existing account with the same email is left alone.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/service"
)

func main() {
	log.SetOutput(os.Stdout)
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	if cfg.Seed.Email == "" || cfg.Seed.Password == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	users := service.NewUsers(repository.NewUserRepo(db), repository.NewSessionRepo(db), cfg.BcryptCost)
	u, err := users.CreateWithRole(ctx, service.RegisterInput{
		Name:     "Admin",
		Forname:  "Super",
		Email:    cfg.Seed.Email,
		Password: cfg.Seed.Password,
	}, model.RoleSuperAdmin)
	if errors.Is(err, service.ErrEmailTaken) {
		log.WithField("email", cfg.Seed.Email).Info("superadmin already exists")
		return
	}
	if err != nil {
		log.WithError(err).Fatal("create superadmin")
	}
	log.WithFields(log.Fields{"id": u.ID, "email": u.Email}).Info("superadmin created")
}
