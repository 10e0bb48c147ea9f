package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/jobs"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer db.Close()
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("migrate")
		}
	}

	rdb := config.NewRedisClient(cfg.Redis) // nil when Redis is down
	if rdb != nil {
		defer rdb.Close()
	}

	// repositories
	rooms := repository.NewRoomRepo(db)
	movies := repository.NewMovieRepo(db)
	sessions := repository.NewSessionRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	transactions := repository.NewTransactionRepo(db)
	supertickets := repository.NewSuperticketRepo(db)
	tickets := repository.NewTicketRepo(db)
	stats := repository.NewStatsRepo(db)

	// events are optional; a nil publisher skips notification
	var events service.EventPublisher
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.RabbitURL)
		defer pub.Close()
		events = pub
		if cfg.Events.Consume {
			consumer, err := queue.NewConsumer(cfg.Events.RabbitURL, cfg.Events.AuditLogDir)
			if err != nil {
				log.WithError(err).Fatal("audit consumer")
			}
			go consumer.Run(ctx)
		}
	}

	// services
	catalog := service.NewCatalog(db, rooms, movies)
	scheduler := service.NewScheduler(db, rooms, movies, sessions)
	accounts := service.NewUsers(users, sessions, cfg.BcryptCost)
	ledger := service.NewLedger(db, users, transactions, supertickets, service.SuperticketOffer{
		Price: cfg.Superticket.Price,
		Uses:  cfg.Superticket.Uses,
	})
	settlement := service.NewSettlement(db, rooms, sessions, tickets, supertickets, users, ledger, events)

	cron := jobs.NewScheduler(tokens)
	if err := cron.Start(ctx, cfg.Jobs.TokenPurgeSchedule); err != nil {
		log.WithError(err).Fatal("cron")
	}
	defer cron.Stop()

	e := router.New(cfg, router.Handlers{
		Health:       handler.NewHealthHandler(db, rdb),
		Auth:         handler.NewAuthHandler(cfg, accounts, tokens),
		Catalog:      handler.NewCatalogHandler(catalog),
		Sessions:     handler.NewSessionHandler(scheduler),
		Purchases:    handler.NewPurchaseHandler(settlement, ledger),
		Users:        handler.NewUserHandler(accounts),
		Transactions: handler.NewTransactionHandler(ledger),
		Statistics:   handler.NewStatisticsHandler(stats),
	}, rdb)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env, "driver": db.Driver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
	log.SetOutput(os.Stdout)
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
