package app

import (
	"net/http"

	"timebank-go/internal/config"
	"timebank-go/internal/db"
	applicationdomain "timebank-go/internal/domain/application"
	offerdomain "timebank-go/internal/domain/offer"
	profiledomain "timebank-go/internal/domain/profile"
	settlementdomain "timebank-go/internal/domain/settlement"
	"timebank-go/internal/events"
	"timebank-go/internal/readmodel"
	applicationrepo "timebank-go/internal/repository/postgres/application"
	offerrepo "timebank-go/internal/repository/postgres/offer"
	profilerepo "timebank-go/internal/repository/postgres/profile"
	settlementrepo "timebank-go/internal/repository/postgres/settlement"
	"timebank-go/internal/transport/httpserver"
	"timebank-go/internal/transport/httpserver/feed"
	"timebank-go/internal/transport/httpserver/handler"
	commonhandler "timebank-go/internal/transport/httpserver/handler/common"
	offershandler "timebank-go/internal/transport/httpserver/handler/offers"
	profileshandler "timebank-go/internal/transport/httpserver/handler/profiles"
	settlementhandler "timebank-go/internal/transport/httpserver/handler/settlement"
	"timebank-go/pkg/logger"

	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	hub        *feed.Hub
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	bus := events.NewBus()
	cache := readmodel.NewCache()
	readmodel.NewInvalidator(cache, bus, readmodel.DefaultRules())

	profiles := profiledomain.NewService(profilerepo.NewPostgres(dbConn), bus, cfg.TimeBank.StartingBalance)
	offers := offerdomain.NewService(offerrepo.NewPostgres(dbConn), bus, cache, cfg.TimeBank.ExploreCacheTTL)
	applications := applicationdomain.NewService(applicationrepo.NewPostgres(dbConn), bus)
	settlement := settlementdomain.NewService(settlementrepo.NewPostgres(dbConn), bus, cache, cfg.TimeBank.BalanceCacheTTL)

	handlers := handler.New(
		commonhandler.New(),
		profileshandler.New(profiles, log),
		offershandler.New(offers, applications, log),
		settlementhandler.New(settlement, log),
	)

	var hub *feed.Hub
	if cfg.Feed.Enabled {
		hub = feed.NewHub(bus, log, cfg.Feed.WriteTimeout, cfg.Feed.SendBuffer)
	}

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, hub, profiles, log)
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: srv,
		db:         dbConn,
		hub:        hub,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
