package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/api"
	"github.com/nekogravitycat/event-planner/internal/auth"
	"github.com/nekogravitycat/event-planner/internal/booking"
	"github.com/nekogravitycat/event-planner/internal/catalog"
	"github.com/nekogravitycat/event-planner/internal/file"
	"github.com/nekogravitycat/event-planner/internal/pkg/storage"
	"github.com/nekogravitycat/event-planner/internal/provider"
	"github.com/nekogravitycat/event-planner/internal/user"
	"github.com/nekogravitycat/event-planner/internal/venue"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction  bool
	ProdOrigins   string
	DBPool        *pgxpool.Pool
	Storage       storage.Storage
	Logger        *zap.Logger
	JWTSecret     string
	JWTTTL        time.Duration
	BcryptCost    int
	AuthRateLimit int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// File Module
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, cfg.Storage, log.Named("file"))

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, fileService, log.Named("user"))

	// Catalog Module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	catalogService := catalog.NewService(catalogRepo)

	// Venue Module
	venueRepo := venue.NewPgxRepository(cfg.DBPool)
	venueService := venue.NewService(venueRepo, catalogService, fileService, log.Named("venue"))

	// Provider Module (vendors and carters)
	providerRepo := provider.NewPgxRepository(cfg.DBPool)
	providerService := provider.NewService(providerRepo, fileService, log.Named("provider"))

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, venueService, providerService, log.Named("booking"))

	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          log.Named("http"),
		AuthRateLimit:   cfg.AuthRateLimit,
		UserService:     userService,
		VenueService:    venueService,
		ProviderService: providerService,
		CatalogService:  catalogService,
		BookingService:  bookingService,
		FileService:     fileService,
		JWTManager:      jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
