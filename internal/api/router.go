package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/auth"
	"github.com/nekogravitycat/event-planner/internal/booking"
	bookingHttp "github.com/nekogravitycat/event-planner/internal/booking/http"
	"github.com/nekogravitycat/event-planner/internal/catalog"
	catalogHttp "github.com/nekogravitycat/event-planner/internal/catalog/http"
	"github.com/nekogravitycat/event-planner/internal/file"
	fileHttp "github.com/nekogravitycat/event-planner/internal/file/http"
	"github.com/nekogravitycat/event-planner/internal/pkg/request"
	"github.com/nekogravitycat/event-planner/internal/provider"
	providerHttp "github.com/nekogravitycat/event-planner/internal/provider/http"
	"github.com/nekogravitycat/event-planner/internal/user"
	userHttp "github.com/nekogravitycat/event-planner/internal/user/http"
	"github.com/nekogravitycat/event-planner/internal/venue"
	venueHttp "github.com/nekogravitycat/event-planner/internal/venue/http"
)

// maxUploadBody caps request bodies: a handful of images plus the JSON part.
const maxUploadBody = 8 * file.MaxImageBytes

type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger
	// AuthRateLimit is the per-IP limit on /login and /signup, per minute.
	AuthRateLimit int

	UserService     user.Service
	VenueService    venue.Service
	ProviderService provider.Service
	CatalogService  catalog.Service
	BookingService  booking.Service
	FileService     file.Service
	JWTManager      *auth.JWTManager
}

// NewRouter assembles middleware (logging, recovery, CORS) and registers
// the routes of every module at the root path.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", bookingHttp.IdempotencyHeader}
	r.Use(cors.New(corsConfig))

	r.Use(request.LimitBody(maxUploadBody))
	r.Use(RateLimit(cfg.AuthRateLimit, log, "/login", "/signup"))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.VenueService, cfg.BookingService, cfg.JWTManager)
	venueHandler := venueHttp.NewHandler(cfg.VenueService)
	vendorHandler := providerHttp.NewHandler(cfg.ProviderService, provider.KindVendor)
	carterHandler := providerHttp.NewHandler(cfg.ProviderService, provider.KindCarter)
	catalogHandler := catalogHttp.NewHandler(cfg.CatalogService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	fileHandler := fileHttp.NewHandler(cfg.FileService)

	userHttp.RegisterRoutes(r, userHandler, authMiddleware)
	venueHttp.RegisterRoutes(r, venueHandler, authMiddleware)
	providerHttp.RegisterRoutes(r, vendorHandler, carterHandler, authMiddleware)
	catalogHttp.RegisterRoutes(r, catalogHandler, authMiddleware)
	bookingHttp.RegisterRoutes(r, bookingHandler, authMiddleware)
	fileHttp.RegisterRoutes(r, fileHandler)

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
