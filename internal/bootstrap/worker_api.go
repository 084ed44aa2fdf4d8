package bootstrap

import (
	httpadapter "easgateway/adapter/in/http"
	"easgateway/config"
	"easgateway/infra/middleware"
	"easgateway/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewAPI builds the Fiber app serving the ActiveSync endpoint, wiring the
// teacher's performance-tuned fiber.Config and middleware stack around the
// single EAS route instead of the teacher's original REST surface.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "easgateway-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// ActiveSync bodies can legitimately carry large Sync/ItemOperations
		// payloads (attachments excluded; spec.md §1 scopes those out), so
		// the body limit is generous relative to a typical REST API.
		BodyLimit: 20 * 1024 * 1024,

		Concurrency: 256 * 1024,

		ServerHeader:       "",
		DisableDefaultDate: true,

		DisableKeepalive: false,
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST,OPTIONS",
	}))

	httpadapter.Register(app, httpadapter.Dependencies{
		Service:  deps.Service,
		Devices:  deps.Devices,
		Auth:     deps.Auth,
		Cache:    deps.Responses,
		Protocol: httpadapter.ProtocolInfo{
			Server:   cfg.ProtocolVersion,
			Versions: cfg.ProtocolVersions,
			Commands: cfg.ProtocolCommands,
		},
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app, cleanup, nil
}
