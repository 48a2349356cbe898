package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/astralhq/chatgate/pkg/config"
	handlers "github.com/astralhq/chatgate/pkg/handlers/http"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
	ChatPath    = "/v1/chat"
)

type Server struct {
	config *config.Config
	logger *logrus.Logger
	router *fiber.App
}

type DI struct {
	Config      *config.Config
	Logger      *logrus.Logger
	ChatHandler handlers.Handler
}

func New(di DI) *Server {
	router := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             di.Config.Server.BodyLimit,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
		ErrorHandler:          newErrorHandler(di.Logger),
	})
	router.Server().NoDefaultServerHeader = true

	router.Use(recover.New())

	router.Get(HealthPath, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	router.Get(MetricsPath, func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Registering POST only makes fiber answer 405 for every other method
	// on the path.
	router.Post(ChatPath, di.ChatHandler.Handle)

	return &Server{
		config: di.Config,
		logger: di.Logger,
		router: router,
	}
}

// newErrorHandler keeps the envelope uniform even for errors that escape
// the handlers, recovered panics included. Method errors (405) keep
// fiber's plain body since they never reach the pipeline.
func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code != fiber.StatusInternalServerError {
			return c.Status(fiberErr.Code).SendString(fiberErr.Message)
		}

		logger.WithError(err).WithField("path", c.Path()).Error("unhandled server error")
		return c.Status(fiber.StatusInternalServerError).JSON(types.ChatResponse{
			Content:    "Something went wrong on my end. Please try again in a moment.",
			Provider:   types.ProviderError,
			Confidence: 0.3,
			Warnings:   []string{types.WarningFatal},
		})
	}
}

func (s *Server) Run() error {
	s.logger.WithField("port", s.config.Server.Port).Info("starting chatgate server")
	return s.router.Listen(fmt.Sprintf(":%d", s.config.Server.Port))
}

func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}

// Router exposes the fiber app for tests.
func (s *Server) Router() *fiber.App {
	return s.router
}
