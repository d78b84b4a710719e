// Package api exposes the chat over HTTP: authentication, room management,
// message posting (including stock commands), history, search, and the
// websocket push endpoint.
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"finchat/auth"
	"finchat/realtime"
)

// NewApp assembles the fiber application with all routes registered.
func NewApp(
	handlers *Handlers,
	ws *realtime.Handler,
	tokens *auth.TokenManager,
	log *slog.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)

	protected := api.Group("", auth.Middleware(tokens))
	protected.Get("/rooms", handlers.ListRooms)
	protected.Post("/rooms", handlers.CreateRoom)
	protected.Post("/chat/send", handlers.SendMessage)
	protected.Get("/chat/history/:roomID", handlers.GetHistory)
	protected.Get("/chat/search/:roomID", handlers.SearchMessages)
	protected.Get("/stats", handlers.Stats)

	// The websocket endpoint authenticates via query parameter, not via
	// the bearer middleware.
	app.Get("/ws", ws.Upgrade(), ws.Serve())

	return app
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		} else {
			log.Error("Unhandled request error", "path", c.Path(), "err", err)
		}

		return c.Status(code).JSON(ErrorResponse{
			Error:   "server_error",
			Message: message,
		})
	}
}
