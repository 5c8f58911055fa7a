package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"provisioning-portal/internal/catalog"
	"provisioning-portal/internal/logger"
	"provisioning-portal/internal/models"
	"provisioning-portal/internal/portal"
)

// NewApp builds the fiber app serving the operator page and the JSON API.
func NewApp(p *portal.Portal, src catalog.Source) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "provisioning-portal",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(RequestLogger())

	// Define page endpoints
	app.Get("/health", HealthHandler)
	app.Get("/", IndexHandler(p, src))
	app.Post("/systems/:name/toggle", ToggleSystemHandler(p, src))
	app.Post("/version", SetVersionHandler(p, src))
	app.Post("/provision", FormActionHandler(p, portal.OpProvision))
	app.Post("/deprovision", FormActionHandler(p, portal.OpDeprovision))

	// Define API endpoints
	v := app.Group("/api")
	v.Get("/catalog", CatalogHandler(src))
	v.Get("/state", StateHandler(p))
	v.Post("/selection", SelectionHandler(p, src))
	v.Post("/provision", APIActionHandler(p, portal.OpProvision))
	v.Post("/deprovision", APIActionHandler(p, portal.OpDeprovision))

	return app
}

// RequestLogger logs every request once it has been handled.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		logger.RequestLog(c.Method(), c.Path(), c.IP(), status, time.Since(start))
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(models.ActionResponse{
		Success: false,
		Error:   err.Error(),
	})
}
