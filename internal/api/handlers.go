package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"provisioning-portal/internal/catalog"
	"provisioning-portal/internal/logger"
	"provisioning-portal/internal/models"
	"provisioning-portal/internal/portal"
	"provisioning-portal/internal/web"
)

// HealthHandler handles the health check request
func HealthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "provisioning-portal",
	})
}

// IndexHandler renders the operator page
func IndexHandler(p *portal.Portal, src catalog.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		systems, err := src.Systems(ctx)
		if err != nil {
			logger.Error("Failed to list systems: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load systems")
		}
		versions, err := src.Versions(ctx)
		if err != nil {
			logger.Error("Failed to list versions: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load versions")
		}

		c.Type("html", "utf-8")
		return web.Page(web.PageData{
			Systems:  systems,
			Versions: versions,
			Snapshot: p.Snapshot(),
		}).Render(ctx, c.Response().BodyWriter())
	}
}

// ToggleSystemHandler handles a system checkbox submission
func ToggleSystemHandler(p *portal.Portal, src catalog.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil || name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "System name is required")
		}
		// Params are only valid for the lifetime of the handler.
		name = utils.CopyString(name)

		if err := requireSystems(c.UserContext(), src, []string{name}); err != nil {
			return err
		}
		p.ToggleSystem(name)
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// SetVersionHandler handles the version dropdown submission
func SetVersionHandler(p *portal.Portal, src catalog.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := utils.CopyString(c.FormValue("version"))
		if err := requireVersion(c.UserContext(), src, version); err != nil {
			return err
		}
		p.SetVersion(version)
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// FormActionHandler handles the provision and deprovision buttons. The
// outcome is shown on the page the browser is redirected to.
func FormActionHandler(p *portal.Portal, op portal.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := runOperation(c.UserContext(), p, op); err != nil {
			logger.Warn("%s request finished with error: %v", op, err)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// CatalogHandler returns the selectable systems and versions
func CatalogHandler(src catalog.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		systems, err := src.Systems(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load systems: "+err.Error())
		}
		versions, err := src.Versions(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load versions: "+err.Error())
		}
		return c.JSON(models.CatalogResponse{Systems: systems, Versions: versions})
	}
}

// StateHandler returns the selection and operation status
func StateHandler(p *portal.Portal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(stateResponse(p.Snapshot()))
	}
}

// SelectionHandler replaces the selection from a JSON payload
func SelectionHandler(p *portal.Portal, src catalog.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		request := new(models.SelectionRequest)
		if err := c.BodyParser(request); err != nil {
			logger.Warn("Invalid selection payload: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(models.ActionResponse{
				Success: false,
				Error:   "Invalid request format: " + err.Error(),
			})
		}

		ctx := c.UserContext()
		if err := requireSystems(ctx, src, request.Systems); err != nil {
			return err
		}
		if err := requireVersion(ctx, src, request.Version); err != nil {
			return err
		}

		p.SetSelection(request.Systems, request.Version)
		return c.JSON(stateResponse(p.Snapshot()))
	}
}

// APIActionHandler handles provision and deprovision requests from API clients
func APIActionHandler(p *portal.Portal, op portal.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := runOperation(c.UserContext(), p, op)

		var perr *portal.Error
		switch {
		case err == nil:
			return c.JSON(models.ActionResponse{
				Success:     true,
				Message:     portal.MsgSucceeded,
				OperationID: id,
			})
		case errors.Is(err, portal.ErrOperationInFlight):
			return c.Status(fiber.StatusConflict).JSON(models.ActionResponse{
				Success: false,
				Error:   err.Error(),
			})
		case errors.Is(err, portal.ErrValidation) && errors.As(err, &perr):
			return c.Status(fiber.StatusBadRequest).JSON(models.ActionResponse{
				Success: false,
				Error:   perr.Message,
			})
		case errors.As(err, &perr):
			return c.Status(fiber.StatusBadGateway).JSON(models.ActionResponse{
				Success:     false,
				Error:       perr.Message,
				OperationID: id,
			})
		default:
			return err
		}
	}
}

// Helper functions
func runOperation(ctx context.Context, p *portal.Portal, op portal.Operation) (string, error) {
	if op == portal.OpProvision {
		return p.Provision(ctx)
	}
	return p.Deprovision(ctx)
}

func requireSystems(ctx context.Context, src catalog.Source, names []string) error {
	for _, name := range names {
		ok, err := catalog.HasSystem(ctx, src, name)
		if err != nil {
			logger.Error("Failed to list systems: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load systems")
		}
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unknown system %q", name))
		}
	}
	return nil
}

// requireVersion accepts "" so the selection can be cleared.
func requireVersion(ctx context.Context, src catalog.Source, id string) error {
	if id == "" {
		return nil
	}
	ok, err := catalog.HasVersion(ctx, src, id)
	if err != nil {
		logger.Error("Failed to list versions: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load versions")
	}
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unknown version %q", id))
	}
	return nil
}

func stateResponse(snap portal.Snapshot) models.StateResponse {
	st := snap.Status
	return models.StateResponse{
		SelectedSystems:  snap.SelectedSystems,
		SelectedVersion:  snap.SelectedVersion,
		State:            string(st.State),
		Operation:        string(st.Operation),
		OperationID:      st.OperationID,
		IsProvisioning:   st.IsProvisioning(),
		IsDeprovisioning: st.IsDeprovisioning(),
		Error:            st.ErrorMessage(),
		Success:          st.Success(),
	}
}
