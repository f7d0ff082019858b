package http

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/densitymap/internal/core/domain"
	"github.com/samirrijal/densitymap/internal/pkg/metrics"
)

const (
	defaultRasterSize = 512
	maxRasterSize     = 2048
)

// parsePointSet decodes an optional JSON point set from the request body.
func parsePointSet(c *fiber.Ctx) (*domain.PointSet, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var set domain.PointSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// acquireCtx bounds how long a request waits for the density renderer.
func acquireCtx(c *fiber.Ctx, deps *Dependencies) (context.Context, context.CancelFunc) {
	if deps.AcquireTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), deps.AcquireTimeout)
}

// CreateMapHandler mounts a new map view, optionally with initial points.
func CreateMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := parsePointSet(c)
		if err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if set != nil {
			metrics.PointSetsReceived.WithLabelValues("http").Inc()
		}

		ctx, cancel := acquireCtx(c, deps)
		defer cancel()
		scene, err := deps.Maps.Create(ctx, set)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderLocation, "/v1/maps/"+scene.MapID)
		return c.Status(fiber.StatusCreated).JSON(scene)
	}
}

// ListMapsHandler returns the IDs of live map views.
func ListMapsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := ParsePagination(c)
		ids, total := deps.Maps.List(pg.Offset, pg.Limit)
		pg = pg.WithTotal(total)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: ids, Pagination: pg})
	}
}

// GetMapHandler returns the current scene of a map view.
func GetMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scene, err := deps.Maps.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(scene)
	}
}

// UpdatePointsHandler replaces the inputs of a map view.
func UpdatePointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := parsePointSet(c)
		if err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if set == nil {
			return errBadRequest(c, "request body with points is required")
		}
		metrics.PointSetsReceived.WithLabelValues("http").Inc()

		ctx, cancel := acquireCtx(c, deps)
		defer cancel()
		scene, err := deps.Maps.Update(ctx, c.Params("id"), set)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(scene)
	}
}

// LoadDatasetHandler feeds a stored dataset into a map view.
func LoadDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dataset := c.Params("dataset")
		if dataset == "" || len(dataset) > 100 {
			return errBadRequest(c, "dataset name must be 1-100 characters")
		}
		showHeatmap := c.QueryBool("show_heatmap", true)
		metrics.PointSetsReceived.WithLabelValues("dataset").Inc()

		ctx, cancel := acquireCtx(c, deps)
		defer cancel()
		scene, err := deps.Maps.LoadDataset(ctx, c.Params("id"), dataset, showHeatmap)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(scene)
	}
}

// ListDatasetsHandler lists stored datasets.
func ListDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names, err := deps.Maps.Datasets(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"datasets": names})
	}
}

// HeatImageHandler rasterizes the active density layer as PNG.
func HeatImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w := c.QueryInt("w", defaultRasterSize)
		h := c.QueryInt("h", defaultRasterSize)
		if w <= 0 || h <= 0 || w > maxRasterSize || h > maxRasterSize {
			return errBadRequest(c, "w and h must be between 1 and 2048")
		}

		data, err := deps.Maps.RenderHeat(c.UserContext(), c.Params("id"), w, h)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set("Cache-Control", "private, max-age=60")
		return c.Send(data)
	}
}

// DeleteMapHandler tears a map view down.
func DeleteMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Maps.Delete(c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
