package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/thumbnail"
)

var (
	errEmptyValue = errors.New("empty value")
)

type Gateway struct {
	thumbnail *thumbnail.Service
	echo      *echo.Echo
	address   string
}

type GatewayConfig struct {
	Thumbnail *thumbnail.Service
	Address   string
}

func New(c GatewayConfig) *Gateway {
	e := echo.New()
	e.HideBanner = true

	g := &Gateway{
		thumbnail: c.Thumbnail,
		echo:      e,
		address:   c.Address,
	}

	e.Use(
		middleware.Recover(),
		middleware.Logger(),
	)

	e.POST("/events", g.hdlrEvents)
	e.PUT("/objects/*", g.hdlrObjectCreated)
	e.GET("/media/*", g.hdlrMedia)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", g.hdlrHealth)

	return g
}

func (g *Gateway) Run() error {
	if err := g.echo.Start(g.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (g *Gateway) Shutdown() error {
	return g.echo.Shutdown(context.TODO())
}

type validationResponse struct {
	ValidationResponse string `json:"validationResponse"`
}

// hdlrEvents is an Event Grid webhook. A failed event answers 500 so the
// whole batch is redelivered, handlers are idempotent.
func (g *Gateway) hdlrEvents(c echo.Context) error {
	var events []entity.Event
	if err := json.NewDecoder(c.Request().Body).Decode(&events); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("decode events: %s", err))
	}

	for _, event := range events {
		if event.EventType == entity.EventTypeSubscriptionValidation {
			var data entity.SubscriptionValidationData
			if err := json.Unmarshal(event.Data, &data); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("decode validation: %s", err))
			}

			return c.JSON(http.StatusOK, validationResponse{
				ValidationResponse: data.ValidationCode,
			})
		}

		if err := g.thumbnail.Deleted(c.Request().Context(), event); err != nil {
			return fmt.Errorf("deleted %s: %w", event.ID, err)
		}
	}

	return c.NoContent(http.StatusOK)
}

func (g *Gateway) hdlrObjectCreated(c echo.Context) error {
	defer c.Request().Body.Close()

	name, err := paramName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("param name: %s", err))
	}

	if err := g.thumbnail.Created(c.Request().Context(), entity.ObjectReader{
		Name:    name,
		Content: c.Request().Body,
	}); err != nil {
		return fmt.Errorf("created: %w", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (g *Gateway) hdlrMedia(c echo.Context) error {
	name, err := paramName(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("param name: %s", err))
	}

	content, err := g.thumbnail.Links(name)
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, content)
}

func (g *Gateway) hdlrHealth(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func paramName(c echo.Context) (string, error) {
	v, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return "", fmt.Errorf("path unescape: %w", err)
	}
	if v == "" {
		return "", errEmptyValue
	}

	return v, nil
}

func toHTTPError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return echo.ErrNotFound
	case errors.Is(err, entity.ErrNotModified):
		return c.NoContent(http.StatusNotModified)
	}

	return err
}
