package main

import (
	"errors"
	"log/slog"
	"net/http"

	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	tracer = otel.Tracer("banco")
	meter  = otel.Meter("banco")
)

type MainHandler struct {
	service *OrderService
	health  *healthgo.Health
}

func NewMainHandler(e *echo.Echo, settings *Settings, service *OrderService, health *healthgo.Health) *MainHandler {
	logger := slog.Default()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: settings.HTTP.CORS.Origins,
		AllowMethods: settings.HTTP.CORS.Methods,
		AllowHeaders: settings.HTTP.CORS.Headers,
	}))
	e.Use(otelecho.Middleware("banco",
		otelecho.WithMetricAttributeFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("client.ip", r.RemoteAddr),
				attribute.String("user.agent", r.UserAgent()),
			}
		}),
		otelecho.WithEchoMetricAttributeFn(func(c echo.Context) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("handler.path", c.Path()),
				attribute.String("handler.method", c.Request().Method),
			}
		}),
	))

	handler := &MainHandler{
		service: service,
		health:  health,
	}

	e.GET("/healthz", handler.HealthCheck)
	api := e.Group("/api")

	api.GET("/orders", handler.ListOrders)
	api.POST("/orders", handler.CreateOrder)
	api.GET("/orders/summary", handler.SummarizeOrders)

	// The page itself is plain static UI glue; serve it when configured.
	if settings.HTTP.StaticDir != "" {
		e.Static("/", settings.HTTP.StaticDir)
	}

	return handler
}

// CreateOrder records one submission of the pre-order form.
func (h *MainHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req NewOrderRequest
	if err := c.Bind(&req); err != nil {
		slog.ErrorContext(ctx, "failed to bind request", slog.String("error", err.Error()))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "JSON invalide.", Code: "invalid_json"})
	}

	items := req.Items
	if len(items) == 0 && len(req.Pizzas) > 0 {
		// Old clients post a flat pizza list; treat it as plain items.
		items = make([]RawOrderItem, 0, len(req.Pizzas))
		for _, key := range req.Pizzas {
			items = append(items, RawOrderItem{Key: key})
		}
	}

	order, err := h.service.SubmitOrder(ctx, req.Name, items)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Code: validationErr.Code})
		case errors.Is(err, ErrLockUnavailable):
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Impossible d'enregistrer la commande.", Code: "lock_unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Impossible d'enregistrer la commande.", Code: "persist_failed"})
		}
	}

	return c.JSON(http.StatusCreated, NewOrderResponse{Order: order})
}

// ListOrders returns the full order log plus the upcoming Thursday.
func (h *MainHandler) ListOrders(c echo.Context) error {
	orders, reservationDate := h.service.GetOrders(c.Request().Context())

	return c.JSON(http.StatusOK, OrdersResponse{
		Orders:          orders,
		ReservationDate: reservationDate,
	})
}

// SummarizeOrders returns the aggregated per-combination view the page renders.
func (h *MainHandler) SummarizeOrders(c echo.Context) error {
	summary, reservationDate := h.service.Summarize(c.Request().Context())

	return c.JSON(http.StatusOK, SummaryResponse{
		Summary:         summary,
		ReservationDate: reservationDate,
	})
}

// HealthCheck reports the measured state of the service and its store.
func (h *MainHandler) HealthCheck(c echo.Context) error {
	check := h.health.Measure(c.Request().Context())

	statusCode := http.StatusOK
	if check.Status != healthgo.StatusOK {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, check)
}
