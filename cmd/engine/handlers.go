package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Victor-armando18/vatpricing/pkg/engine"
)

type PatchRequest struct {
	Request engine.CalculationRequest `json:"request"`
	Patch   json.RawMessage           `json:"patch"`
}

type CompareRequest struct {
	Request   engine.CalculationRequest `json:"request"`
	Scenarios []engine.Scenario         `json:"scenarios"`
}

type ExpressionRequest struct {
	Expression string `json:"expression"`
}

type errorBody struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Stage       string `json:"stage,omitempty"`
	RuleID      string `json:"ruleId,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// pricingEngine é o subconjunto do motor usado pelos handlers.
type pricingEngine interface {
	Calculate(ctx context.Context, req engine.CalculationRequest) (*engine.CalculationResult, error)
	PatchAndCalculate(ctx context.Context, req engine.CalculationRequest, patch []byte) (engine.CalculationRequest, *engine.CalculationResult, error)
	Compare(ctx context.Context, base engine.CalculationRequest, scenarios []engine.Scenario) (*engine.Comparison, error)
	ValidateExpression(expr string) error
	Countries(ctx context.Context) ([]engine.Country, error)
	Services(ctx context.Context) ([]engine.ServiceOffering, error)
	Refresh(ctx context.Context) (string, error)
	ReferenceVersion() string
}

func newServer(eng pricingEngine, metricsHandler http.Handler, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodPatch, http.MethodOptions, http.MethodGet},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("requestId", v.RequestID),
			)
			return nil
		},
	}))

	e.POST("/calculations", handleCalculate(eng))
	e.PATCH("/calculations", handlePatch(eng))
	e.POST("/comparisons", handleCompare(eng))
	e.GET("/countries", handleCountries(eng))
	e.GET("/services", handleServices(eng))
	e.POST("/rules/validate", handleValidateExpression(eng))
	e.POST("/admin/reference/refresh", handleRefresh(eng))
	e.GET("/healthz", handleHealth(eng))
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}
	return e
}

func handleCalculate(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req engine.CalculationRequest
		if err := c.Bind(&req); err != nil {
			return badPayload(c)
		}
		result, err := svc.Calculate(c.Request().Context(), req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func handlePatch(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req PatchRequest
		if err := c.Bind(&req); err != nil {
			return badPayload(c)
		}
		updated, result, err := svc.PatchAndCalculate(c.Request().Context(), req.Request, req.Patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"request": updated, "result": result})
	}
}

func handleCompare(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req CompareRequest
		if err := c.Bind(&req); err != nil {
			return badPayload(c)
		}
		cmp, err := svc.Compare(c.Request().Context(), req.Request, req.Scenarios)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, cmp)
	}
}

func handleCountries(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		countries, err := svc.Countries(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, countries)
	}
}

func handleServices(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		services, err := svc.Services(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, services)
	}
}

func handleValidateExpression(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req ExpressionRequest
		if err := c.Bind(&req); err != nil {
			return badPayload(c)
		}
		if err := svc.ValidateExpression(req.Expression); err != nil {
			return c.JSON(http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		}
		vars, _ := engine.ExpressionVariables(req.Expression)
		return c.JSON(http.StatusOK, map[string]any{"valid": true, "variables": vars})
	}
}

func handleRefresh(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		version, err := svc.Refresh(c.Request().Context())
		if err != nil {
			// O snapshot anterior continua a servir pedidos.
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"error":        "reference refresh failed",
				"message":      err.Error(),
				"rulesVersion": version,
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"rulesVersion": version})
	}
}

func handleHealth(svc pricingEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "rulesVersion": svc.ReferenceVersion()})
	}
}

func badPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: string(engine.KindValidation), Message: "invalid payload"})
}

func statusFor(kind engine.ErrorKind) int {
	switch kind {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindCountryNotSupported, engine.KindInvalidAdditionalService:
		return http.StatusUnprocessableEntity
	case engine.KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	body := errorBody{Error: string(engine.KindInternal), Message: err.Error()}
	var ce *engine.CalculationError
	if errors.As(err, &ce) {
		body = errorBody{
			Error:       string(ce.Kind),
			Message:     ce.Error(),
			Stage:       string(ce.Stage),
			RuleID:      ce.RuleID,
			CountryCode: ce.CountryCode,
		}
	}
	return c.JSON(statusFor(engine.ErrorKind(body.Error)), body)
}
