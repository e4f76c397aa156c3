package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sartorproj/autoforecast/autoselect"
	"github.com/sartorproj/autoforecast/console"
	"github.com/sartorproj/autoforecast/ensemble"
	"github.com/sartorproj/autoforecast/timeseries"
)

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// ForecastHandler serves model selection requests.
type ForecastHandler struct {
	selector *autoselect.Selector
	logger   zerolog.Logger
}

// NewForecastHandler creates a handler running selections on selector.
func NewForecastHandler(selector *autoselect.Selector, logger zerolog.Logger) *ForecastHandler {
	return &ForecastHandler{selector: selector, logger: logger}
}

// RegisterRoutes registers the forecast routes.
func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/forecast/autoselect", h.autoselect)
}

func (h *ForecastHandler) autoselect(c echo.Context) error {
	var req ForecastRequest
	if errs := readAndValidateRequest(c, &req); errs != nil {
		return respond(c, http.StatusBadRequest, errs)
	}

	table, err := req.table()
	if err != nil {
		return respond(c, http.StatusBadRequest, errorData(err))
	}

	result, err := h.selector.Select(c.Request().Context(), table, req.Options)
	if err != nil {
		if status := statusFor(err); status != http.StatusInternalServerError {
			return respond(c, status, errorData(err))
		}
		h.logger.Error().Err(err).Msg("model selection failed")
		return respond(c, http.StatusInternalServerError, "Something went wrong")
	}
	if result.SetupErr != nil {
		return respond(c, http.StatusServiceUnavailable, []ValidationError{{
			Code:    "ERR_" + strings.ToUpper(result.SetupErr.Kind.String()),
			Message: console.Render(result.SetupErr.Message(), false),
		}})
	}
	return respond(c, http.StatusOK, newForecastResponse(result))
}

// statusFor maps selection errors caused by the request to 400.
func statusFor(err error) int {
	for _, target := range []error{
		autoselect.ErrInvalidOptions,
		timeseries.ErrColumnNotFound,
		timeseries.ErrMissingValues,
		timeseries.ErrEmptySeries,
		timeseries.ErrNoFrequency,
		timeseries.ErrNotOrdered,
		timeseries.ErrLengthMismatch,
		ensemble.ErrTestSize,
		ensemble.ErrHorizon,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func errorData(err error) []ValidationError {
	return []ValidationError{{Code: "ERR_INPUT", Message: err.Error()}}
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}
