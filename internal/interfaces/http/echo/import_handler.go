package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/data-importer/internal/application/ingest"
)

type ImportHandler struct {
	trigger app.TriggerImport
	status  app.GetLastCycle
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(trigger app.TriggerImport, status app.GetLastCycle) *ImportHandler {
	return &ImportHandler{trigger: trigger, status: status}
}

func (h *ImportHandler) Run(c echo.Context) error {
	out, err := h.trigger.Execute(c.Request().Context())
	if err != nil {
		if errors.Is(err, app.ErrCycleInProgress) {
			return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
				Code:    "cycle_in_progress",
				Message: "an import cycle is already running",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to schedule import cycle",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) LastCycle(c echo.Context) error {
	out, err := h.status.Execute(c.Request().Context())
	if err != nil {
		if errors.Is(err, app.ErrNoCompletedCycles) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "no_cycles",
				Message: "no import cycle has completed yet",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to read cycle status",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
