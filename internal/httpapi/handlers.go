package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/ingestion"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/usecase"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

const readyTimeout = 2 * time.Second

// handleWebhook dispatches a call lifecycle event.
func (s *Server) handleWebhook(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}

	status, body := s.processor.Process(c.Request.Context(), raw)
	c.JSON(status, body)
}

// handleAppointment books an appointment from a createAppointment function call.
func (s *Server) handleAppointment(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	body, err := ingestion.Unwrap(raw)
	if err != nil {
		writeError(c, err)
		return
	}

	var evt model.FunctionCallEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		writeError(c, apperrors.ErrBadRequest)
		return
	}

	resp, err := s.appointments.CreateFromToolCall(ctx, &evt)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(ctx).Error("Appointment request failed", zap.Error(err))
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "UP",
		Version: s.opts.Version,
	})
}

// handleReady handles the /ready endpoint for readiness probes
func (s *Server) handleReady(c *gin.Context) {
	details := map[string]string{
		"timestamp": utils.FormatISO8601(utils.Now()),
	}

	if s.db != nil {
		ctx, cancel := contextWithTimeout(c, readyTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			details["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "NOT_READY", Details: details})
			return
		}
		details["database"] = "ok"
	}

	if s.opts.Broker != nil {
		if !s.opts.Broker.IsConnected() {
			details["nats"] = "disconnected"
			c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "NOT_READY", Details: details})
			return
		}
		details["nats"] = "ok"
	}

	c.JSON(http.StatusOK, HealthResponse{Status: "READY", Details: details})
}

// readBody reads the request body, answering 413 or 400 itself on failure.
func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}
	return raw, true
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), model.ErrorResponse{Error: usecase.ErrorMessage(err)})
}
