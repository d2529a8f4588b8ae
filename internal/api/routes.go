package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fieldscope/server/domain/entities"
	"github.com/fieldscope/server/domain/repositories"
	"github.com/fieldscope/server/internal/auth"
	"github.com/fieldscope/server/internal/websocket"
	"github.com/fieldscope/server/usecase"
)

// Dependencies bundles everything the HTTP layer needs.
type Dependencies struct {
	Hub        *websocket.Hub
	Controller *usecase.SessionController
	Devices    repositories.DeviceRepository
	Issuer     *auth.TokenIssuer
	Gateway    repositories.PersistenceGateway
	Archive    repositories.SessionArchive // optional
	Logger     *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "fieldscope-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Device APIs
	v1.POST("/device/auth", func(c echo.Context) error {
		return deviceAuth(c, deps)
	})

	// Session lifecycle APIs
	v1.POST("/sessions", func(c echo.Context) error {
		return startSession(c, deps)
	})
	v1.POST("/sessions/stop", func(c echo.Context) error {
		return stopSession(c, deps)
	})
	v1.DELETE("/sessions/current", func(c echo.Context) error {
		return abandonSession(c, deps)
	})
	v1.GET("/sessions/current", func(c echo.Context) error {
		return currentSession(c, deps)
	})
	v1.GET("/sessions/:id/bundle", func(c echo.Context) error {
		return getBundle(c, deps)
	})
	v1.GET("/sessions/recent", func(c echo.Context) error {
		return recentSessions(c, deps)
	})

	// Scope of work APIs
	v1.POST("/scope", func(c echo.Context) error {
		return generateScope(c, deps)
	})
	v1.GET("/scope", func(c echo.Context) error {
		return getScope(c, deps)
	})

	// Interactive review APIs
	v1.POST("/review/narrate", func(c echo.Context) error {
		return narrateSection(c, deps)
	})
	v1.POST("/review/narrate/stop", func(c echo.Context) error {
		deps.Controller.Review().StopNarration()
		return c.NoContent(http.StatusNoContent)
	})
	v1.POST("/review/listen", func(c echo.Context) error {
		return beginListening(c, deps)
	})
	v1.POST("/review/listen/stop", func(c echo.Context) error {
		return endListening(c, deps)
	})
	v1.POST("/review/changes", func(c echo.Context) error {
		return processChanges(c, deps)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(c, deps)
	})
}

func deviceAuth(c echo.Context, deps Dependencies) error {
	var req DeviceAuthRequest

	if err := c.Bind(&req); err != nil {
		deps.Logger.Error("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := deps.Devices.ValidateDevice(c.Request().Context(), req.SerialNumber, req.SecretKey)
	if err != nil {
		deps.Logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, err := deps.Issuer.GenerateDeviceToken(device.ID)
	if err != nil {
		deps.Logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	deps.Logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(deps.Issuer.TTL()),
		DeviceID:  device.ID,
	})
}

func startSession(c echo.Context, deps Dependencies) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	session, err := deps.Controller.StartSession(c.Request().Context(), req.Locale)
	if err != nil {
		if errors.Is(err, entities.ErrSessionBusy) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "session_busy",
				Message: err.Error(),
			})
		}
		deps.Logger.Error("Failed to start session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "start_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, sessionResponse(session))
}

func stopSession(c echo.Context, deps Dependencies) error {
	session, err := deps.Controller.StopSession(c.Request().Context())
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrNotRecording):
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "not_recording",
				Message: err.Error(),
			})
		case errors.Is(err, entities.ErrOperationInProgress):
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "operation_in_progress",
				Message: err.Error(),
			})
		}
		deps.Logger.Error("Failed to stop session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "stop_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, sessionResponse(session))
}

func abandonSession(c echo.Context, deps Dependencies) error {
	deps.Controller.Abandon()
	return c.NoContent(http.StatusNoContent)
}

func currentSession(c echo.Context, deps Dependencies) error {
	session, ok := deps.Controller.Session()
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_session",
			Message: "No session in progress",
		})
	}
	return c.JSON(http.StatusOK, sessionResponse(session))
}

func getBundle(c echo.Context, deps Dependencies) error {
	sessionID := c.Param("id")
	bundle, err := deps.Gateway.Read(c.Request().Context(), sessionID)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "bundle_not_found",
			Message: "No persisted bundle for that session",
		})
	}
	return c.JSON(http.StatusOK, bundle)
}

func recentSessions(c echo.Context, deps Dependencies) error {
	if deps.Archive == nil {
		return c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error:   "archive_unavailable",
			Message: "Session archive is not configured",
		})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a non-negative integer",
			})
		}
		limit = n
	}

	bundles, err := deps.Archive.Recent(c.Request().Context(), limit)
	if err != nil {
		deps.Logger.Error("Failed to list archived sessions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "archive_error",
			Message: "Failed to list archived sessions",
		})
	}
	return c.JSON(http.StatusOK, bundles)
}

func generateScope(c echo.Context, deps Dependencies) error {
	scope, err := deps.Controller.GenerateScope(c.Request().Context())
	if err != nil {
		if errors.Is(err, entities.ErrOperationInProgress) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "operation_in_progress",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "scope_unavailable",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ScopeResponse{Scope: scope})
}

func getScope(c echo.Context, deps Dependencies) error {
	review := deps.Controller.Review()
	scope, ok := review.Scope()
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_scope",
			Message: "No scope of work has been generated yet",
		})
	}
	return c.JSON(http.StatusOK, ScopeResponse{
		Scope:   scope,
		Changes: review.ChangeLog(),
	})
}

func narrateSection(c echo.Context, deps Dependencies) error {
	var req NarrateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if err := deps.Controller.Review().Narrate(c.Request().Context(), req.SectionIndex); err != nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "narration_failed",
			Message: err.Error(),
		})
	}
	return c.NoContent(http.StatusAccepted)
}

func beginListening(c echo.Context, deps Dependencies) error {
	var req ListenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if err := deps.Controller.Review().BeginListening(c.Request().Context(), req.Locale); err != nil {
		if errors.Is(err, entities.ErrOperationInProgress) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "operation_in_progress",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "listen_failed",
			Message: err.Error(),
		})
	}
	return c.NoContent(http.StatusAccepted)
}

func endListening(c echo.Context, deps Dependencies) error {
	transcript, err := deps.Controller.Review().EndListening()
	if err != nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_listening",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ListenResponse{Transcript: transcript})
}

func processChanges(c echo.Context, deps Dependencies) error {
	var req ProcessChangesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	review := deps.Controller.Review()
	current, ok := review.Scope()
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_scope",
			Message: "No scope of work has been generated yet",
		})
	}

	transcript := req.Transcript
	if transcript == "" {
		transcript = review.PendingTranscript()
	}

	updated, changes, err := review.ProcessChanges(c.Request().Context(), current, transcript)
	if err != nil {
		if errors.Is(err, entities.ErrOperationInProgress) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "operation_in_progress",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "processing_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, ScopeResponse{Scope: updated, Changes: changes})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(c echo.Context, deps Dependencies) error {
	// Extract JWT token from Authorization header only
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}

	if token == "" {
		deps.Logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := deps.Issuer.ValidateToken(token)
	if err != nil {
		deps.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "device" {
		deps.Logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only device tokens are allowed for WebSocket connections",
		})
	}

	deviceID := claims.DeviceID
	if deviceID == "" {
		deps.Logger.Error("WebSocket connection rejected: missing device ID in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Device ID not found in token",
		})
	}

	deps.Logger.Info("WebSocket connection authenticated",
		zap.String("device_id", deviceID),
		zap.String("role", claims.Role))

	return deps.Hub.HandleConnection(c, deviceID)
}

func sessionResponse(session entities.RecordingSession) SessionResponse {
	return SessionResponse{
		SessionID:  session.ID,
		State:      session.State,
		StartedAt:  session.StartedAt,
		EntryCount: len(session.Entries),
	}
}
