package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artinSha/RingApp-Backend/internal/call"
	"github.com/artinSha/RingApp-Backend/internal/store"
)

// CallService is the turn-state machine surface consumed by the handlers.
type CallService interface {
	StartCall(ctx context.Context, userID, scenarioName string) (*call.StartResult, error)
	ProcessAudio(ctx context.Context, convID string, audio []byte, formatHint string) (*call.TurnResult, error)
	EndCall(ctx context.Context, convID string) (*call.CloseResult, error)
}

// UserCreator creates user records.
type UserCreator interface {
	CreateUser(ctx context.Context, u *store.User) (string, error)
}

type Handlers struct {
	Calls CallService
	Users UserCreator
}

func NewHandlers(calls CallService, users UserCreator) Handlers {
	return Handlers{Calls: calls, Users: users}
}

func (h Handlers) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/create_user", h.createUser)
	e.POST("/start_call", h.startCall)
	e.POST("/process_audio", h.processAudio)
	e.POST("/end_call", h.endCall)
}

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DNDStart    string `json:"dnd_start"`
	DNDEnd      string `json:"dnd_end"`
	DeviceToken string `json:"device_token"`
}

func (h Handlers) createUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.DNDStart == "" {
		req.DNDStart = "09:00"
	}
	if req.DNDEnd == "" {
		req.DNDEnd = "17:00"
	}
	id, err := h.Users.CreateUser(c.Request().Context(), &store.User{
		Username:    req.Username,
		Email:       req.Email,
		DNDStart:    req.DNDStart,
		DNDEnd:      req.DNDEnd,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		c.Echo().Logger.Errorf("create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user_id": id})
}

type startCallRequest struct {
	UserID   string `json:"user_id"`
	Scenario string `json:"scenario"`
}

func (h Handlers) startCall(c echo.Context) error {
	var req startCallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	res, err := h.Calls.StartCall(c.Request().Context(), req.UserID, req.Scenario)
	if err != nil {
		return h.mapError(c, err)
	}
	payload := echo.Map{
		"conversation_id": res.ConversationID,
		"initial_ai_text": res.OpeningLine,
	}
	if res.OpeningAudioURL != "" {
		payload["initial_ai_audio_url"] = res.OpeningAudioURL
	} else {
		payload["initial_ai_audio_url"] = nil
	}
	return c.JSON(http.StatusCreated, payload)
}

func (h Handlers) processAudio(c echo.Context) error {
	convID := c.FormValue("conv_id")
	file, err := c.FormFile("audio")
	if convID == "" || err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "conv_id and audio file are required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read audio file"})
	}
	defer src.Close()
	audio, err := io.ReadAll(src)
	if err != nil || len(audio) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read audio file"})
	}

	hint := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	res, err := h.Calls.ProcessAudio(c.Request().Context(), convID, audio, hint)
	if err != nil {
		return h.mapError(c, err)
	}

	payload := echo.Map{
		"user_text":    res.UserText,
		"ai_text":      res.AIText,
		"ai_audio_b64": base64.StdEncoding.EncodeToString(res.AudioMP3),
	}
	if res.TurnOrderWarning {
		payload["turn_order_warning"] = true
	}
	return c.JSON(http.StatusOK, payload)
}

type endCallRequest struct {
	ConvID string `json:"conv_id"`
}

func (h Handlers) endCall(c echo.Context) error {
	var req endCallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ConvID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "conv_id required"})
	}

	res, err := h.Calls.EndCall(c.Request().Context(), req.ConvID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"feedback":   res.Feedback,
		"user_lines": res.UserLines,
		"ai_lines":   res.AILines,
	})
}

// mapError translates service errors into status codes: bad references and
// missing fields are client errors, provider failures are surfaced as 502
// with the provider's message for diagnosis.
func (h Handlers) mapError(c echo.Context, err error) error {
	var pe *call.ProviderError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	case errors.Is(err, call.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &pe):
		c.Echo().Logger.Errorf("provider failure: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": pe.Error()})
	default:
		c.Echo().Logger.Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
