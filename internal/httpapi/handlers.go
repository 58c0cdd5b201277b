// Package httpapi is the JSON-over-HTTP transport for web clients.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
	"github.com/gurkanbulca/clarity/internal/idempotency"
	"github.com/gurkanbulca/clarity/internal/models"
	"github.com/gurkanbulca/clarity/internal/scheduler"
	"github.com/gurkanbulca/clarity/internal/service"
	"github.com/gurkanbulca/clarity/pkg/auth"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// Deduper replays responses for repeated idempotency keys.
type Deduper interface {
	Begin(ctx context.Context, ownerID uuid.UUID, key string) (*idempotency.Response, error)
	Complete(ctx context.Context, ownerID uuid.UUID, key string, resp idempotency.Response) error
	Abort(ctx context.Context, ownerID uuid.UUID, key string) error
}

// Deps are the collaborators the HTTP API serves. Deduper may be nil.
type Deps struct {
	Commands service.CommandHandler
	Tasks    *service.TaskService
	Tokens   *auth.TokenManager
	Deduper  Deduper
	Logger   *logrus.Logger
}

type handlers struct {
	commands service.CommandHandler
	tasks    *service.TaskService
	deduper  Deduper
	logger   *logrus.Logger
}

// New builds the echo instance with every route registered.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler(deps.Logger)

	e.Use(RequestLogger(deps.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, HeaderIdempotencyKey},
	}))

	Register(e, deps)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps) {
	h := &handlers{
		commands: deps.Commands,
		tasks:    deps.Tasks,
		deduper:  deps.Deduper,
		logger:   deps.Logger,
	}

	e.GET("/healthz", healthz)

	api := e.Group("/api", Authenticate(deps.Tokens))
	api.POST("/ai/command", h.postCommand)
	api.GET("/tasks", h.getTasks)
	api.POST("/tasks", h.createTask)
	api.PUT("/tasks/:id", h.updateTask)
	api.DELETE("/tasks/:id", h.deleteTask)
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.updateProfile)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *handlers) postCommand(c echo.Context) error {
	ctx := c.Request().Context()
	owner := ownerID(c)

	var req schedulerv1.CommandRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if key == "" || h.deduper == nil {
		result, err := h.commands.HandleCommand(ctx, owner, commandOf(req))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}

	cached, err := h.deduper.Begin(ctx, owner, key)
	switch {
	case err == nil && cached != nil:
		c.Response().Header().Set("Idempotent-Replayed", "true")
		return c.JSONBlob(cached.Status, cached.Body)
	case err != nil && !errors.Is(err, idempotency.ErrInProgress):
		// Redis trouble should not block scheduling; run without replay.
		h.logger.WithError(err).Warn("idempotency unavailable")
		result, err := h.commands.HandleCommand(ctx, owner, commandOf(req))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	case err != nil:
		return err
	}

	result, err := h.commands.HandleCommand(ctx, owner, commandOf(req))
	if err != nil {
		if aerr := h.deduper.Abort(context.WithoutCancel(ctx), owner, key); aerr != nil {
			h.logger.WithError(aerr).Warn("release idempotency key")
		}
		return err
	}

	body, err := sonic.Marshal(result)
	if err != nil {
		return err
	}
	if err := h.deduper.Complete(context.WithoutCancel(ctx), owner, key, idempotency.Response{Status: http.StatusOK, Body: body}); err != nil {
		h.logger.WithError(err).Warn("store idempotent response")
	}
	return c.JSONBlob(http.StatusOK, body)
}

func commandOf(req schedulerv1.CommandRequest) scheduler.Command {
	return scheduler.Command{Text: req.Command, LocalTime: req.LocalTime}
}

func (h *handlers) getTasks(c echo.Context) error {
	start, err := timeParam(c, "start")
	if err != nil {
		return err
	}
	end, err := timeParam(c, "end")
	if err != nil {
		return err
	}
	includeUnscheduled, _ := strconv.ParseBool(c.QueryParam("includeUnscheduled"))

	tasks, err := h.tasks.ListTasks(c.Request().Context(), ownerID(c), start, end, includeUnscheduled)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(http.StatusOK, schedulerv1.ListTasksResponse{Tasks: tasks})
}

func (h *handlers) createTask(c echo.Context) error {
	var req schedulerv1.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	input, err := service.TaskInputFromRequest(req)
	if err != nil {
		return err
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), ownerID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *handlers) updateTask(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req schedulerv1.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	patch, err := service.TaskPatchFromRequest(req)
	if err != nil {
		return err
	}

	task, err := h.tasks.UpdateTask(c.Request().Context(), ownerID(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *handlers) deleteTask(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.tasks.DeleteTask(c.Request().Context(), ownerID(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schedulerv1.DeleteTaskResponse{Deleted: true})
}

func (h *handlers) getProfile(c echo.Context) error {
	profile, err := h.tasks.GetProfile(c.Request().Context(), ownerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *handlers) updateProfile(c echo.Context) error {
	var req schedulerv1.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	update, err := service.ProfileUpdateFromRequest(req)
	if err != nil {
		return err
	}

	profile, err := h.tasks.UpdateProfile(c.Request().Context(), ownerID(c), update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func timeParam(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, models.NewValidationError(name, "%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, models.NewValidationError(name, "%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

func idParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, models.NewValidationError("id", "id must be a valid UUID")
	}
	return id, nil
}
