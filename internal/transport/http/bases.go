package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/imageurl"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/lib/notify"
	"base_gallery/internal/transport/http/dto/request"
	"base_gallery/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

const maxImageSize = 10 << 20

// ListBases returns the window of the caller's session, loading the first
// page when the window is still empty.
func (r *Routers) ListBases(c echo.Context) error {
	const op = "http.routers.ListBases"

	log := r.log.With(
		slog.String("op", op),
	)

	sid, _, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	ctl := r.Lists.Controller(sid)
	if _, err := ctl.LoadIfEmpty(c.Request().Context()); err != nil {
		log.Warn("initial load failed", sl.Err(err))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(ctl.Snapshot()))
}

func (r *Routers) LoadMoreBases(c echo.Context) error {
	const op = "http.routers.LoadMoreBases"

	log := r.log.With(
		slog.String("op", op),
	)

	sid, _, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	ctl := r.Lists.Controller(sid)

	accepted, err := ctl.LoadMore(c.Request().Context())
	if err != nil {
		log.Warn("load more failed", sl.Err(err))
	}

	return c.JSON(http.StatusOK, response.Response{
		Status:  "success",
		Data:    ctl.Snapshot(),
		Message: acceptedMessage(accepted),
	})
}

func (r *Routers) RetryBases(c echo.Context) error {
	const op = "http.routers.RetryBases"

	log := r.log.With(
		slog.String("op", op),
	)

	sid, _, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	ctl := r.Lists.Controller(sid)
	if err := ctl.Retry(c.Request().Context()); err != nil {
		log.Warn("retry failed", sl.Err(err))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(ctl.Snapshot()))
}

func (r *Routers) SetMonthFilter(c echo.Context) error {
	const op = "http.routers.SetMonthFilter"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.FilterRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	sid, _, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	ctl := r.Lists.Controller(sid)
	if err := ctl.SetFilter(c.Request().Context(), strings.TrimSpace(req.Month)); err != nil {
		log.Warn("filtered load failed", sl.Err(err))
	}

	return c.JSON(http.StatusOK, response.Response{
		Status:  "success",
		Data:    ctl.Snapshot(),
		Message: r.MonthService.Label(ctl.Snapshot().ActiveFilter),
	})
}

func (r *Routers) GetBase(c echo.Context) error {
	const op = "http.routers.GetBase"

	log := r.log.With(
		slog.String("op", op),
		slog.String("id", c.Param("id")),
	)

	item, err := r.ItemService.Get(c.Request().Context(), models.ItemID(c.Param("id")))
	if err != nil {
		log.Warn("failed to get base", sl.Err(err))
		return errorJSON(c, err, "Failed to load base")
	}

	item.ImageURL, _ = imageurl.Normalize(item.ImageRef, r.imageOrigin)

	return c.JSON(http.StatusOK, response.SuccessResponse(item))
}

// CreateBase accepts the upload form (name, link, image) as multipart/form-data.
func (r *Routers) CreateBase(c echo.Context) error {
	const op = "http.routers.CreateBase"

	log := r.log.With(
		slog.String("op", op),
	)

	sid, user, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	payload, err := parsePayload(c)
	if err != nil {
		log.Warn("invalid upload form", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	var rec notify.Recorder
	ok, err := r.MutationService.SubmitCreate(
		c.Request().Context(),
		r.IdentityService.Session(user),
		r.Lists.Controller(sid),
		&rec,
		payload,
	)

	return r.mutationResult(c, http.StatusCreated, ok, err, &rec)
}

func (r *Routers) UpdateBase(c echo.Context) error {
	const op = "http.routers.UpdateBase"

	log := r.log.With(
		slog.String("op", op),
		slog.String("id", c.Param("id")),
	)

	sid, user, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	id := models.ItemID(c.Param("id"))
	if denied := r.checkOwner(c, log, user, id); denied != nil {
		return denied()
	}

	payload, err := parsePayload(c)
	if err != nil {
		log.Warn("invalid update form", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	var rec notify.Recorder
	ok, err := r.MutationService.SubmitUpdate(
		c.Request().Context(),
		r.IdentityService.Session(user),
		r.Lists.Controller(sid),
		&rec,
		id,
		payload,
	)

	return r.mutationResult(c, http.StatusOK, ok, err, &rec)
}

func (r *Routers) DeleteBase(c echo.Context) error {
	const op = "http.routers.DeleteBase"

	log := r.log.With(
		slog.String("op", op),
		slog.String("id", c.Param("id")),
	)

	sid, user, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	id := models.ItemID(c.Param("id"))
	if denied := r.checkOwner(c, log, user, id); denied != nil {
		return denied()
	}

	var rec notify.Recorder
	ok := r.MutationService.SubmitDelete(
		c.Request().Context(),
		r.IdentityService.Session(user),
		r.Lists.Controller(sid),
		&rec,
		id,
	)

	return r.mutationResult(c, http.StatusOK, ok, nil, &rec)
}

func (r *Routers) ListMonths(c echo.Context) error {
	buckets := r.MonthService.Refresh(c.Request().Context())

	return c.JSON(http.StatusOK, response.SuccessResponse(buckets))
}

// checkOwner returns a responder when a signed-in user tries to change a base
// they do not own. Signed-out callers pass through and are rejected by the
// mutation service.
func (r *Routers) checkOwner(c echo.Context, log *slog.Logger, user models.User, id models.ItemID) func() error {
	if user.ID == "" || id == "" {
		return nil
	}

	item, err := r.ItemService.Get(c.Request().Context(), id)
	if err != nil {
		log.Warn("failed to load base for ownership check", sl.Err(err))
		return func() error { return errorJSON(c, err, "Failed to load base") }
	}

	if !item.OwnedBy(user.ID) {
		log.Warn("change rejected: not owner", slog.String("user_id", user.ID))
		return func() error { return c.JSON(http.StatusForbidden, response.ErrNotOwner) }
	}

	return nil
}

func (r *Routers) mutationResult(c echo.Context, okStatus int, ok bool, err error, rec *notify.Recorder) error {
	status := okStatus
	switch {
	case err != nil:
		status = http.StatusBadGateway
	case !ok:
		status = http.StatusUnprocessableEntity
	default:
		r.MonthService.Invalidate()
	}

	result := response.MutationResponse{
		Status:        "success",
		Success:       ok,
		Notifications: rec.All(),
	}
	if !ok {
		result.Status = "error"
	}

	return c.JSON(status, result)
}

func parsePayload(c echo.Context) (models.Payload, error) {
	payload := models.Payload{
		Title: c.FormValue("name"),
		Link:  c.FormValue("link"),
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return payload, nil
	}
	if err != nil {
		return models.Payload{}, fmt.Errorf("read image: %w", err)
	}

	if fh.Size > maxImageSize {
		return models.Payload{}, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	f, err := fh.Open()
	if err != nil {
		return models.Payload{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return models.Payload{}, fmt.Errorf("read image: %w", err)
	}

	payload.Image = &models.Upload{
		Filename: fh.Filename,
		Content:  content,
	}

	return payload, nil
}

func acceptedMessage(accepted bool) string {
	if accepted {
		return "loaded"
	}
	return "ignored"
}
