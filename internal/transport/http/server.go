package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"base_gallery/internal/apperror"
	"base_gallery/internal/client/leaderboard"
	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/transport/http/dto/request"
	"base_gallery/internal/transport/http/dto/response"

	identity "base_gallery/internal/services/identity_service"
	list "base_gallery/internal/services/list_service"
	mutation "base_gallery/internal/services/mutation_service"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionName = "session"

	keySessionID = "sid"
	keyUserID    = "user_id"
	keyUserName  = "user_name"
)

type ItemService interface {
	Get(ctx context.Context, id models.ItemID) (*models.Item, error)
}

type MutationService interface {
	SubmitCreate(ctx context.Context, who mutation.Identity, list mutation.Invalidator, notify mutation.Notifier, payload models.Payload) (bool, error)
	SubmitUpdate(ctx context.Context, who mutation.Identity, list mutation.Invalidator, notify mutation.Notifier, id models.ItemID, payload models.Payload) (bool, error)
	SubmitDelete(ctx context.Context, who mutation.Identity, list mutation.Invalidator, notify mutation.Notifier, id models.ItemID) bool
}

type IdentityService interface {
	Verify(token string) (models.User, error)
	Session(user models.User) *identity.Session
	Status(ctx context.Context, userID string) (models.TokenMeta, error)
	SignOut(ctx context.Context, userID string) error
}

type MonthService interface {
	Refresh(ctx context.Context) []models.MonthBucket
	Label(key string) string
	Invalidate()
}

type LeaderboardService interface {
	Global(ctx context.Context) (*models.Leaderboard, error)
	Local(ctx context.Context, locationID string) (*models.Leaderboard, error)
	Page(ctx context.Context, params leaderboard.PageParams) (*models.Leaderboard, error)
}

type Routers struct {
	log                *slog.Logger
	Lists              *list.Registry
	ItemService        ItemService
	MutationService    MutationService
	IdentityService    IdentityService
	MonthService       MonthService
	LeaderboardService LeaderboardService
	imageOrigin        string
}

func NewRouter(
	log *slog.Logger,
	lists *list.Registry,
	itemService ItemService,
	mutationService MutationService,
	identityService IdentityService,
	monthService MonthService,
	leaderboardService LeaderboardService,
	imageOrigin string,
) *Routers {
	return &Routers{
		log:                log,
		Lists:              lists,
		ItemService:        itemService,
		MutationService:    mutationService,
		IdentityService:    identityService,
		MonthService:       monthService,
		LeaderboardService: leaderboardService,
		imageOrigin:        imageOrigin,
	}
}

// browserSession возвращает идентификатор сессии браузера (создает при первом
// обращении) и пользователя, если он вошел.
func (r *Routers) browserSession(c echo.Context) (string, models.User, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", models.User{}, err
	}

	sid, _ := sess.Values[keySessionID].(string)
	if sid == "" {
		sid = uuid.NewString()
		sess.Values[keySessionID] = sid
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return "", models.User{}, err
		}
	}

	userID, _ := sess.Values[keyUserID].(string)
	name, _ := sess.Values[keyUserName].(string)

	return sid, models.User{ID: userID, Name: name}, nil
}

// SignIn verifies the identity token issued by the auth provider and stores
// the user it names in the cookie session.
func (r *Routers) SignIn(c echo.Context) error {
	const op = "http.routers.SignIn"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.SignInRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid sign in request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	user, err := r.IdentityService.Verify(req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidIdentity)
	}

	if _, _, err := r.browserSession(c); err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	sess, _ := session.Get(sessionName, c)
	sess.Values[keyUserID] = user.ID
	sess.Values[keyUserName] = user.Name
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	log.Info("user signed in", slog.String("user_id", user.ID))

	return c.JSON(http.StatusOK, response.SuccessResponse(user))
}

func (r *Routers) SignOut(c echo.Context) error {
	const op = "http.routers.SignOut"

	log := r.log.With(
		slog.String("op", op),
	)

	sid, user, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	r.Lists.Drop(sid)

	if err := r.IdentityService.SignOut(c.Request().Context(), user.ID); err != nil {
		log.Warn("failed to clear token mirror", sl.Err(err))
	}

	sess, _ := session.Get(sessionName, c)
	delete(sess.Values, keyUserID)
	delete(sess.Values, keyUserName)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.NoContent(http.StatusNoContent)
}

// SessionStatus reports the signed-in user and the last token issued for them.
func (r *Routers) SessionStatus(c echo.Context) error {
	const op = "http.routers.SessionStatus"

	log := r.log.With(
		slog.String("op", op),
	)

	_, user, err := r.browserSession(c)
	if err != nil {
		log.Error("failed to open session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	status := map[string]any{
		"signed_in": user.ID != "",
	}
	if user.ID != "" {
		status["user"] = user
	}

	meta, err := r.IdentityService.Status(c.Request().Context(), user.ID)
	switch {
	case err == nil:
		status["token"] = meta
	case errors.Is(err, identity.ErrNotSignedIn):
	default:
		log.Warn("failed to read token mirror", sl.Err(err))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(status))
}

// errorJSON answers with the status matching the error kind.
func errorJSON(c echo.Context, err error, fallback string) error {
	status := apperror.HTTPStatus(err)

	return c.JSON(status, response.ErrorResponseWithDetails(
		http.StatusText(status),
		apperror.Message(err, fallback),
	))
}
