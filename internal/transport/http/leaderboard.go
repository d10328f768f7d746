package http

import (
	"log/slog"
	"net/http"

	"base_gallery/internal/client/leaderboard"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/transport/http/dto/request"
	"base_gallery/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

func (r *Routers) GlobalLeaderboard(c echo.Context) error {
	const op = "http.routers.GlobalLeaderboard"

	board, err := r.LeaderboardService.Global(c.Request().Context())
	if err != nil {
		r.log.Warn("failed to load leaderboard", slog.String("op", op), sl.Err(err))
		return errorJSON(c, err, "Failed to load leaderboard")
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(board.Items))
}

func (r *Routers) LocalLeaderboard(c echo.Context) error {
	const op = "http.routers.LocalLeaderboard"

	locationID := c.Param("location_id")

	board, err := r.LeaderboardService.Local(c.Request().Context(), locationID)
	if err != nil {
		r.log.Warn("failed to load leaderboard",
			slog.String("op", op),
			slog.String("location_id", locationID),
			sl.Err(err),
		)
		return errorJSON(c, err, "Failed to load leaderboard")
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(board.Items))
}

func (r *Routers) LeaderboardPage(c echo.Context) error {
	const op = "http.routers.LeaderboardPage"

	var req request.LeaderboardPageRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	board, err := r.LeaderboardService.Page(c.Request().Context(), leaderboard.PageParams{
		Limit:  req.Limit,
		Before: req.Before,
		After:  req.After,
	})
	if err != nil {
		r.log.Warn("failed to load leaderboard page", slog.String("op", op), sl.Err(err))
		return errorJSON(c, err, "Failed to load leaderboard")
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(board.Items))
}
