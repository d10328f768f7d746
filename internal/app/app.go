package app

import (
	"context"
	"log/slog"
	"time"

	httpapp "base_gallery/internal/app/http"
	"base_gallery/internal/client/gallery"
	"base_gallery/internal/client/leaderboard"
	"base_gallery/internal/config"
	"base_gallery/internal/lib/imageurl"
	"base_gallery/internal/lib/jwt"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/repository"
	redisapp "base_gallery/internal/storage/redis"
	httprouters "base_gallery/internal/transport/http"

	identity "base_gallery/internal/services/identity_service"
	list "base_gallery/internal/services/list_service"
	month "base_gallery/internal/services/month_service"
	mutation "base_gallery/internal/services/mutation_service"
)

type App struct {
	HTTPServer *httpapp.Server
	Lists      *list.Registry
	redis      *redisapp.Client
}

func New(log *slog.Logger, cfg *config.Config) *App {
	galleryClient := gallery.New(log, cfg.APIURL, gallery.Options{
		Timeout:         cfg.Client.Timeout,
		UploadTimeout:   cfg.Client.UploadTimeout,
		LegacyEnvelopes: cfg.Client.LegacyEnvelopes,
		MaxRetries:      cfg.Client.Retry.MaxAttempts,
		InitialInterval: cfg.Client.Retry.InitialInterval,
	})
	leaderboardClient := leaderboard.New(log, cfg.APIURL, cfg.Leaderboard.Token, nil)

	origin := imageurl.Origin(cfg.APIURL)

	lists := list.NewRegistry(cfg.Session.IdleTTL, func() *list.ListService {
		return list.NewListService(log, galleryClient, list.Options{
			PageSize:    cfg.List.PageSize,
			Sort:        cfg.List.Sort,
			ImageOrigin: origin,
		})
	})

	var (
		mirror      repository.TokenRepository
		redisClient *redisapp.Client
	)
	if cfg.Redis.RedisAddr != "" {
		redisClient = redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := redisClient.HealthCheck(ctx); err != nil {
			log.Warn("redis is not reachable, token mirror writes will fail", sl.Err(err))
		}

		mirror = repository.NewRedisTokenRepo(redisClient)
	} else {
		mirror = repository.NewMemoryTokenRepo(cfg.Identity.TokenTTL)
	}

	identityService := identity.NewIdentityService(log, jwt.NewIssuer(cfg.Identity.Secret, cfg.Identity.TokenTTL), mirror)
	mutationService := mutation.NewMutationService(log, galleryClient)
	monthService := month.NewMonthService(log, galleryClient, cfg.Months.CacheTTL)

	routers := httprouters.NewRouter(
		log,
		lists,
		galleryClient,
		mutationService,
		identityService,
		monthService,
		leaderboardClient,
		origin,
	)

	server := httpapp.New(log, cfg.Session.Secret, cfg.HTTP.Host, cfg.HTTP.Port, routers)
	server.BuildRouters()

	return &App{
		HTTPServer: server,
		Lists:      lists,
		redis:      redisClient,
	}
}

// Stop shuts the server down and releases session windows and connections.
func (a *App) Stop() error {
	err := a.HTTPServer.Stop()

	a.Lists.Close()

	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}
