package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"base_gallery/internal/apperror"
	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/imageurl"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/metrics"
)

const (
	DefaultPageSize = 16
	DefaultSort     = "latest"

	defaultErrorMessage = "Failed to load bases. Please try again."
)

// State состояние окна списка
type State int

const (
	StateEmpty State = iota
	StateLoadingInitial
	StateReady
	StateLoadingMore
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoadingInitial:
		return "loading_initial"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading_more"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Lister interface {
	List(ctx context.Context, params models.ListParams) (*models.ItemPage, error)
}

// Window снимок загруженной части списка для активного фильтра
type Window struct {
	Items            []models.Item `json:"items"`
	Page             int           `json:"pageNumber"`
	TotalPages       int           `json:"totalPages"`
	State            State         `json:"state"`
	IsLoadingInitial bool          `json:"isLoadingInitial"`
	IsLoadingMore    bool          `json:"isLoadingMore"`
	HasMore          bool          `json:"hasMore"`
	ActiveFilter     string        `json:"activeFilter"`
	Error            string        `json:"error,omitempty"`
	RetryCount       int           `json:"retryCount"`
}

type Options struct {
	PageSize    int
	Sort        string
	ImageOrigin string
}

// ListService управляет постраничной загрузкой баз.
// Мьютекс никогда не удерживается во время сетевого запроса; результат
// запроса применяется только если его поколение совпадает с текущим.
type ListService struct {
	log      *slog.Logger
	lister   Lister
	pageSize int
	sort     string
	origin   string

	mu         sync.Mutex
	state      State
	items      []models.Item
	seen       map[models.ItemID]struct{}
	page       int
	totalPages int
	hasMore    bool
	month      string
	errMsg     string
	retries    int
	generation uint64
	closed     bool
}

func NewListService(log *slog.Logger, lister Lister, opts Options) *ListService {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Sort == "" {
		opts.Sort = DefaultSort
	}

	return &ListService{
		log:      log,
		lister:   lister,
		pageSize: opts.PageSize,
		sort:     opts.Sort,
		origin:   opts.ImageOrigin,
		seen:     make(map[models.ItemID]struct{}),
	}
}

// Load загружает первую страницу для текущего фильтра (монтирование)
func (s *ListService) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	gen, params := s.resetLocked()
	s.mu.Unlock()

	return s.fetchInitial(ctx, "initial", gen, params)
}

// LoadIfEmpty загружает первую страницу, только если окно еще пустое.
// Проверка и сброс выполняются под одной блокировкой: из нескольких
// одновременных вызовов запрос отправляет только один.
func (s *ListService) LoadIfEmpty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed || s.state != StateEmpty {
		s.mu.Unlock()
		return false, nil
	}
	gen, params := s.resetLocked()
	s.mu.Unlock()

	return true, s.fetchInitial(ctx, "initial", gen, params)
}

// SetFilter переключает месяц. Повторный выбор того же месяца ничего не делает.
func (s *ListService) SetFilter(ctx context.Context, month string) error {
	s.mu.Lock()
	if s.closed || (month == s.month && s.state != StateEmpty) {
		s.mu.Unlock()
		return nil
	}
	s.month = month
	gen, params := s.resetLocked()
	s.mu.Unlock()

	s.log.Info("filter changed", slog.String("month", month))

	return s.fetchInitial(ctx, "filter", gen, params)
}

// Invalidate перезагружает список с первой страницы, например после изменения базы
func (s *ListService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	gen, params := s.resetLocked()
	s.mu.Unlock()

	return s.fetchInitial(ctx, "invalidate", gen, params)
}

// Retry повторяет первую загрузку с теми же параметрами. Работает только из состояния ошибки.
func (s *ListService) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.state != StateError {
		s.mu.Unlock()
		return nil
	}
	s.retries++
	gen, params := s.resetLocked()
	s.mu.Unlock()

	return s.fetchInitial(ctx, "retry", gen, params)
}

// LoadMore дозагружает следующую страницу. Запрос, пришедший во время другой
// загрузки или когда страниц больше нет, отбрасывается: возвращается false.
func (s *ListService) LoadMore(ctx context.Context) (bool, error) {
	const op = "service.ListService.LoadMore"

	s.mu.Lock()
	if s.closed || s.state != StateReady || !s.hasMore {
		s.mu.Unlock()
		return false, nil
	}
	s.state = StateLoadingMore
	gen := s.generation
	next := s.page + 1
	params := s.paramsLocked(next)
	s.mu.Unlock()

	log := s.log.With(
		slog.String("op", op),
		slog.Int("page", next),
		slog.String("month", params.Month),
	)

	page, err := s.lister.List(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		log.Debug("discarding stale page")
		metrics.ListFetchesTotal.WithLabelValues("more", "stale").Inc()
		return false, nil
	}

	if err != nil {
		s.failLocked(err)
		log.Error("failed to load more", sl.Err(err))
		metrics.ListFetchesTotal.WithLabelValues("more", "error").Inc()
		return true, fmt.Errorf("%s: %w", op, err)
	}

	s.appendLocked(page.Items)
	s.page = next
	s.totalPages = page.TotalPages
	s.hasMore = s.page < s.totalPages
	s.state = StateReady

	log.Debug("page loaded", slog.Int("items", len(s.items)), slog.Bool("has_more", s.hasMore))
	metrics.ListFetchesTotal.WithLabelValues("more", "ok").Inc()

	return true, nil
}

// Close отключает окно: результаты незавершенных запросов будут отброшены
func (s *ListService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.closed = true
	s.state = StateEmpty
	s.items = nil
	s.seen = make(map[models.ItemID]struct{})
	s.hasMore = false
}

// Snapshot возвращает копию текущего окна
func (s *ListService) Snapshot() Window {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.Item, len(s.items))
	copy(items, s.items)

	return Window{
		Items:            items,
		Page:             s.page,
		TotalPages:       s.totalPages,
		State:            s.state,
		IsLoadingInitial: s.state == StateLoadingInitial,
		IsLoadingMore:    s.state == StateLoadingMore,
		HasMore:          s.hasMore,
		ActiveFilter:     s.month,
		Error:            s.errMsg,
		RetryCount:       s.retries,
	}
}

func (s *ListService) fetchInitial(ctx context.Context, kind string, gen uint64, params models.ListParams) error {
	const op = "service.ListService.fetchInitial"

	log := s.log.With(
		slog.String("op", op),
		slog.String("kind", kind),
		slog.String("month", params.Month),
	)

	page, err := s.lister.List(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		log.Debug("discarding stale page")
		metrics.ListFetchesTotal.WithLabelValues(kind, "stale").Inc()
		return nil
	}

	if err != nil {
		s.failLocked(err)
		log.Error("failed to load bases", sl.Err(err))
		metrics.ListFetchesTotal.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	s.appendLocked(page.Items)
	s.page = 1
	s.totalPages = page.TotalPages
	s.hasMore = s.page < s.totalPages
	s.state = StateReady

	log.Debug("bases loaded", slog.Int("items", len(s.items)), slog.Int("total_pages", s.totalPages))
	metrics.ListFetchesTotal.WithLabelValues(kind, "ok").Inc()

	return nil
}

func (s *ListService) resetLocked() (uint64, models.ListParams) {
	s.generation++
	s.state = StateLoadingInitial
	s.items = nil
	s.seen = make(map[models.ItemID]struct{})
	s.page = 1
	s.totalPages = 0
	s.hasMore = false
	s.errMsg = ""

	return s.generation, s.paramsLocked(1)
}

func (s *ListService) paramsLocked(page int) models.ListParams {
	return models.ListParams{
		Page:  page,
		Limit: s.pageSize,
		Sort:  s.sort,
		Month: s.month,
	}
}

func (s *ListService) failLocked(err error) {
	s.state = StateError
	s.hasMore = false
	s.errMsg = apperror.Message(err, defaultErrorMessage)
}

// appendLocked keeps server order and skips ids already in the window.
func (s *ListService) appendLocked(items []models.Item) {
	for _, item := range items {
		if _, dup := s.seen[item.ID]; dup {
			continue
		}
		s.seen[item.ID] = struct{}{}

		item.ImageURL, _ = imageurl.Normalize(item.ImageRef, s.origin)
		s.items = append(s.items, item)
	}
}
