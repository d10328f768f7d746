package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"base_gallery/internal/apperror"
	"base_gallery/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testCtx = context.Background()

type MockLister struct {
	mock.Mock
}

func (m *MockLister) List(ctx context.Context, params models.ListParams) (*models.ItemPage, error) {
	args := m.Called(ctx, params)
	page, _ := args.Get(0).(*models.ItemPage)
	return page, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makePage(page, totalPages, size int, prefix string) *models.ItemPage {
	items := make([]models.Item, 0, size)
	for i := 0; i < size; i++ {
		items = append(items, models.Item{
			ID:       models.ItemID(fmt.Sprintf("%s-%d-%d", prefix, page, i)),
			Title:    fmt.Sprintf("base %d", i),
			ImageRef: fmt.Sprintf("p%d-%d.png", page, i),
		})
	}
	return &models.ItemPage{Items: items, Page: page, TotalPages: totalPages}
}

func params(page int, month string) models.ListParams {
	return models.ListParams{Page: page, Limit: 16, Sort: "latest", Month: month}
}

func newService(lister Lister) *ListService {
	return NewListService(testLogger(), lister, Options{ImageOrigin: "http://h"})
}

func TestListService_ScrollThroughThreePages(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	lister.On("List", testCtx, params(1, "")).Return(makePage(1, 3, 16, "x"), nil).Once()
	lister.On("List", testCtx, params(2, "")).Return(makePage(2, 3, 16, "x"), nil).Once()
	lister.On("List", testCtx, params(3, "")).Return(makePage(3, 3, 16, "x"), nil).Once()

	require.NoError(t, svc.Load(testCtx))

	w := svc.Snapshot()
	assert.Equal(t, StateReady, w.State)
	assert.Len(t, w.Items, 16)
	assert.Equal(t, 1, w.Page)
	assert.True(t, w.HasMore)
	assert.Equal(t, "http://h/uploads/p1-0.png", w.Items[0].ImageURL)

	dispatched, err := svc.LoadMore(testCtx)
	require.NoError(t, err)
	assert.True(t, dispatched)

	w = svc.Snapshot()
	assert.Len(t, w.Items, 32)
	assert.Equal(t, 2, w.Page)
	assert.True(t, w.HasMore)

	dispatched, err = svc.LoadMore(testCtx)
	require.NoError(t, err)
	assert.True(t, dispatched)

	w = svc.Snapshot()
	assert.Len(t, w.Items, 48)
	assert.Equal(t, 3, w.Page)
	assert.False(t, w.HasMore)

	dispatched, err = svc.LoadMore(testCtx)
	require.NoError(t, err)
	assert.False(t, dispatched)

	ids := make(map[models.ItemID]bool)
	for _, item := range svc.Snapshot().Items {
		assert.False(t, ids[item.ID], "duplicate id %s", item.ID)
		ids[item.ID] = true
	}

	lister.AssertExpectations(t)
	lister.AssertNumberOfCalls(t, "List", 3)
}

func TestListService_LoadMoreKeepsServerOrderAndSkipsDuplicates(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	first := &models.ItemPage{Items: []models.Item{{ID: "3"}, {ID: "2"}}, TotalPages: 2}
	second := &models.ItemPage{Items: []models.Item{{ID: "2"}, {ID: "9"}, {ID: "1"}}, TotalPages: 2}

	lister.On("List", testCtx, params(1, "")).Return(first, nil).Once()
	lister.On("List", testCtx, params(2, "")).Return(second, nil).Once()

	require.NoError(t, svc.Load(testCtx))
	_, err := svc.LoadMore(testCtx)
	require.NoError(t, err)

	var got []models.ItemID
	for _, item := range svc.Snapshot().Items {
		got = append(got, item.ID)
	}
	assert.Equal(t, []models.ItemID{"3", "2", "9", "1"}, got)
}

func TestListService_LoadMoreWhenNotReadyIsDropped(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	dispatched, err := svc.LoadMore(testCtx)
	assert.NoError(t, err)
	assert.False(t, dispatched)
	assert.Equal(t, StateEmpty, svc.Snapshot().State)

	lister.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListService_ErrorAndRetry(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	lister.On("List", testCtx, params(1, "")).
		Return(nil, apperror.FromStatus(500, "Failed to fetch bases")).Once()
	lister.On("List", testCtx, params(1, "")).
		Return(makePage(1, 1, 4, "r"), nil).Once()

	err := svc.Load(testCtx)
	assert.ErrorIs(t, err, apperror.ErrServer)

	w := svc.Snapshot()
	assert.Equal(t, StateError, w.State)
	assert.Equal(t, "Failed to fetch bases", w.Error)
	assert.Empty(t, w.Items)

	dispatched, err := svc.LoadMore(testCtx)
	assert.NoError(t, err)
	assert.False(t, dispatched)

	require.NoError(t, svc.Retry(testCtx))

	w = svc.Snapshot()
	assert.Equal(t, StateReady, w.State)
	assert.Equal(t, 1, w.RetryCount)
	assert.Empty(t, w.Error)
	assert.Len(t, w.Items, 4)
	assert.False(t, w.HasMore)

	// retry outside of the error state is a no-op
	require.NoError(t, svc.Retry(testCtx))
	assert.Equal(t, 1, svc.Snapshot().RetryCount)

	lister.AssertExpectations(t)
}

func TestListService_LoadMoreFailureKeepsItems(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	lister.On("List", testCtx, params(1, "")).Return(makePage(1, 2, 3, "k"), nil).Once()
	lister.On("List", testCtx, params(2, "")).Return(nil, apperror.Network(errors.New("reset"))).Once()

	require.NoError(t, svc.Load(testCtx))

	dispatched, err := svc.LoadMore(testCtx)
	assert.True(t, dispatched)
	assert.ErrorIs(t, err, apperror.ErrNetwork)

	w := svc.Snapshot()
	assert.Equal(t, StateError, w.State)
	assert.Len(t, w.Items, 3)
	assert.NotEmpty(t, w.Error)
}

func TestListService_SetFilterResets(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	lister.On("List", testCtx, params(1, "")).Return(makePage(1, 3, 16, "all"), nil).Once()
	lister.On("List", testCtx, params(2, "")).Return(makePage(2, 3, 16, "all"), nil).Once()
	lister.On("List", testCtx, params(1, "2024-05")).Return(makePage(1, 1, 5, "may"), nil).Once()

	require.NoError(t, svc.Load(testCtx))
	_, err := svc.LoadMore(testCtx)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Snapshot().Page)

	require.NoError(t, svc.SetFilter(testCtx, "2024-05"))

	w := svc.Snapshot()
	assert.Equal(t, 1, w.Page)
	assert.Equal(t, "2024-05", w.ActiveFilter)
	assert.Len(t, w.Items, 5)
	assert.False(t, w.HasMore)
	for _, item := range w.Items {
		assert.Contains(t, string(item.ID), "may")
	}

	// same filter again does not refetch
	require.NoError(t, svc.SetFilter(testCtx, "2024-05"))
	lister.AssertExpectations(t)
	lister.AssertNumberOfCalls(t, "List", 3)
}

// gatedLister blocks every call until the test releases it.
type gatedLister struct {
	mu      sync.Mutex
	calls   []models.ListParams
	started chan models.ListParams
	release map[int]chan *models.ItemPage
}

func newGatedLister() *gatedLister {
	return &gatedLister{
		started: make(chan models.ListParams, 8),
		release: make(map[int]chan *models.ItemPage),
	}
}

func (g *gatedLister) gate(call int) chan *models.ItemPage {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.release[call]
	if !ok {
		ch = make(chan *models.ItemPage, 1)
		g.release[call] = ch
	}
	return ch
}

func (g *gatedLister) List(ctx context.Context, p models.ListParams) (*models.ItemPage, error) {
	g.mu.Lock()
	g.calls = append(g.calls, p)
	n := len(g.calls)
	g.mu.Unlock()

	g.started <- p
	return <-g.gate(n), nil
}

func (g *gatedLister) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func TestListService_ConcurrentLoadMoreIsDropped(t *testing.T) {
	lister := newGatedLister()
	svc := newService(lister)

	lister.gate(1) <- makePage(1, 3, 16, "c")
	require.NoError(t, svc.Load(testCtx))
	<-lister.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatched, err := svc.LoadMore(testCtx)
		assert.NoError(t, err)
		assert.True(t, dispatched)
	}()
	<-lister.started

	before := svc.Snapshot()
	assert.True(t, before.IsLoadingMore)

	dispatched, err := svc.LoadMore(testCtx)
	assert.NoError(t, err)
	assert.False(t, dispatched)
	assert.Equal(t, before, svc.Snapshot())
	assert.Equal(t, 2, lister.callCount())

	lister.gate(2) <- makePage(2, 3, 16, "c")
	<-done

	assert.Len(t, svc.Snapshot().Items, 32)
}

func TestListService_FilterSwitchDiscardsInFlightLoadMore(t *testing.T) {
	lister := newGatedLister()
	svc := newService(lister)

	lister.gate(1) <- makePage(1, 3, 16, "all")
	require.NoError(t, svc.Load(testCtx))
	<-lister.started

	moreDone := make(chan bool)
	go func() {
		dispatched, _ := svc.LoadMore(testCtx)
		moreDone <- dispatched
	}()
	<-lister.started

	filterDone := make(chan error)
	go func() {
		filterDone <- svc.SetFilter(testCtx, "2024-04")
	}()
	<-lister.started

	w := svc.Snapshot()
	assert.Equal(t, StateLoadingInitial, w.State)
	assert.Empty(t, w.Items)
	assert.Equal(t, 1, w.Page)

	// the stale page arrives first and must be ignored
	lister.gate(2) <- makePage(2, 3, 16, "all")
	assert.False(t, <-moreDone)
	assert.Equal(t, StateLoadingInitial, svc.Snapshot().State)

	lister.gate(3) <- makePage(1, 1, 2, "apr")
	require.NoError(t, <-filterDone)

	w = svc.Snapshot()
	assert.Equal(t, StateReady, w.State)
	assert.Equal(t, "2024-04", w.ActiveFilter)
	require.Len(t, w.Items, 2)
	assert.Contains(t, string(w.Items[0].ID), "apr")
}

func TestListService_CloseDiscardsResults(t *testing.T) {
	lister := newGatedLister()
	svc := newService(lister)

	done := make(chan error)
	go func() {
		done <- svc.Load(testCtx)
	}()
	<-lister.started

	svc.Close()
	lister.gate(1) <- makePage(1, 2, 16, "z")
	require.NoError(t, <-done)

	w := svc.Snapshot()
	assert.Equal(t, StateEmpty, w.State)
	assert.Empty(t, w.Items)

	require.NoError(t, svc.Load(testCtx))
	assert.Equal(t, 1, lister.callCount())
}

func TestListService_InvalidateRefetchesFirstPage(t *testing.T) {
	lister := new(MockLister)
	svc := newService(lister)

	withDeleted := &models.ItemPage{Items: []models.Item{{ID: "1"}, {ID: "2"}}, TotalPages: 1}
	withoutDeleted := &models.ItemPage{Items: []models.Item{{ID: "1"}}, TotalPages: 1}

	lister.On("List", testCtx, params(1, "")).Return(withDeleted, nil).Once()
	lister.On("List", testCtx, params(1, "")).Return(withoutDeleted, nil).Once()

	require.NoError(t, svc.Load(testCtx))
	require.NoError(t, svc.Invalidate(testCtx))

	w := svc.Snapshot()
	require.Len(t, w.Items, 1)
	assert.Equal(t, models.ItemID("1"), w.Items[0].ID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading_more", StateLoadingMore.String())

	text, err := StateReady.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ready", string(text))
}

func TestListService_LoadIfEmptyDispatchesOnce(t *testing.T) {
	lister := newGatedLister()
	svc := newService(lister)

	results := make(chan bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatched, err := svc.LoadIfEmpty(testCtx)
			assert.NoError(t, err)
			results <- dispatched
		}()
	}

	<-lister.started
	lister.gate(1) <- makePage(1, 2, 16, "e")
	wg.Wait()
	close(results)

	dispatchedCount := 0
	for dispatched := range results {
		if dispatched {
			dispatchedCount++
		}
	}
	assert.Equal(t, 1, dispatchedCount)
	assert.Equal(t, 1, lister.callCount())
	assert.Equal(t, StateReady, svc.Snapshot().State)

	dispatched, err := svc.LoadIfEmpty(testCtx)
	assert.NoError(t, err)
	assert.False(t, dispatched)
	assert.Equal(t, 1, lister.callCount())
}
