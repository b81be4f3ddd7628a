package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/productboard/internal/api/middleware"
	"github.com/aaravmahajanofficial/productboard/internal/cache"
	appErrors "github.com/aaravmahajanofficial/productboard/internal/errors"
	"github.com/aaravmahajanofficial/productboard/internal/metrics"
	"github.com/aaravmahajanofficial/productboard/internal/models"
	repository "github.com/aaravmahajanofficial/productboard/internal/repositories"
	"github.com/aaravmahajanofficial/productboard/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	createTarget = "draft:create"
	listKey      = "list"
)

var tracer = otel.Tracer("github.com/aaravmahajanofficial/productboard/internal/services")

type BoardService interface {
	// Remote sync
	Refresh(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, draft models.Draft) (*models.Product, error)
	Update(ctx context.Context, id string, draft models.Draft) (*models.Product, error)
	Remove(ctx context.Context, id string) error

	// Draft
	SetDraftField(field, value string) error
	BeginEdit(id string) error
	CancelEdit()
	Submit(ctx context.Context) (*models.Product, error)

	// View
	SetSearchTerm(term string)
	NextPage()
	PreviousPage()
	GoToPage(page int)
	Show(id string) (models.Product, error)

	State() State
	Page() models.Page
}

type BoardOptions struct {
	ItemsPerPage      int
	ResetPageOnSearch bool
}

type boardService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	validator *validation.Validator
	opts      BoardOptions

	mu    sync.Mutex
	state State

	// mutations in flight, keyed by target
	pendingMu sync.Mutex
	pending   map[string]struct{}

	lists singleflight.Group

	// cacheGen is bumped on every invalidation; a list fetched under an older
	// generation is not written back.
	cacheMu  sync.Mutex
	cacheGen uint64
}

// NewBoardService wires a board to repo. A nil cache disables response caching.
func NewBoardService(repo repository.ProductRepository, c cache.Cache, opts BoardOptions) BoardService {
	if c == nil {
		c = cache.NewNopCache()
	}

	return &boardService{
		repo:      repo,
		cache:     c,
		validator: validation.New(),
		opts:      opts,
		state:     NewState(opts.ItemsPerPage),
		pending:   make(map[string]struct{}),
	}
}

func (s *boardService) dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)

	return s.state
}

func (s *boardService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *boardService) Page() models.Page {
	return s.State().Page()
}

// Refresh replaces the cached list with the server's. On failure the list is
// emptied and the SyncError returned. Concurrent calls share one request; each
// caller still stops waiting when its own ctx is done.
func (s *boardService) Refresh(ctx context.Context) ([]models.Product, error) {

	ctx, _ = middleware.WithCorrelationID(ctx)
	ctx, span := tracer.Start(ctx, "board.Refresh")
	defer span.End()

	logger := middleware.LoggerFromContext(ctx)

	// the shared call must outlive any single caller
	shared := context.WithoutCancel(ctx)
	ch := s.lists.DoChan(listKey, func() (any, error) {
		return s.fetchList(shared)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = appErrors.TransportError("Products list request cancelled").WithError(ctx.Err())
	}
	span.SetAttributes(attribute.Bool("productboard.list.shared", res.Shared))

	if res.Err != nil {
		logger.Error("Failed to fetch products", slog.String("error", res.Err.Error()))
		s.fail(span, SyncFailed{Message: res.Err.Error(), ClearProducts: true}, res.Err)
		return []models.Product{}, res.Err
	}

	products := res.Val.([]models.Product)
	s.dispatch(ProductsLoaded{Products: products})

	return products, nil
}

func (s *boardService) fetchList(ctx context.Context) ([]models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)

	gen := s.generation()

	var cached []models.Product
	found, err := s.cache.Get(ctx, cache.ProductListKey, &cached)
	if err != nil {
		logger.Warn("Product list cache read failed", slog.String("error", err.Error()))
	}
	if found {
		logger.Debug("Product list served from cache", slog.Int("count", len(cached)))
		return cached, nil
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cacheGen != gen {
		logger.Debug("Product list changed during fetch, not caching")
		return products, nil
	}

	if err := s.cache.Set(ctx, cache.ProductListKey, products, 0); err != nil {
		logger.Warn("Product list cache write failed", slog.String("error", err.Error()))
	}

	return products, nil
}

func (s *boardService) Create(ctx context.Context, draft models.Draft) (*models.Product, error) {

	ctx, _ = middleware.WithCorrelationID(ctx)
	ctx, span := tracer.Start(ctx, "board.Create")
	defer span.End()

	payload, result := s.validator.Payload(draft)
	s.dispatch(DraftValidated{Result: result})
	if result != nil {
		return nil, s.rejectDraft(span, result)
	}

	release, err := s.acquire(ctx, createTarget, "create")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer release()

	product, err := s.repo.CreateProduct(ctx, payload)
	if err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to create product", slog.String("error", err.Error()))
		s.fail(span, SyncFailed{Message: err.Error()}, err)
		return nil, err
	}

	s.invalidate(ctx)
	s.dispatch(ProductCreated{Product: *product})

	middleware.LoggerFromContext(ctx).Info("Product created successfully", slog.String("productId", product.ID))

	return product, nil
}

func (s *boardService) Update(ctx context.Context, id string, draft models.Draft) (*models.Product, error) {

	ctx, _ = middleware.WithCorrelationID(ctx)
	ctx, span := tracer.Start(ctx, "board.Update", trace.WithAttributes(attribute.String("productboard.product.id", id)))
	defer span.End()

	payload, result := s.validator.Payload(draft)
	s.dispatch(DraftValidated{Result: result})
	if result != nil {
		return nil, s.rejectDraft(span, result)
	}

	release, err := s.acquire(ctx, cache.Key(cache.ProductKeyPrefix, id), "update")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer release()

	product, err := s.repo.UpdateProduct(ctx, id, payload)
	if err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to update product", slog.String("productId", id), slog.String("error", err.Error()))
		s.fail(span, SyncFailed{Message: err.Error()}, err)
		return nil, err
	}

	s.invalidate(ctx)
	s.dispatch(ProductUpdated{ID: id, Product: *product})

	middleware.LoggerFromContext(ctx).Info("Product updated successfully", slog.String("productId", product.ID))

	return product, nil
}

func (s *boardService) Remove(ctx context.Context, id string) error {

	ctx, _ = middleware.WithCorrelationID(ctx)
	ctx, span := tracer.Start(ctx, "board.Remove", trace.WithAttributes(attribute.String("productboard.product.id", id)))
	defer span.End()

	release, err := s.acquire(ctx, cache.Key(cache.ProductKeyPrefix, id), "remove")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer release()

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to delete product", slog.String("productId", id), slog.String("error", err.Error()))
		s.fail(span, SyncFailed{Message: err.Error()}, err)
		return err
	}

	s.invalidate(ctx)
	s.dispatch(ProductRemoved{ID: id})

	middleware.LoggerFromContext(ctx).Info("Product deleted successfully", slog.String("productId", id))

	return nil
}

func (s *boardService) SetDraftField(field, value string) error {
	switch field {
	case models.FieldName, models.FieldWeight, models.FieldPrice:
		s.dispatch(SetDraftField{Field: field, Value: value})
		return nil
	default:
		return appErrors.ValidationError("Unknown draft field").WithDetail(field)
	}
}

func (s *boardService) BeginEdit(id string) error {
	if _, ok := s.State().Find(id); !ok {
		return appErrors.NotFoundError("Product not found").WithDetail(id)
	}

	s.dispatch(BeginEdit{ID: id})

	return nil
}

func (s *boardService) CancelEdit() {
	s.dispatch(CancelEdit{})
}

// Submit creates the draft in create mode and updates the bound product in
// edit mode. An invalid draft never reaches the network.
func (s *boardService) Submit(ctx context.Context) (*models.Product, error) {

	draft := s.State().Draft

	if draft.IsEditing() {
		return s.Update(ctx, draft.EditingID, draft)
	}

	return s.Create(ctx, draft)
}

func (s *boardService) SetSearchTerm(term string) {
	s.dispatch(SetSearch{Term: term, ResetPage: s.opts.ResetPageOnSearch})
}

func (s *boardService) NextPage() {
	s.dispatch(NextPage{})
}

func (s *boardService) PreviousPage() {
	s.dispatch(PreviousPage{})
}

func (s *boardService) GoToPage(page int) {
	s.dispatch(GoToPage{Page: page})
}

func (s *boardService) Show(id string) (models.Product, error) {
	p, ok := s.State().Find(id)
	if !ok {
		return models.Product{}, appErrors.NotFoundError("Product not found").WithDetail(id)
	}

	return p, nil
}

// acquire claims target for one mutation. A second claim fails until release
// is called.
func (s *boardService) acquire(ctx context.Context, target, operation string) (func(), error) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if _, busy := s.pending[target]; busy {
		metrics.RecordRejected(operation)
		middleware.LoggerFromContext(ctx).Warn("Rejected concurrent mutation", slog.String("target", target), slog.String("operation", operation))
		return nil, appErrors.OperationInFlightError(target)
	}

	s.pending[target] = struct{}{}

	return func() {
		s.pendingMu.Lock()
		delete(s.pending, target)
		s.pendingMu.Unlock()
	}, nil
}

func (s *boardService) rejectDraft(span trace.Span, result models.ValidationResult) error {
	span.SetStatus(codes.Error, "draft validation failed")

	return appErrors.NewDraftValidationError(result)
}

func (s *boardService) fail(span trace.Span, a SyncFailed, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.dispatch(a)
}

func (s *boardService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	return s.cacheGen
}

// invalidate drops the cached list after a mutation. Refreshes started later
// issue a new request instead of joining one already in flight.
func (s *boardService) invalidate(ctx context.Context) {
	s.lists.Forget(listKey)

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cacheGen++

	if err := s.cache.Delete(ctx, cache.ProductListKey); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Product list cache invalidation failed", slog.String("error", err.Error()))
	}
}
