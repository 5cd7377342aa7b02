// Package httpapi exposes the analytics queries over HTTP. Every endpoint is
// a read; results are rendered as JSON and failures are mapped from the
// analytics error taxonomy onto HTTP status codes.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/allbooks"
	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/bookcopiesstatus"
	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/bookreadingrate"
	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/mostborrowedbooks"
	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/otherbooksborrowed"
	"github.com/libretrack/borrowing-analytics-go/analytics/features/query/userborrowedbooks"
	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 499 is the de-facto status for requests abandoned by the client.
const statusClientClosedRequest = 499

// API wires the query handlers to HTTP routes.
type API struct {
	allBooks     allbooks.QueryHandler
	copiesStatus bookcopiesstatus.QueryHandler
	readingRate  bookreadingrate.QueryHandler
	userBorrowed userborrowedbooks.QueryHandler
	mostBorrowed mostborrowedbooks.QueryHandler
	coBorrowed   otherbooksborrowed.QueryHandler
	logger       shell.Logger
}

// Option configures the API and the query handlers it builds.
type Option func(*apiOptions)

type apiOptions struct {
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
	maxConcurrency   int
}

// WithMetrics sets the metrics collector for all query handlers.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(o *apiOptions) { o.metricsCollector = collector }
}

// WithTracing sets the tracing collector for all query handlers.
func WithTracing(collector shell.TracingCollector) Option {
	return func(o *apiOptions) { o.tracingCollector = collector }
}

// WithContextualLogging sets the contextual logger for all query handlers.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(o *apiOptions) { o.contextualLogger = logger }
}

// WithLogging sets the basic logger for all query handlers and the API itself.
func WithLogging(logger shell.Logger) Option {
	return func(o *apiOptions) { o.logger = logger }
}

// WithMaxConcurrency caps the worker count of the co-borrowing query.
// Zero keeps the handler's default; the handler rejects negative values.
func WithMaxConcurrency(limit int) Option {
	return func(o *apiOptions) { o.maxConcurrency = limit }
}

// New builds the API with one query handler per endpoint, all reading from
// the same record store.
func New(store shell.ReadsRecords, opts ...Option) (*API, error) {
	var o apiOptions
	for _, opt := range opts {
		opt(&o)
	}

	allBooksHandler, err := allbooks.NewQueryHandler(store,
		allbooks.WithMetrics(o.metricsCollector),
		allbooks.WithTracing(o.tracingCollector),
		allbooks.WithContextualLogging(o.contextualLogger),
		allbooks.WithLogging(o.logger))
	if err != nil {
		return nil, fmt.Errorf("building all-books handler: %w", err)
	}

	copiesStatusHandler, err := bookcopiesstatus.NewQueryHandler(store,
		bookcopiesstatus.WithMetrics(o.metricsCollector),
		bookcopiesstatus.WithTracing(o.tracingCollector),
		bookcopiesstatus.WithContextualLogging(o.contextualLogger),
		bookcopiesstatus.WithLogging(o.logger))
	if err != nil {
		return nil, fmt.Errorf("building copies-status handler: %w", err)
	}

	readingRateHandler, err := bookreadingrate.NewQueryHandler(store,
		bookreadingrate.WithMetrics(o.metricsCollector),
		bookreadingrate.WithTracing(o.tracingCollector),
		bookreadingrate.WithContextualLogging(o.contextualLogger),
		bookreadingrate.WithLogging(o.logger))
	if err != nil {
		return nil, fmt.Errorf("building reading-rate handler: %w", err)
	}

	userBorrowedHandler, err := userborrowedbooks.NewQueryHandler(store,
		userborrowedbooks.WithMetrics(o.metricsCollector),
		userborrowedbooks.WithTracing(o.tracingCollector),
		userborrowedbooks.WithContextualLogging(o.contextualLogger),
		userborrowedbooks.WithLogging(o.logger))
	if err != nil {
		return nil, fmt.Errorf("building user-borrowed-books handler: %w", err)
	}

	mostBorrowedHandler, err := mostborrowedbooks.NewQueryHandler(store,
		mostborrowedbooks.WithMetrics(o.metricsCollector),
		mostborrowedbooks.WithTracing(o.tracingCollector),
		mostborrowedbooks.WithContextualLogging(o.contextualLogger),
		mostborrowedbooks.WithLogging(o.logger))
	if err != nil {
		return nil, fmt.Errorf("building most-borrowed-books handler: %w", err)
	}

	coBorrowedOpts := []otherbooksborrowed.Option{
		otherbooksborrowed.WithMetrics(o.metricsCollector),
		otherbooksborrowed.WithTracing(o.tracingCollector),
		otherbooksborrowed.WithContextualLogging(o.contextualLogger),
		otherbooksborrowed.WithLogging(o.logger),
	}
	if o.maxConcurrency > 0 {
		coBorrowedOpts = append(coBorrowedOpts, otherbooksborrowed.WithMaxConcurrency(o.maxConcurrency))
	}

	coBorrowedHandler, err := otherbooksborrowed.NewQueryHandler(store, coBorrowedOpts...)
	if err != nil {
		return nil, fmt.Errorf("building co-borrowed handler: %w", err)
	}

	return &API{
		allBooks:     allBooksHandler,
		copiesStatus: copiesStatusHandler,
		readingRate:  readingRateHandler,
		userBorrowed: userBorrowedHandler,
		mostBorrowed: mostBorrowedHandler,
		coBorrowed:   coBorrowedHandler,
		logger:       o.logger,
	}, nil
}

// Router builds the HTTP route table.
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/books", a.handleAllBooks).Methods(http.MethodGet)
	router.HandleFunc("/api/books/most-borrowed", a.handleMostBorrowed).Methods(http.MethodGet)
	router.HandleFunc("/api/books/{bookId}/copies-status", a.handleCopiesStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/books/{bookId}/reading-rate", a.handleReadingRate).Methods(http.MethodGet)
	router.HandleFunc("/api/books/{bookId}/co-borrowed", a.handleCoBorrowed).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{userId}/borrowed-books", a.handleUserBorrowed).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

func (a *API) handleAllBooks(w http.ResponseWriter, r *http.Request) {
	result, err := a.allBooks.Handle(r.Context(), allbooks.BuildQuery())
	a.respond(w, result, err)
}

func (a *API) handleCopiesStatus(w http.ResponseWriter, r *http.Request) {
	result, err := a.copiesStatus.Handle(r.Context(), bookcopiesstatus.BuildQuery(mux.Vars(r)["bookId"]))
	a.respond(w, result, err)
}

func (a *API) handleReadingRate(w http.ResponseWriter, r *http.Request) {
	result, err := a.readingRate.Handle(r.Context(), bookreadingrate.BuildQuery(mux.Vars(r)["bookId"]))
	a.respond(w, result, err)
}

func (a *API) handleCoBorrowed(w http.ResponseWriter, r *http.Request) {
	result, err := a.coBorrowed.Handle(r.Context(), otherbooksborrowed.BuildQuery(mux.Vars(r)["bookId"]))
	a.respond(w, result, err)
}

func (a *API) handleUserBorrowed(w http.ResponseWriter, r *http.Request) {
	startTime, err := parseTimeParam(r, "from")
	if err != nil {
		a.respondError(w, shell.InvalidArgumentError(err.Error()))
		return
	}

	endTime, err := parseTimeParam(r, "to")
	if err != nil {
		a.respondError(w, shell.InvalidArgumentError(err.Error()))
		return
	}

	query := userborrowedbooks.BuildQuery(mux.Vars(r)["userId"], startTime, endTime)
	result, handleErr := a.userBorrowed.Handle(r.Context(), query)
	a.respond(w, result, handleErr)
}

func (a *API) handleMostBorrowed(w http.ResponseWriter, r *http.Request) {
	startTime, err := parseTimeParam(r, "from")
	if err != nil {
		a.respondError(w, shell.InvalidArgumentError(err.Error()))
		return
	}

	endTime, err := parseTimeParam(r, "to")
	if err != nil {
		a.respondError(w, shell.InvalidArgumentError(err.Error()))
		return
	}

	query := mostborrowedbooks.BuildQuery()
	if !startTime.IsZero() || !endTime.IsZero() {
		query = mostborrowedbooks.BuildQueryWithWindow(startTime, endTime)
	}

	result, handleErr := a.mostBorrowed.Handle(r.Context(), query)
	a.respond(w, result, handleErr)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// parseTimeParam reads an optional RFC3339 query parameter. An absent
// parameter yields the zero time; the query handlers decide whether that is
// acceptable.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parameter %q must be RFC3339: %s", name, raw)
	}

	return parsed.UTC(), nil
}

func (a *API) respond(w http.ResponseWriter, result any, err error) {
	if err != nil {
		a.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if encodeErr := json.NewEncoder(w).Encode(result); encodeErr != nil && a.logger != nil {
		a.logger.Error("encoding response failed", "error", encodeErr.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCodeFor(err))

	body := map[string]string{"error": err.Error()}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil && a.logger != nil {
		a.logger.Error("encoding error response failed", "error", encodeErr.Error())
	}
}

func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, shell.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shell.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shell.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case shell.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	case shell.IsCancellationError(err):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
