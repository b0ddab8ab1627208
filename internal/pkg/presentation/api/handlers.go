package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/entity-manager/internal/pkg/infrastructure/storage"
	"github.com/diwise/entity-manager/internal/pkg/presentation/api/auth"
	"github.com/diwise/entity-manager/pkg/backend"
	backenderrors "github.com/diwise/entity-manager/pkg/backend/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("entity-manager/api/entities")

func RegisterHandlers(ctx context.Context, r *chi.Mux, policies io.Reader, store storage.Storage) error {

	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Logger(logging.GetFromContext(ctx)))
		r.Use(RequiredContentTypes([]string{"application/json"}))

		r.Route("/{entityType}", func(r chi.Router) {
			r.Get("/", NewQueryEntitiesHandler(store, authenticator))
			r.Post("/", NewCreateEntityHandler(store, authenticator))

			r.Route("/{entityID}", func(r chi.Router) {
				r.Get("/", NewRetrieveEntityHandler(store, authenticator))
				r.Patch("/", NewUpdateEntityHandler(store, authenticator))
				r.Delete("/", NewDeleteEntityHandler(store, authenticator))
			})
		})
	})

	return nil
}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequiredContentTypes(validTypes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType := r.Header.Get("Content-Type")
			isValidContentType := true

			if len(contentType) > 0 {
				isValidContentType = false

				for _, t := range validTypes {
					if strings.HasPrefix(contentType, t) {
						isValidContentType = true
						break
					}
				}
			}

			if isValidContentType {
				next.ServeHTTP(w, r)
			} else {
				http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
			}
		})
	}
}

// NewCreateEntityHandler handles POST requests for new entity records
func NewCreateEntityHandler(store storage.Storage, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		entityType := chi.URLParam(r, "entityType")

		ctx, span := tracer.Start(ctx, "create-entity")
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()

		err = authenticator.CheckAccess(ctx, r, entityType)
		if err != nil {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}

		record := map[string]any{}
		err = json.NewDecoder(r.Body).Decode(&record)
		if err != nil {
			backenderrors.NewBadRequest(
				fmt.Sprintf("unable to decode request payload: %s", err.Error()),
			).WriteResponse(w)
			return
		}

		id, created, err := store.Create(ctx, entityType, record)
		if err != nil {
			reportProblem(w, err)
			return
		}

		log := logging.GetFromContext(ctx)
		log.Debug("created entity", slog.String("entity_type", entityType), slog.String("entity_id", id))

		w.Header().Add("Content-Type", "application/json")
		w.Header().Add("Location", "/api/v1/"+url.PathEscape(entityType)+"/"+url.PathEscape(id))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

// NewQueryEntitiesHandler handles GET requests for entity collections.
// Query parameters form a flat field equality filter, no parameters
// means all records of the type.
func NewQueryEntitiesHandler(store storage.Storage, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		entityType := chi.URLParam(r, "entityType")

		ctx, span := tracer.Start(ctx, "query-entities")
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()

		err = authenticator.CheckAccess(ctx, r, entityType)
		if err != nil {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}

		filter := map[string][]string(r.URL.Query())

		found, err := store.List(ctx, entityType, filter)
		if err != nil {
			reportProblem(w, err)
			return
		}

		envelope := struct {
			Data []map[string]any `json:"data"`
		}{Data: found}

		w.Header().Add("Content-Type", "application/json")
		w.Header().Add(backend.ResultsCountHeaderName, fmt.Sprint(len(found)))
		json.NewEncoder(w).Encode(envelope)
	}
}

// NewRetrieveEntityHandler handles GET requests for a single entity record
func NewRetrieveEntityHandler(store storage.Storage, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		entityType := chi.URLParam(r, "entityType")
		entityID := chi.URLParam(r, "entityID")

		ctx, span := tracer.Start(ctx, "retrieve-entity")
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()

		err = authenticator.CheckAccess(ctx, r, entityType)
		if err != nil {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}

		record, err := store.Get(ctx, entityType, entityID)
		if err != nil {
			reportProblem(w, err)
			return
		}

		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(record)
	}
}

// NewUpdateEntityHandler handles PATCH requests carrying only the
// changed attributes of an entity record
func NewUpdateEntityHandler(store storage.Storage, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		entityType := chi.URLParam(r, "entityType")
		entityID := chi.URLParam(r, "entityID")

		ctx, span := tracer.Start(ctx, "update-entity")
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()

		err = authenticator.CheckAccess(ctx, r, entityType)
		if err != nil {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}

		changes := map[string]any{}
		err = json.NewDecoder(r.Body).Decode(&changes)
		if err != nil {
			backenderrors.NewBadRequest(
				fmt.Sprintf("unable to decode request payload: %s", err.Error()),
			).WriteResponse(w)
			return
		}

		updated, err := store.Update(ctx, entityType, entityID, changes)
		if err != nil {
			reportProblem(w, err)
			return
		}

		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

// NewDeleteEntityHandler handles DELETE requests for a single entity record
func NewDeleteEntityHandler(store storage.Storage, authenticator auth.Enticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		entityType := chi.URLParam(r, "entityType")
		entityID := chi.URLParam(r, "entityID")

		ctx, span := tracer.Start(ctx, "delete-entity")
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()

		err = authenticator.CheckAccess(ctx, r, entityType)
		if err != nil {
			http.Error(w, "not authorized", http.StatusUnauthorized)
			return
		}

		err = store.Delete(ctx, entityType, entityID)
		if err != nil {
			reportProblem(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func reportProblem(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backenderrors.ErrNotFound):
		backenderrors.NewNotFound(err.Error()).WriteResponse(w)
	case errors.Is(err, backenderrors.ErrAlreadyExists):
		backenderrors.NewAlreadyExists(err.Error()).WriteResponse(w)
	case errors.Is(err, backenderrors.ErrBadRequest):
		backenderrors.NewBadRequest(err.Error()).WriteResponse(w)
	default:
		backenderrors.NewInternalError(err.Error()).WriteResponse(w)
	}
}
