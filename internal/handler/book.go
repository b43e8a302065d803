package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/service"
	"github.com/sakif/booker/internal/session"
)

// BookHandler serves the favorites resource. Every operation is gated on an
// authenticated session and runs against the session user's collection.
//
// HANDLER RESPONSIBILITIES:
//   - HandleBook → POST adds a favorite, DELETE removes one, echoing the body
//   - HandleList → the session user's favorites in insertion order
//   - HandleGet  → one favorite by its Google Books id
//
// DEPENDENCY CHAIN:
//   - favorites *service.FavoriteService → validation and store calls
//   - the session comes from the request context (session.Manager.Middleware)
type BookHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

// NewBookHandler creates a BookHandler. All dependencies are injected here;
// the handler never opens a store itself.
func NewBookHandler(favorites *service.FavoriteService, logger *slog.Logger) *BookHandler {
	return &BookHandler{favorites: favorites, logger: logger}
}

type removeRequest struct {
	ID string `json:"id"`
}

// Dispatch runs one call against /api/book.
//
//	no session user -> 401, store untouched
//	POST            -> add body as a favorite, echo body
//	DELETE          -> remove {"id"}, echo body
//	anything else   -> 404
//
// If the store no longer knows the session's user the session is destroyed
// and the call answers 401.
func (h *BookHandler) Dispatch(ctx context.Context, sess *session.Session, method string, body []byte) Outcome {
	if !sess.Authenticated() {
		return notAuthorized()
	}
	userID := sess.User.ID

	switch method {
	case http.MethodPost:
		var book model.Book
		if err := json.Unmarshal(body, &book); err != nil {
			return badRequest("invalid request body")
		}
		if _, err := h.favorites.Add(ctx, userID, book); err != nil {
			return h.fail(ctx, sess, err)
		}
		return ok(json.RawMessage(body))

	case http.MethodDelete:
		var req removeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return badRequest("invalid request body")
		}
		if err := h.favorites.Remove(ctx, userID, req.ID); err != nil {
			return h.fail(ctx, sess, err)
		}
		return ok(json.RawMessage(body))

	default:
		return errorOutcome(h.logger, apperror.NotSupported("method "+method))
	}
}

// List returns the session user's favorites in insertion order.
func (h *BookHandler) List(ctx context.Context, sess *session.Session) Outcome {
	if !sess.Authenticated() {
		return notAuthorized()
	}
	books, err := h.favorites.List(ctx, sess.User.ID)
	if err != nil {
		return h.fail(ctx, sess, err)
	}
	return ok(books)
}

// Get returns one favorite by catalog id, or 404 when it is not saved.
func (h *BookHandler) Get(ctx context.Context, sess *session.Session, googleID string) Outcome {
	if !sess.Authenticated() {
		return notAuthorized()
	}
	book, err := h.favorites.Get(ctx, sess.User.ID, googleID)
	if err != nil {
		return h.fail(ctx, sess, err)
	}
	if book == nil {
		return Outcome{
			Status: http.StatusNotFound,
			Body:   ErrorResponse{Error: apperror.NotFound("book", googleID).Message},
		}
	}
	return ok(book)
}

// fail handles an error from a favorites call. NotFound here can only mean
// the session's own user is gone.
func (h *BookHandler) fail(ctx context.Context, sess *session.Session, err error) Outcome {
	if errors.Is(err, apperror.ErrNotFound) {
		h.logger.Warn("stale session, user no longer exists", slog.String("userID", sess.User.ID))
		if derr := sess.Destroy(ctx); derr != nil {
			h.logger.Error("destroying stale session", slog.String("error", derr.Error()))
		}
		return notAuthorized()
	}
	return errorOutcome(h.logger, err)
}

// HandleBook adds or removes one favorite.
//
// HTTP: POST /api/book    body: a book record  → 200, the record echoed
// HTTP: DELETE /api/book  body: {"id": "..."}  → 200, the payload echoed
//
// Any other method is 404 with no body. The body is capped at maxBodyBytes.
func (h *BookHandler) HandleBook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeOutcome(w, r, badRequest("invalid request body"))
		return
	}
	writeOutcome(w, r, h.Dispatch(r.Context(), sessionFrom(r), r.Method, body))
}

// HandleList returns the signed-in user's favorites.
//
// HTTP: GET /api/favorites → 200 [book, ...]
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, r, h.List(r.Context(), sessionFrom(r)))
}

// HandleGet returns one favorite.
//
// HTTP: GET /api/favorites/{googleId} → 200 book, or 404 {"error": "..."}
// when the user has not saved it.
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, r, h.Get(r.Context(), sessionFrom(r), chi.URLParam(r, "googleId")))
}

// sessionFrom returns the request session, or an unbound anonymous one when
// the session middleware did not run.
func sessionFrom(r *http.Request) *session.Session {
	if s := session.FromContext(r.Context()); s != nil {
		return s
	}
	return session.New("", nil, nil)
}
