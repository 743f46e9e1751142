// Package person contains the HTTP handlers for the Person resource.
//
// Every handler is built by a factory that receives its dependencies and
// returns the func(http.ResponseWriter, *http.Request) the router needs:
//
//	router.HandleFunc("POST /personas/{$}", person.New(storage))
//
// New(storage) runs once at startup; the returned closure runs on every
// request.
package person

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/personas-team/personas-api/internal/storage"
	"github.com/personas-team/personas-api/internal/types"
	"github.com/personas-team/personas-api/internal/utils/response"
)

const maxBodyBytes = 1 << 20

// validate is shared by all handlers.
var validate = newValidator()

// newValidator reports field names as clients spell them (json or query
// tag) instead of the Go field name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /personas/.
//
// Request body:
//
//	{ "name": "Ana", "age": 30, "role": "Engineer" }
//
// Success (201 Created) returns the stored person including its id.
// 400 on an empty or malformed body or failed validation, 500 on a
// database error.
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a person")

		// ── Step 1: Decode JSON body ──────────────────────────────────
		var in types.PersonCreate
		if !decodeBody(w, r, &in) {
			return
		}

		// ── Step 2: Validate required fields ──────────────────────────
		if !validStruct(w, in) {
			return
		}

		// ── Step 3: Persist and echo the stored record ────────────────
		person, err := storage.CreatePerson(r.Context(), in)
		if err != nil {
			slog.Error("error creating person", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		slog.Info("person created", slog.Int64("id", person.ID))
		response.WriteJSON(w, http.StatusCreated, person)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /personas/{id}.
//
// 400 when id is not an integer, 404 when no such person exists.
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a person", slog.Int64("id", id))

		person, err := storage.GetPersonByID(r.Context(), id)
		if err != nil {
			writeStorageError(w, "error getting person", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, person)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /personas/?skip=0&limit=100.
//
// Both query parameters are optional. Returns [] (not null) when the
// window is empty.
//
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Read ?skip= and ?limit=, defaults 0 and 100 ───────
		params, err := listParams(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if !validStruct(w, params) {
			return
		}

		slog.Info("listing persons",
			slog.Int("skip", params.Skip),
			slog.Int("limit", params.Limit))

		persons, err := storage.ListPersons(r.Context(), params)
		if err != nil {
			slog.Error("error listing persons", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, persons)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /personas/{id}.
//
// The body may hold any subset of name, age and role; omitted fields keep
// their stored value. An empty object {} returns the person unchanged.
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a person", slog.Int64("id", id))

		// ── Step 1: Decode the partial payload ────────────────────────
		// Absent keys stay nil and are not written.
		var u types.PersonUpdate
		if !decodeBody(w, r, &u) {
			return
		}

		// ── Step 2: Supplied strings must not be empty ────────────────
		if !validStruct(w, u) {
			return
		}

		// ── Step 3: Merge into the stored row ─────────────────────────
		updated, err := storage.UpdatePersonByID(r.Context(), id, u)
		if err != nil {
			writeStorageError(w, "error updating person", id, err)
			return
		}

		slog.Info("person updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteResponse is the body returned by a successful delete.
type DeleteResponse struct {
	Message string       `json:"message"`
	Deleted types.Person `json:"deleted"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /personas/{id}.
//
// Success (200 OK):
//
//	{ "message": "person 'Ana' removed", "deleted": { "id": 1, ... } }
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a person", slog.Int64("id", id))

		deleted, err := storage.DeletePersonByID(r.Context(), id)
		if err != nil {
			writeStorageError(w, "error deleting person", id, err)
			return
		}

		slog.Info("person deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, DeleteResponse{
			Message: fmt.Sprintf("person '%s' removed", deleted.Name),
			Deleted: deleted,
		})
	}
}

// pathID parses the {id} path segment. On failure it writes a 400 and
// returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return id, true
}

// decodeBody decodes the JSON request body into dst. Unknown keys are
// ignored, anything after the first JSON value is rejected. On failure it
// writes a 400 and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}

	// Unmarshal rejects trailing data after the object: `{...} garbage`.
	if err := json.Unmarshal(body, dst); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// validStruct runs the validate tags on v. On failure it writes a 400 and
// returns false.
func validStruct(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
	} else {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	}
	return false
}

// listParams reads skip and limit from the query string, falling back to
// the defaults when a parameter is absent.
func listParams(r *http.Request) (types.ListParams, error) {
	params := types.ListParams{Skip: types.DefaultSkip, Limit: types.DefaultLimit}
	q := r.URL.Query()

	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, errors.New("invalid skip: must be an integer")
		}
		params.Skip = n
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, errors.New("invalid limit: must be an integer")
		}
		params.Limit = n
	}

	return params, nil
}

// writeStorageError maps storage.ErrNotFound to 404 and anything else to
// 500.
func writeStorageError(w http.ResponseWriter, msg string, id int64, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return
	}

	slog.Error(msg,
		slog.Int64("id", id),
		slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
