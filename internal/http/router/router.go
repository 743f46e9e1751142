// Package router assembles the route table.
//
//	GET    /                → welcome payload
//	GET    /health          → liveness probe
//	POST   /personas/       → create a person
//	GET    /personas/       → list persons (?skip=&limit=)
//	GET    /personas/{id}   → get one person
//	PUT    /personas/{id}   → partial update
//	DELETE /personas/{id}   → delete, returns the removed person
package router

import (
	"log/slog"
	"net/http"

	"github.com/personas-team/personas-api/internal/http/handlers/person"
	"github.com/personas-team/personas-api/internal/http/handlers/system"
	"github.com/personas-team/personas-api/internal/http/middleware"
	"github.com/personas-team/personas-api/internal/storage"
)

// New returns the fully wrapped handler for the server.
//
// {$} anchors a pattern to the exact path, so "/" and "/personas/" do not
// swallow every path beneath them.
func New(storage storage.Storage, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", system.Root())
	mux.HandleFunc("GET /health", system.Health())

	mux.HandleFunc("POST /personas/{$}", person.New(storage))
	mux.HandleFunc("GET /personas/{$}", person.GetList(storage))
	mux.HandleFunc("GET /personas/{id}", person.GetByID(storage))
	mux.HandleFunc("PUT /personas/{id}", person.Update(storage))
	mux.HandleFunc("DELETE /personas/{id}", person.Delete(storage))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recover(log),
	)
}
