package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/constants"
	"github.com/iota-uz/orgtree/pkg/httpapi"
	"github.com/iota-uz/orgtree/pkg/middleware"
	"github.com/iota-uz/orgtree/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   *application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the middleware stack and JSON fallback handlers shared by
// every deployment of the API server.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	middlewares := []mux.MiddlewareFunc{
		middleware.RequestID(),
		middleware.WithLogger(options.Logger),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.TenantFromHeader(),
	}
	app.RegisterMiddleware(middlewares...)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, middleware.UseRequestID(r.Context()), "NOT_FOUND", "resource not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, middleware.UseRequestID(r.Context()), "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return server.NewHTTPServer(app, notFound, methodNotAllowed), nil
}
