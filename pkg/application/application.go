package application

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/pkg/eventbus"
)

// Controller is a mountable group of HTTP routes.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

type Application struct {
	pool           *pgxpool.Pool
	eventPublisher eventbus.EventBus
	logger         *logrus.Logger
	controllers    map[string]Controller
	middleware     []mux.MiddlewareFunc
}

func New(options *ApplicationOptions) *Application {
	return &Application{
		pool:           options.Pool,
		eventPublisher: options.EventBus,
		logger:         options.Logger,
		controllers:    map[string]Controller{},
	}
}

func (app *Application) Pool() *pgxpool.Pool {
	return app.pool
}

func (app *Application) EventPublisher() eventbus.EventBus {
	return app.eventPublisher
}

func (app *Application) Logger() *logrus.Logger {
	return app.logger
}

func (app *Application) Controllers() []Controller {
	out := make([]Controller, 0, len(app.controllers))
	for _, c := range app.controllers {
		out = append(out, c)
	}
	return out
}

func (app *Application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// RegisterControllers registers controllers by their key; a later controller
// with the same key replaces the earlier one.
func (app *Application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *Application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}
