package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgtree/internal/server"
	"github.com/iota-uz/orgtree/modules/department/domain/department"
	"github.com/iota-uz/orgtree/modules/department/infrastructure/persistence"
	"github.com/iota-uz/orgtree/modules/department/presentation/controllers"
	"github.com/iota-uz/orgtree/modules/department/services"
	"github.com/iota-uz/orgtree/pkg/application"
	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})

	departmentService := services.NewDepartmentService(
		persistence.NewPgDepartmentRepository(),
		app.EventPublisher(),
	)
	app.RegisterControllers(
		controllers.NewDepartmentAPIController(departmentService),
	)
	registerEventLoggers(app, logger)

	options := &server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	}
	serverInstance, err := server.Default(options)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.Origin)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func registerEventLoggers(app *application.Application, logger *logrus.Logger) {
	bus := app.EventPublisher()
	bus.Subscribe(func(ev *department.CreatedEvent) {
		logger.WithField("department_id", ev.Department.ID).Info("department created")
	})
	bus.Subscribe(func(ev *department.RenamedEvent) {
		logger.WithField("department_id", ev.Department.ID).
			WithField("old_name", ev.OldName).Info("department renamed")
	})
	bus.Subscribe(func(ev *department.MovedEvent) {
		logger.WithField("department_id", ev.Department.ID).Info("department moved")
	})
	bus.Subscribe(func(ev *department.DeletedEvent) {
		logger.WithField("department_id", ev.Department.ID).
			WithField("removed", ev.RemovedCount).Info("department deleted")
	})
}
