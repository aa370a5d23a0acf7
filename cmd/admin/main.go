package main

import (
	activitieshandler "meshwar/internal/activities/handler"
	activitiesrepo "meshwar/internal/activities/repository"
	activitiesservice "meshwar/internal/activities/service"
	activitiesvalidator "meshwar/internal/activities/validator"
	"meshwar/internal/bookings/events"
	bookingshandler "meshwar/internal/bookings/handler"
	bookingsrepo "meshwar/internal/bookings/repository"
	bookingsservice "meshwar/internal/bookings/service"
	bookingsvalidator "meshwar/internal/bookings/validator"
	categorieshandler "meshwar/internal/categories/handler"
	categoriesrepo "meshwar/internal/categories/repository"
	categoriesservice "meshwar/internal/categories/service"
	categoriesvalidator "meshwar/internal/categories/validator"
	dashboardhandler "meshwar/internal/dashboard/handler"
	dashboardrepo "meshwar/internal/dashboard/repository"
	dashboardservice "meshwar/internal/dashboard/service"
	locationshandler "meshwar/internal/locations/handler"
	locationsrepo "meshwar/internal/locations/repository"
	locationsservice "meshwar/internal/locations/service"
	locationsvalidator "meshwar/internal/locations/validator"
	reportshandler "meshwar/internal/reports/handler"
	reportsrepo "meshwar/internal/reports/repository"
	reportsservice "meshwar/internal/reports/service"
	usershandler "meshwar/internal/users/handler"
	usersrepo "meshwar/internal/users/repository"
	usersservice "meshwar/internal/users/service"
	usersvalidator "meshwar/internal/users/validator"
	"meshwar/pkg/app"
	"meshwar/pkg/config"
	"meshwar/pkg/contracts"
)

const ServiceName = "meshwar-admin"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetProducer()

	cfg.Log.Info("Starting Meshwar admin service")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg)...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config) []contracts.Handler {
	userService := usersservice.NewUserService(
		usersrepo.NewMongoUserRepository(cfg),
		usersvalidator.NewUserValidator(),
		cfg,
	)

	categoryService := categoriesservice.NewCategoryService(
		categoriesrepo.NewMongoCategoryRepository(cfg),
		categoriesvalidator.NewCategoryValidator(),
		cfg,
	)

	locationService := locationsservice.NewLocationService(
		locationsrepo.NewMongoLocationRepository(cfg),
		locationsvalidator.NewLocationValidator(),
		cfg,
	)

	activityService := activitiesservice.NewActivityService(
		activitiesrepo.NewMongoActivityRepository(cfg),
		activitiesvalidator.NewActivityValidator(),
		cfg,
	)

	bookingService := bookingsservice.NewBookingService(
		bookingsrepo.NewMongoBookingRepository(cfg),
		bookingsrepo.NewMongoActivityCounter(cfg),
		bookingsrepo.NewMongoUserLookup(cfg),
		events.NewPublisher(cfg.Client.Producer),
		bookingsvalidator.NewBookingValidator(),
		cfg,
	)

	dashboardService := dashboardservice.NewDashboardService(dashboardrepo.NewMongoStatsRepository(cfg), cfg)
	reportService := reportsservice.NewReportService(reportsrepo.NewMongoReportRepository(cfg), cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		usershandler.NewUserHandler(userService, cfg.Log),
		categorieshandler.NewCategoryHandler(categoryService, cfg.Log),
		locationshandler.NewLocationHandler(locationService, cfg.Log),
		activitieshandler.NewActivityHandler(activityService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		dashboardhandler.NewDashboardHandler(dashboardService, cfg.Log),
		reportshandler.NewReportHandler(reportService, cfg.Log),
	}
}
