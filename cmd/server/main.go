package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockbrain-system/config"
	"stockbrain-system/internal/database"
	"stockbrain-system/internal/gateway/middleware"
	inventoryhandler "stockbrain-system/internal/services/inventory/handler"
	motivationhandler "stockbrain-system/internal/services/motivation/handler"
	userhandler "stockbrain-system/internal/services/user/handler"
	workloghandler "stockbrain-system/internal/services/worklog/handler"
	"stockbrain-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.InitJWT(cfg.Auth.JWTSecret)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.App.Timezone, err)
	}

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	dispatcher := workloghandler.NewEmailDispatcher(db, loc)

	userHandler := userhandler.NewUserHandler(db, redisClient, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
	inventoryHandler := inventoryhandler.NewInventoryHandler(db, redisClient, cfg.App.PurchaseAdminRole)
	workLogHandler := workloghandler.NewWorkLogHandler(db, redisClient, dispatcher, cfg.App.WorklogDeleteAccount, loc)
	motivationHandler := motivationhandler.NewMotivationHandler(db, redisClient)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("100-M"))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		users := protected.Group("/users")
		{
			users.GET("/me", userHandler.Me)
			users.PUT("/me/profile", userHandler.UpdateProfile)
			users.PUT("/:username/roles", middleware.RequireRole("admin"), userHandler.SetRoles)
		}

		inventoryGroup := protected.Group("/inventory")
		{
			inventoryGroup.GET("/items", inventoryHandler.ListItems)
			inventoryGroup.POST("/items", inventoryHandler.CreateItem)
			inventoryGroup.GET("/items/:id/locate", inventoryHandler.LocateItem)
			inventoryGroup.PATCH("/items/:id/field", inventoryHandler.EditItemField)
			inventoryGroup.DELETE("/items/:id", inventoryHandler.DeleteItem)
			inventoryGroup.PUT("/items/:id/favorite", inventoryHandler.SetFavorite)
			inventoryGroup.PUT("/items/:id/note", inventoryHandler.SetNote)
			inventoryGroup.POST("/import", inventoryHandler.ImportItems)
			inventoryGroup.GET("/units", inventoryHandler.ListUnits)
			inventoryGroup.GET("/groups", inventoryHandler.ListGroups)
			inventoryGroup.GET("/columns", inventoryHandler.ListColumns)
			inventoryGroup.GET("/settings", inventoryHandler.GetSettings)
			inventoryGroup.PUT("/settings", middleware.RequireRole("admin"), inventoryHandler.UpdateSettings)
		}

		worklogs := protected.Group("/worklogs")
		{
			worklogs.POST("", workLogHandler.CreateWorkLog)
			worklogs.GET("", workLogHandler.ListWorkLogs)
			worklogs.GET("/:id", workLogHandler.GetWorkLog)
			worklogs.PUT("/:id", workLogHandler.UpdateWorkLog)
			worklogs.DELETE("/:id", workLogHandler.DeleteWorkLog)
			worklogs.POST("/:id/send", workLogHandler.SendNow)
			worklogs.POST("/sweep", middleware.RequireRole("admin"), workLogHandler.SweepPending)
		}

		entries := protected.Group("/worklog-entries")
		{
			entries.POST("/:entryId/state", workLogHandler.ChangeEntryState)
			entries.GET("/:entryId/history", workLogHandler.EntryHistory)
		}

		worklogSettings := protected.Group("/worklog-settings")
		{
			worklogSettings.GET("/email", workLogHandler.GetEmailSettings)
			worklogSettings.PUT("/email", middleware.RequireRole("admin"), workLogHandler.UpdateEmailSettings)
			worklogSettings.GET("/edit-condition", workLogHandler.GetEditCondition)
			worklogSettings.PUT("/edit-condition", middleware.RequireRole("admin"), workLogHandler.UpdateEditCondition)
			worklogSettings.GET("/work-hours", workLogHandler.GetWorkHours)
			worklogSettings.PUT("/work-hours", middleware.RequireRole("admin"), workLogHandler.UpdateWorkHours)
			worklogSettings.GET("/smtp", middleware.RequireRole("admin"), workLogHandler.GetAdminEmailSettings)
			worklogSettings.PUT("/smtp", middleware.RequireRole("admin"), workLogHandler.UpdateAdminEmailSettings)
		}

		locations := protected.Group("/vehicle-locations")
		{
			locations.GET("", workLogHandler.ListVehicleLocations)
			locations.POST("", middleware.RequireRole("admin"), workLogHandler.CreateVehicleLocation)
		}

		jobStates := protected.Group("/job-states")
		{
			jobStates.GET("", workLogHandler.ListJobStates)
			jobStates.POST("", middleware.RequireRole("admin"), workLogHandler.CreateJobState)
		}

		motivation := protected.Group("/motivation")
		{
			motivation.GET("/quote", motivationHandler.RandomQuote)
			motivation.GET("/categories", motivationHandler.ListCategories)
			motivation.POST("/categories", middleware.RequireRole("admin"), motivationHandler.CreateCategory)
			motivation.POST("/quotes", motivationHandler.CreateQuote)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}
	r.GET("/health", healthCheckHandler(map[string]func(context.Context) error{
		"database": sqlDB.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}))

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheckHandler pings every backing service and reports per-service
// status. Any unreachable dependency flips the response to 503.
func healthCheckHandler(checks map[string]func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		status := http.StatusOK
		overall := "healthy"
		services := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				services[name] = "unreachable"
				status = http.StatusServiceUnavailable
				overall = "degraded"
			} else {
				services[name] = "ok"
			}
		}
		c.JSON(status, gin.H{
			"status":    overall,
			"services":  services,
			"timestamp": time.Now(),
		})
	}
}
