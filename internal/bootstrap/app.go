package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/excelmerge/internal/config"
	"github.com/locvowork/excelmerge/internal/database"
	"github.com/locvowork/excelmerge/internal/handler"
	"github.com/locvowork/excelmerge/internal/logger"
	"github.com/locvowork/excelmerge/internal/repository"
	"github.com/locvowork/excelmerge/internal/service"
)

type App struct {
	Echo *echo.Echo
	DB   *sqlx.DB
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{
		Echo: e,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	dbConfig := database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	}

	db, err := database.NewPostgresDB(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db
	logger.InfoLog(ctx, "Database connection established successfully")

	featureRepo := repository.NewFeatureRepository(db)
	reportSvc := service.NewReportService(featureRepo, service.ReportConfig{
		DateFormat:     cfg.REPORT_DATE_FORMAT,
		MaxColumnWidth: cfg.REPORT_MAX_COLUMN_WIDTH,
		TemplatePath:   cfg.REPORT_TEMPLATE_PATH,
	})
	reportHandler := handler.NewReportHandler(reportSvc)

	a.RegisterMiddlewares()
	a.RegisterRoutes(reportHandler, cfg.UPLOAD_MAX_BYTES)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
	a.Echo.Use(handler.RequestContext())
}

func (a *App) RegisterRoutes(reportHandler *handler.ReportHandler, uploadMaxBytes int64) {
	a.Echo.GET("/healthz", reportHandler.HealthHandler)
	a.Echo.GET("/reports/features", reportHandler.FeatureReportHandler)
	a.Echo.POST("/merge", reportHandler.MergeHandler, handler.UploadLimit(uploadMaxBytes))
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.DB.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.InfoLog(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	}
}
