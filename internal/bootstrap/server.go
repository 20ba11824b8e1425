package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	app "github.com/mohammadpnp/data-importer/internal/application/ingest"
	httpecho "github.com/mohammadpnp/data-importer/internal/interfaces/http/echo"
	"github.com/mohammadpnp/data-importer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewHTTPServer(scheduler *app.Scheduler, m *metrics.ImportMetrics) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("1M"))

	importHandler := httpecho.NewImportHandler(
		app.NewTriggerImport(scheduler),
		app.NewGetLastCycle(scheduler),
	)
	httpecho.RegisterRoutes(server, importHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	server.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	return server
}
