package web

import (
	"net/http"

	"madpriser_api/internal/rema/app/web/handlers"
	"madpriser_api/metrics"
	"madpriser_api/pkg/middleware"
)

// Routes holds every handler the service exposes.
type Routes struct {
	Batch        *handlers.BatchHandler
	Delta        *handlers.DeltaHandler
	Discovery    *handlers.DiscoveryHandler
	Discontinued *handlers.DiscontinuedHandler
	Departments  *handlers.DepartmentsHandler
	Health       *handlers.HealthHandler
}

// SetupRoutes builds the service mux. Every API route passes through the
// request metrics middleware; /metrics itself does not.
func SetupRoutes(routes Routes) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/batch-scrape", routes.Batch)
	mux.Handle("/api/delta-sync", routes.Delta)
	mux.Handle("/api/discover", routes.Discovery)
	mux.Handle("/api/maintenance/discontinued", routes.Discontinued)
	mux.Handle("/api/departments", routes.Departments)
	mux.Handle("/healthz", routes.Health)

	root := http.NewServeMux()
	root.Handle("/metrics", metrics.MetricsHandler())
	root.Handle("/", middleware.PrometheusMiddleware(mux))
	return root
}
