// -----------------------------------------------------------------------
// Last Modified: Friday, 21st August 2026 10:12:46 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"

	"github.com/ternarybob/vestio/internal/app"
)

// ingestorRoutes configures the control-plane admin routes
func (s *Server) ingestorRoutes(application *app.Ingestor) *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Source management
	mux.HandleFunc("/api/sources", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceCollection(w, r,
			application.SourcesHandler.ListSourcesHandler,
			application.SourcesHandler.CreateSourceHandler)
	})
	mux.HandleFunc("/api/sources/", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceItem(w, r,
			application.SourcesHandler.GetSourceHandler,
			application.SourcesHandler.UpdateSourceHandler,
			application.SourcesHandler.DeleteSourceHandler)
	})

	// API routes - Listing management
	mux.HandleFunc("/api/listings", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceCollection(w, r,
			application.ListingsHandler.ListListingsHandler,
			application.ListingsHandler.CreateListingHandler)
	})
	mux.HandleFunc("/api/listings/", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceItem(w, r,
			application.ListingsHandler.GetListingHandler,
			application.ListingsHandler.UpdateListingHandler,
			application.ListingsHandler.DeleteListingHandler)
	})

	// API routes - Pipeline triggers
	mux.HandleFunc("/api/trigger-listing-scrape", application.SchedulerHandler.TriggerListingScrapeHandler)
	mux.HandleFunc("/api/trigger-batch-create", application.SchedulerHandler.TriggerBatchCreateHandler)
	mux.HandleFunc("/api/trigger-batch-scrape", application.SchedulerHandler.TriggerBatchScrapeHandler)
	mux.HandleFunc("/api/trigger-status-update", application.SchedulerHandler.TriggerStatusUpdateHandler)
	mux.HandleFunc("/api/scheduler/tasks", application.SchedulerHandler.TaskStatusesHandler)

	// API routes - Dashboard
	mux.HandleFunc("/api/dashboard", application.DashboardHandler.DashboardHandler)

	// API routes - System
	mux.HandleFunc("/api/version", application.APIHandler.VersionHandler)
	mux.HandleFunc("/health", application.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", application.APIHandler.NotFoundHandler)

	return mux
}

// agentRoutes configures the job-plane scrape API routes
func (s *Server) agentRoutes(application *app.Agent) *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Scrape jobs
	mux.HandleFunc("/api/scrape", application.ScrapeHandler.SubmitScrapeHandler)
	mux.HandleFunc("/api/scrape/", s.handleScrapeRoutes(application))

	// API routes - System
	mux.HandleFunc("/api/version", application.APIHandler.VersionHandler)
	mux.HandleFunc("/health", application.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", application.APIHandler.NotFoundHandler)

	return mux
}

// handleScrapeRoutes routes /api/scrape/{job_id}/status/ and
// /api/scrape/{job_id}/result/ to the appropriate handler
func (s *Server) handleScrapeRoutes(application *app.Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matched := RouteByPathSuffix(w, r, "/api/scrape/", []PathSuffixRouter{
			{Suffix: "/status/", Handler: application.ScrapeHandler.JobStatusHandler},
			{Suffix: "/status", Handler: application.ScrapeHandler.JobStatusHandler},
			{Suffix: "/result/", Handler: application.ScrapeHandler.JobResultHandler},
			{Suffix: "/result", Handler: application.ScrapeHandler.JobResultHandler},
		})
		if !matched {
			http.Error(w, "Not found", http.StatusNotFound)
		}
	}
}
