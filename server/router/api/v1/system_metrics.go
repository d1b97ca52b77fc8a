package v1

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64           `json:"total_requests"`
	SuccessRate   float64         `json:"success_rate"`
	P50LatencyMs  int64           `json:"p50_latency_ms"`
	P95LatencyMs  int64           `json:"p95_latency_ms"`
	ErrorCount    int64           `json:"error_count"`
	Routes        []RouteOverview `json:"routes"`
}

// RouteOverview is the per-route part of MetricsOverviewResponse.
type RouteOverview struct {
	Route        string `json:"route"`
	Requests     int64  `json:"requests"`
	Errors       int64  `json:"errors"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// GetMetricsOverview returns request metrics since the process started.
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, MetricsOverviewResponse{SuccessRate: 1, Routes: []RouteOverview{}})
	}

	snapshot := s.Metrics.Snapshot()
	routes := make([]RouteOverview, 0, len(snapshot.Routes))
	for route, rm := range snapshot.Routes {
		routes = append(routes, RouteOverview{
			Route:        route,
			Requests:     rm.RequestCount,
			Errors:       rm.ErrorCount,
			AvgLatencyMs: rm.AverageDuration,
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Route < routes[j].Route })

	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snapshot.RequestTotal,
		SuccessRate:   snapshot.SuccessRate(),
		P50LatencyMs:  snapshot.P50Duration.Milliseconds(),
		P95LatencyMs:  snapshot.P95Duration.Milliseconds(),
		ErrorCount:    snapshot.RequestFailed,
		Routes:        routes,
	})
}
