package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	healthCheckTimeout = 2 * time.Second
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

func (s *Server) registerRootRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "API information",
		Description: "Returns the application name, version, and documentation location",
		Tags:        []string{"Root"},
	}, s.handleRoot)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	AppName    string                     `json:"app_name" doc:"Application name"`
	Version    string                     `json:"version" doc:"Application version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// RootResponse describes the API.
type RootResponse struct {
	AppName    string `json:"app_name" doc:"Application name"`
	Version    string `json:"version" doc:"Application version"`
	DocsURL    string `json:"docs_url" doc:"Interactive API documentation"`
	OpenAPIURL string `json:"openapi_url" doc:"OpenAPI document"`
}

// RootOutput wraps the root response for Huma.
type RootOutput struct {
	Body RootResponse
}

func (s *Server) handleRoot(_ context.Context, _ *struct{}) (*RootOutput, error) {
	return &RootOutput{
		Body: RootResponse{
			AppName:    s.opts.Name,
			Version:    s.opts.Version,
			DocsURL:    "/docs",
			OpenAPIURL: "/openapi.json",
		},
	}, nil
}

// handleHealthCheck always answers 200. A failed database makes the server
// unhealthy; a failed cache only degrades it since every read falls back to
// the database.
func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"cache":    s.checkCache(ctx),
	}

	overall := statusHealthy
	if components["database"].Status != statusHealthy {
		overall = statusUnhealthy
	} else if components["cache"].Status != statusHealthy {
		overall = statusDegraded
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			AppName:    s.opts.Name,
			Version:    s.opts.Version,
			Components: components,
		},
	}, nil
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "database not configured",
		}
	}

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
	}
}

func (s *Server) checkCache(ctx context.Context) ComponentHealth {
	if s.cache == nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "cache disabled",
		}
	}

	start := time.Now()
	err := s.cache.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Latency: latency.String(),
			Message: "cache unreachable, serving from database",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
	}
}
