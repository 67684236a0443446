package api

import (
	"time"

	"datainsights/pkg/contracts/domain"
)

// UploadResponse is returned after a file has been parsed and processed.
type UploadResponse struct {
	SessionID        string `json:"session_id"`
	Message          string `json:"message"`
	SeriesCount      int    `json:"series_count"`
	TotalRows        int    `json:"total_rows"`
	OriginalFilename string `json:"original_filename"`
}

// ChartResponse carries the generated chart descriptor together with the
// effective configuration and the fixed statistics colors for the client.
type ChartResponse struct {
	Chart            *domain.ChartDescriptor `json:"chart"`
	Config           ChartConfig             `json:"config"`
	StatisticsColors map[string]string       `json:"statistics_colors"`
}

// SessionStatusResponse reports lifecycle information for one session.
type SessionStatusResponse struct {
	SessionID string    `json:"session_id"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// VersionResponse reports build information.
type VersionResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
}
