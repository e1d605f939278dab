package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jdvot/paris-sportif/internal/ensemble"
	"github.com/jdvot/paris-sportif/internal/models"
)

// OddsSource fetches bookmaker odds from an external provider
type OddsSource interface {
	// FetchOdds retrieves the latest three-way odds for a specific match
	FetchOdds(ctx context.Context, matchID uuid.UUID) (*models.BookmakerOdds, error)

	// FetchOddsBatch retrieves odds snapshots published within the date range
	FetchOddsBatch(ctx context.Context, startDate, endDate time.Time) ([]models.BookmakerOdds, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// ContextSource fetches team news and contextual signals for a match
type ContextSource interface {
	// FetchContext retrieves injury, sentiment and tactical signals for a match
	FetchContext(ctx context.Context, match *models.Match) (*ensemble.ContextualAdjustment, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Sentinel errors for errors.Is checks
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
	ErrSourceDisabled       = errors.New("data source disabled")
)

const dataSourceDisabledMsg = "data source is disabled"

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
