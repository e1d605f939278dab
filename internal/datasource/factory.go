package datasource

import (
	"fmt"
	"io"
	"log"

	"github.com/jdvot/paris-sportif/internal/config"
)

// Sources bundles the external feeds the prediction pipeline consumes
type Sources struct {
	Odds   OddsSource
	News   ContextSource
	Stream *OddsStreamClient
}

// Factory creates data source clients from configuration
type Factory struct {
	config *config.DataSourcesConfig
	logger *log.Logger
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.DataSourcesConfig, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Factory{
		config: cfg,
		logger: logger,
	}
}

// NewOddsSource creates the bookmaker odds feed client
func (f *Factory) NewOddsSource() (OddsSource, error) {
	if f.config == nil {
		return nil, fmt.Errorf("data sources configuration is required")
	}
	if f.config.Odds.Enabled && f.config.Odds.APIKey == "" {
		return nil, fmt.Errorf("odds feed API key is required")
	}
	return NewOddsAPIClient(&f.config.Odds, f.logger), nil
}

// NewContextSource creates the team news client
func (f *Factory) NewContextSource() (ContextSource, error) {
	if f.config == nil {
		return nil, fmt.Errorf("data sources configuration is required")
	}
	return NewNewsContextClient(&f.config.News, f.logger), nil
}

// NewOddsStream creates the live odds stream client, or nil when no
// stream URL is configured
func (f *Factory) NewOddsStream() (*OddsStreamClient, error) {
	if f.config == nil {
		return nil, fmt.Errorf("data sources configuration is required")
	}
	if !f.config.Odds.Enabled || f.config.Odds.StreamURL == "" {
		return nil, nil
	}
	return NewOddsStreamClient(f.config.Odds.StreamURL, f.config.Odds.APIKey, f.logger), nil
}

// NewSources creates all configured data sources
func (f *Factory) NewSources() (*Sources, error) {
	odds, err := f.NewOddsSource()
	if err != nil {
		return nil, fmt.Errorf("creating odds source: %w", err)
	}

	news, err := f.NewContextSource()
	if err != nil {
		return nil, fmt.Errorf("creating context source: %w", err)
	}

	stream, err := f.NewOddsStream()
	if err != nil {
		return nil, fmt.Errorf("creating odds stream: %w", err)
	}

	if !odds.IsEnabled() {
		f.logger.Printf("Odds feed disabled; predictions will run without market prices")
	}
	if !news.IsEnabled() {
		f.logger.Printf("Team news feed disabled; contextual adjustments will be skipped")
	}

	return &Sources{Odds: odds, News: news, Stream: stream}, nil
}
