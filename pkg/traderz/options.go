package traderz

import (
	"net/http"

	"github.com/rxtech-lab/traderz-go/internal/logger"
)

// Option configures a Session or a Client.
type Option func(*options)

type options struct {
	log        *logger.Logger
	httpClient *http.Client
}

// WithLogger sets the logger. Without it the SDK logs at Config.LogLevel, or not at all
// when no level is configured.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithHTTPClient makes every request go through httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

func buildOptions(cfg Config, opts []Option) (*options, error) {
	o := &options{
		log:        nil,
		httpClient: nil,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.log != nil {
		return o, nil
	}

	if cfg.LogLevel == "" {
		o.log = logger.NewNopLogger()

		return o, nil
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	o.log = log

	return o, nil
}
