package cms

import (
	"os"
	"sync"
	"time"
)

var (
	defaultOnce   sync.Once
	defaultClient *Client
	defaultErr    error
)

// Default returns the process-wide client, constructing it from the
// environment on first use. Later calls return the same client (or the same
// construction error); it is never rebuilt.
func Default() (*Client, error) {
	defaultOnce.Do(func() {
		defaultClient, defaultErr = NewClient(ConfigFromEnv())
	})
	return defaultClient, defaultErr
}

// ConfigFromEnv reads CMS_API_ENDPOINT, CMS_ACCESS_TOKEN, CMS_DOCUMENT_TYPE
// and CMS_TIMEOUT.
func ConfigFromEnv() Config {
	cfg := Config{
		Endpoint:     os.Getenv("CMS_API_ENDPOINT"),
		AccessToken:  os.Getenv("CMS_ACCESS_TOKEN"),
		DocumentType: os.Getenv("CMS_DOCUMENT_TYPE"),
	}
	if d, err := time.ParseDuration(os.Getenv("CMS_TIMEOUT")); err == nil {
		cfg.Timeout = d
	}
	return cfg
}
