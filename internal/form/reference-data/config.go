// internal/form/reference-data/config.go
package referencedata

import (
	"time"

	"applicant-portal/internal/common/config"
)

type Config struct {
	// Timeout bounds one mount. Both fetches share it.
	Timeout time.Duration
}

func LoadConfig(backend config.BackendConfig) *Config {
	timeout := config.GetDuration(backend.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Config{Timeout: timeout}
}
