// internal/form/application-controller/config.go
package applicationcontroller

import (
	"time"

	"applicant-portal/internal/common/config"
)

type Config struct {
	SubmitTimeout time.Duration
}

func LoadConfig(backend config.BackendConfig) *Config {
	timeout := config.GetDuration(backend.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Config{SubmitTimeout: timeout}
}
