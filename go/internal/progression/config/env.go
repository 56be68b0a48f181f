// Package config loads the orchestrator's environment and its routing and
// tuning file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the settings that differ per deployment.
type Env struct {
	ConfigPath string `env:"PROGRESSION_CONFIG" envDefault:"config/progression.yaml"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"console"`

	NATSURL string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`

	CaseStoreURL     string `env:"CASE_STORE_URL" envDefault:"http://localhost:8081"`
	HearingStoreURL  string `env:"HEARING_STORE_URL" envDefault:"http://localhost:8082"`
	ReferenceDataURL string `env:"REFERENCE_DATA_URL" envDefault:"http://localhost:8083"`
	UsersGroupsURL   string `env:"USERS_GROUPS_URL" envDefault:"http://localhost:8084"`
	SystemUserID     string `env:"SYSTEM_USER_ID"`

	OpsAddr        string `env:"OPS_ADDR" envDefault:":8090"`
	JournalEnabled bool   `env:"JOURNAL_ENABLED" envDefault:"true"`
	// DryRun logs outbound messages instead of publishing them.
	DryRun bool `env:"DRY_RUN"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"progression-orchestrator"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	cfg, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
