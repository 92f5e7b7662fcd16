package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and cache configuration
//   - services.go: Service mode and worker configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, dev seeding).
	// Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	// Services is a comma-delimited list of enabled services.
	Services string `env:"SERVICES" envDefault:"orchestrator"`

	// Orchestrator configuration
	Orchestrator OrchestratorConfig

	// Assessment service client configuration
	Assessment AssessmentConfig

	// Watchdog configuration
	Watchdog WatchdogConfig

	// Retention configuration
	Retention RetentionConfig

	// Quality monitor configuration
	Quality QualityConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Orchestrator.Sanitize()
	c.Assessment.Sanitize()
	c.Watchdog.Sanitize()
	c.Retention.Sanitize()
	c.Quality.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsOrchestratorEnabled returns true if the orchestrator service is enabled.
func (c *AppConfig) IsOrchestratorEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeOrchestrator]
}

// IsWatchdogEnabled returns true if the watchdog service is enabled.
func (c *AppConfig) IsWatchdogEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeWatchdog]
}

// IsRetentionEnabled returns true if the retention sweeper is enabled.
func (c *AppConfig) IsRetentionEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeRetention]
}

// IsQualityMonitorEnabled returns true if the quality monitor is enabled.
func (c *AppConfig) IsQualityMonitorEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeQualityMonitor]
}
