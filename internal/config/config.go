package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	Athena        AthenaConfig
	Query         QueryConfig
	Runner        RunnerConfig
	Report        ReportConfig
	Artifact      ArtifactConfig
	History       HistoryConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

// AthenaConfig identifies the target of a run. OutputLocation is the S3 URI
// the query service writes raw result objects to; it is required for real runs
// but not for the local engine.
type AthenaConfig struct {
	Region          string
	AWSProfile      string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Database        string
	Workgroup       string
	OutputLocation  string
}

type QueryConfig struct {
	Dir string
}

// RunnerConfig tunes the polling state machine. MaxWait of zero means wait
// indefinitely for a terminal state.
type RunnerConfig struct {
	PollInterval time.Duration
	MaxWait      time.Duration
	PageSize     int
}

type ReportConfig struct {
	OutputDir string
}

type ArtifactConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type HistoryConfig struct {
	Enabled         bool
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ATHENAQ_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ATHENAQ_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "ATHENAQ_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_AWS_REGION", &cfg.Athena.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_AWS_PROFILE", &cfg.Athena.AWSProfile); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_AWS_ACCESS_KEY_ID", &cfg.Athena.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_AWS_SECRET_ACCESS_KEY", &cfg.Athena.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_AWS_SESSION_TOKEN", &cfg.Athena.SessionToken); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_DATABASE", &cfg.Athena.Database); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_WORKGROUP", &cfg.Athena.Workgroup); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_OUTPUT_LOCATION", &cfg.Athena.OutputLocation); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_QUERY_DIR", &cfg.Query.Dir); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ATHENAQ_POLL_INTERVAL", &cfg.Runner.PollInterval); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ATHENAQ_MAX_WAIT", &cfg.Runner.MaxWait); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ATHENAQ_PAGE_SIZE", &cfg.Runner.PageSize); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_REPORT_DIR", &cfg.Report.OutputDir); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ATHENAQ_ARTIFACT_ENABLED", &cfg.Artifact.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_ARTIFACT_ENDPOINT", &cfg.Artifact.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_ARTIFACT_REGION", &cfg.Artifact.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_ARTIFACT_BUCKET", &cfg.Artifact.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_ARTIFACT_ACCESS_KEY", &cfg.Artifact.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_ARTIFACT_SECRET_KEY", &cfg.Artifact.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ATHENAQ_ARTIFACT_USE_SSL", &cfg.Artifact.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_ARTIFACT_PREFIX", &cfg.Artifact.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ATHENAQ_ARTIFACT_AUTO_CREATE_BUCKET", &cfg.Artifact.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ATHENAQ_HISTORY_ENABLED", &cfg.History.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ATHENAQ_HISTORY_DSN", &cfg.History.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ATHENAQ_HISTORY_MAX_OPEN_CONNS", &cfg.History.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ATHENAQ_HISTORY_MAX_IDLE_CONNS", &cfg.History.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ATHENAQ_HISTORY_CONN_MAX_IDLE_TIME", &cfg.History.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ATHENAQ_HISTORY_CONN_MAX_LIFETIME", &cfg.History.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ATHENAQ_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "ATHENAQ_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.Runner.PollInterval <= 0 {
		return Config{}, fmt.Errorf("ATHENAQ_POLL_INTERVAL must be > 0")
	}
	if cfg.Runner.MaxWait < 0 {
		return Config{}, fmt.Errorf("ATHENAQ_MAX_WAIT must be >= 0")
	}
	if cfg.Runner.PageSize <= 0 || cfg.Runner.PageSize > 1000 {
		return Config{}, fmt.Errorf("ATHENAQ_PAGE_SIZE must be in 1..1000")
	}
	if cfg.Artifact.Enabled && strings.TrimSpace(cfg.Artifact.Bucket) == "" {
		return Config{}, fmt.Errorf("ATHENAQ_ARTIFACT_BUCKET is required when artifact upload is enabled")
	}
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.DSN) == "" {
		return Config{}, fmt.Errorf("ATHENAQ_HISTORY_DSN is required when history is enabled")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "athenaq"},
		Athena: AthenaConfig{
			Region:    "us-east-1",
			Database:  "telemetry",
			Workgroup: "primary",
		},
		Query: QueryConfig{Dir: "queries"},
		Runner: RunnerConfig{
			PollInterval: time.Second,
			MaxWait:      0,
			PageSize:     1000,
		},
		Report: ReportConfig{OutputDir: "output"},
		Artifact: ArtifactConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "athenaq-reports",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			AutoCreateBucket: true,
		},
		History: HistoryConfig{
			Enabled:         false,
			DSN:             "",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Artifact.UseSSL = true
		cfg.Artifact.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
