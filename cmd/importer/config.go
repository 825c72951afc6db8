package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"runrun-importer/runrun"
	"runrun-importer/runrun/application"
	"runrun-importer/runrun/domain"

	"github.com/spf13/viper"
)

type config struct {
	appKey    string
	userToken string
	baseURL   string

	maxPerMinute  int
	windowSeconds int
	maxAttempts   int
	limiter       string
	httpTimeout   time.Duration

	customPrefix string
	defaults     domain.Defaults
	storageURL   string

	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration

	tracingExporter string
}

func (c config) window() time.Duration { return time.Duration(c.windowSeconds) * time.Second }

func (c config) hasCredentials() bool { return c.appKey != "" && c.userToken != "" }

// newViper monta a instância com defaults e variáveis de ambiente.
// Credenciais: RUNRUNIT_APP_KEY / RUNRUNIT_USER_TOKEN. Demais chaves: RUNRUN_<CHAVE>
// (ex.: RUNRUN_MAX_PER_MINUTE, RUNRUN_STATS_REDIS_ADDR).
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", runrun.DefaultBaseURL)
	v.SetDefault("max_per_minute", 100)
	v.SetDefault("window_seconds", 60)
	v.SetDefault("max_attempts", runrun.DefaultMaxAttempts)
	v.SetDefault("limiter", "sliding")
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("custom_prefix", application.DefaultCustomPrefix)
	v.SetDefault("defaults.description", "")
	v.SetDefault("storage_url", runrun.DefaultStorageURL)
	v.SetDefault("stats.redis_addr", "")
	v.SetDefault("stats.redis_password", "")
	v.SetDefault("stats.redis_db", 0)
	v.SetDefault("stats.prefix", "runrun:import")
	v.SetDefault("stats.ttl", 7*24*time.Hour)
	v.SetDefault("tracing.exporter", "none")

	v.SetEnvPrefix("RUNRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("app_key", "RUNRUNIT_APP_KEY", "RUNRUN_APP_KEY")
	_ = v.BindEnv("user_token", "RUNRUNIT_USER_TOKEN", "RUNRUN_USER_TOKEN")
	_ = v.BindEnv("defaults.type_id", "RUNRUN_DEFAULTS_TYPE_ID")
	_ = v.BindEnv("defaults.project_id", "RUNRUN_DEFAULTS_PROJECT_ID")
	return v
}

// readConfigFile carrega o YAML indicado; sem caminho, procura importer.yaml
// no diretório atual e segue só com defaults se não existir.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("importer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func configFromViper(v *viper.Viper) config {
	cfg := config{
		appKey:    strings.TrimSpace(v.GetString("app_key")),
		userToken: strings.TrimSpace(v.GetString("user_token")),
		baseURL:   v.GetString("base_url"),

		maxPerMinute:  v.GetInt("max_per_minute"),
		windowSeconds: v.GetInt("window_seconds"),
		maxAttempts:   v.GetInt("max_attempts"),
		limiter:       strings.ToLower(strings.TrimSpace(v.GetString("limiter"))),
		httpTimeout:   v.GetDuration("http_timeout"),

		customPrefix: v.GetString("custom_prefix"),
		storageURL:   v.GetString("storage_url"),

		statsRedisAddr:     v.GetString("stats.redis_addr"),
		statsRedisPassword: v.GetString("stats.redis_password"),
		statsRedisDB:       v.GetInt("stats.redis_db"),
		statsPrefix:        v.GetString("stats.prefix"),
		statsTTL:           v.GetDuration("stats.ttl"),

		tracingExporter: v.GetString("tracing.exporter"),
	}

	cfg.defaults.Description = v.GetString("defaults.description")
	if v.IsSet("defaults.type_id") && v.GetString("defaults.type_id") != "" {
		n := v.GetInt64("defaults.type_id")
		cfg.defaults.TypeID = &n
	}
	if v.IsSet("defaults.project_id") && v.GetString("defaults.project_id") != "" {
		n := v.GetInt64("defaults.project_id")
		cfg.defaults.ProjectID = &n
	}
	return cfg
}

// validate segue o gateway: erros de configuração abortam antes de qualquer I/O.
func (c config) validate(requireCredentials bool) error {
	if requireCredentials && !c.hasCredentials() {
		return errors.New("RUNRUNIT_APP_KEY and RUNRUNIT_USER_TOKEN are required")
	}
	if c.maxPerMinute <= 0 {
		return errors.New("max_per_minute must be > 0")
	}
	if c.windowSeconds <= 0 {
		return errors.New("window_seconds must be > 0")
	}
	if c.maxAttempts <= 0 {
		return errors.New("max_attempts must be > 0")
	}
	switch c.limiter {
	case "sliding", "token":
	default:
		return fmt.Errorf("limiter must be sliding or token, got %q", c.limiter)
	}
	if strings.TrimSpace(c.baseURL) == "" {
		return errors.New("base_url is required")
	}
	return nil
}
