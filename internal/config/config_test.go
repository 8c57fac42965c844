package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_DiscordTokenRequired(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DISCORD_BOT_TOKEN")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "otterball" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.PollCreationWindow != 168*time.Hour {
		t.Fatalf("unexpected poll creation window: %s", cfg.PollCreationWindow)
	}
	if cfg.PollDuration != 168*time.Hour {
		t.Fatalf("unexpected poll duration: %s", cfg.PollDuration)
	}
	if cfg.ResultDeleteDelay != time.Hour {
		t.Fatalf("unexpected result delete delay: %s", cfg.ResultDeleteDelay)
	}
	if cfg.WagerSyncWorkers != 8 {
		t.Fatalf("unexpected wager sync workers: %d", cfg.WagerSyncWorkers)
	}
	if cfg.LocalDispatchInterval != 5*time.Minute {
		t.Fatalf("unexpected local dispatch interval: %s", cfg.LocalDispatchInterval)
	}
	if !cfg.DBDisablePreparedBinary {
		t.Fatalf("expected DBDisablePreparedBinary=true by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected default cors origins: %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.ESPNEnabled {
		t.Fatalf("expected ESPNEnabled=true by default")
	}
	if !cfg.DiscordCircuit.Enabled {
		t.Fatalf("expected discord circuit enabled by default")
	}
}

func TestLoad_SeasonValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")

	t.Run("rejects pre-1999 seasons", func(t *testing.T) {
		t.Setenv("NFL_SEASON", "1998")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for NFL_SEASON before 1999")
		}
	})

	t.Run("accepts explicit season", func(t *testing.T) {
		t.Setenv("NFL_SEASON", "2025")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.Season != 2025 {
			t.Fatalf("unexpected season: %d", cfg.Season)
		}
	})
}

func TestLoad_CircuitConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("ESPN_CIRCUIT_ENABLED", "false")
	t.Setenv("ESPN_CIRCUIT_FAILURE_COUNT", "9")
	t.Setenv("ESPN_CIRCUIT_OPEN_TIMEOUT", "30s")
	t.Setenv("ESPN_CIRCUIT_HALF_OPEN_MAX_REQ", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ESPNCircuit.Enabled {
		t.Fatalf("expected espn circuit disabled")
	}
	if cfg.ESPNCircuit.FailureThreshold != 9 {
		t.Fatalf("unexpected failure threshold: %d", cfg.ESPNCircuit.FailureThreshold)
	}
	if cfg.ESPNCircuit.OpenTimeout != 30*time.Second {
		t.Fatalf("unexpected open timeout: %s", cfg.ESPNCircuit.OpenTimeout)
	}
	if cfg.ESPNCircuit.HalfOpenMaxReq != 4 {
		t.Fatalf("unexpected half open max req: %d", cfg.ESPNCircuit.HalfOpenMaxReq)
	}

	t.Run("invalid failure count", func(t *testing.T) {
		t.Setenv("ESPN_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for zero failure count")
		}
	})
}

func TestLoad_QStashConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=false by default")
		}
	})

	t.Run("enabled requires token and target and internal token", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "")
		t.Setenv("QSTASH_TARGET_BASE_URL", "")
		t.Setenv("INTERNAL_JOB_TOKEN", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QSTASH_ENABLED=true without required env")
		}
	})

	t.Run("enabled with required values", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://otterball.fly.dev")
		t.Setenv("INTERNAL_JOB_TOKEN", "internal-job-token")
		t.Setenv("QSTASH_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=true")
		}
		if cfg.QStashRetries != 2 {
			t.Fatalf("unexpected qstash retries: %d", cfg.QStashRetries)
		}
		if cfg.InternalJobToken != "internal-job-token" {
			t.Fatalf("unexpected internal job token: %q", cfg.InternalJobToken)
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("APP_SERVICE_NAME", "otterball-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "otterball-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}
