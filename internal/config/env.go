package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig carries everything questwatch reads from the process environment:
// upstream credentials, destination defaults, store location and
// observability wiring. It is constructed once at startup and passed into
// component constructors; nothing reads the environment after LoadEnv.
type EnvConfig struct {
	ConfigPath string
	RunOnce    bool
	Discord    DiscordEnvConfig
	Webhook    WebhookEnvConfig
	Store      StoreEnvConfig
	OTel       OTelEnvConfig
	SMTP       SMTPEnvConfig
}

// DiscordEnvConfig holds the upstream quest API credentials and transport knobs.
type DiscordEnvConfig struct {
	Authorization   string
	SuperProperties string
	BaseURL         string
	HTTPTimeout     time.Duration
	UserAgent       string
}

// WebhookEnvConfig holds outbound webhook defaults. URLs and AlertURLs are the
// raw delimited values; use ParseWebhookList to split them.
type WebhookEnvConfig struct {
	URLs        string
	AlertURLs   string
	HTTPTimeout time.Duration
}

type StoreEnvConfig struct {
	Path  string
	Table string
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

type SMTPEnvConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	From               string
	To                 string
	TLSMode            string
	InsecureSkipVerify bool
}

func LoadEnv() EnvConfig {
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	return EnvConfig{
		ConfigPath: envString("QUESTWATCH_CONFIG", "questwatch.yaml"),
		RunOnce:    envBool("RUN_ONCE", false),
		Discord: DiscordEnvConfig{
			Authorization:   strings.TrimSpace(envString("DISCORD_AUTHORIZATION", "")),
			SuperProperties: strings.TrimSpace(envString("TOKEN_JWT", "")),
			BaseURL:         strings.TrimSpace(envString("DISCORD_API_BASE_URL", "https://discord.com/api/v9")),
			HTTPTimeout:     envDuration("DISCORD_HTTP_TIMEOUT", 15*time.Second),
			UserAgent:       envString("DISCORD_USER_AGENT", defaultDiscordUserAgent),
		},
		Webhook: WebhookEnvConfig{
			URLs:        envString("WEBHOOK_URL", ""),
			AlertURLs:   envString("WEBHOOK_URL_ALERT", ""),
			HTTPTimeout: envDuration("WEBHOOK_HTTP_TIMEOUT", 10*time.Second),
		},
		Store: StoreEnvConfig{
			Path:  envString("QUESTWATCH_DB", "db/seen_quests.db"),
			Table: envString("QUESTWATCH_DB_TABLE", ""),
		},
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: strings.TrimSpace(envString("OTEL_SERVICE_NAME", "questwatch")),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
		SMTP: SMTPEnvConfig{
			Host:               envString("SMTP_HOST", ""),
			Port:               envInt("SMTP_PORT", 587),
			User:               envString("SMTP_USER", ""),
			Password:           envString("SMTP_PASSWORD", ""),
			From:               envString("SMTP_ALERT_FROM", ""),
			To:                 envString("SMTP_ALERT_TO", ""),
			TLSMode:            envString("SMTP_TLS_MODE", ""),
			InsecureSkipVerify: envBool("SMTP_INSECURE_SKIP_VERIFY", false),
		},
	}
}

// The quest endpoint rejects unfamiliar clients, so the default user agent
// mirrors the Discord desktop build.
const defaultDiscordUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) discord/1.0.9209 Chrome/134.0.6998.205 Electron/35.3.0 Safari/537.36"

// ParseWebhookList splits a comma- or semicolon-separated list of webhook
// URLs. Whitespace is trimmed and empty entries are removed.
func ParseWebhookList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	normalized := strings.ReplaceAll(raw, ";", ",")
	parts := strings.Split(normalized, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := parseDurationExtended(v)
	if err != nil {
		return fallback
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func defaultInsecure(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return u.Scheme == "http"
	}
	return strings.HasPrefix(endpoint, "localhost:") ||
		strings.HasPrefix(endpoint, "127.0.0.1:") ||
		strings.HasPrefix(endpoint, "0.0.0.0:")
}
