package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// ChatEvents toggles which connector events the pipeline reacts to.
type ChatEvents struct {
	Redemption    bool `yaml:"redemption"`
	Bits          bool `yaml:"bits"`
	Sub           bool `yaml:"sub"`
	Resub         bool `yaml:"resub"`
	SubGift       bool `yaml:"sub_gift"`
	CommunityGift bool `yaml:"community_gift"`
	PrimeUpgrade  bool `yaml:"prime_upgrade"`
	GiftUpgrade   bool `yaml:"gift_upgrade"`
}

type ChatConfig struct {
	Channel           string     `yaml:"channel"`
	RedemptionTrigger string     `yaml:"redemption_trigger"`
	MinBits           int        `yaml:"min_bits"`
	Events            ChatEvents `yaml:"events"`
}

type ModerationConfig struct {
	Enabled bool `yaml:"enabled"`
}

type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type ElevenLabsConfig struct {
	APIKey          string  `yaml:"api_key"`
	Endpoint        string  `yaml:"endpoint"`
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
}

type TranslateConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type TTSConfig struct {
	Mode       string           `yaml:"mode"` // elevenlabs, translate, mock
	Language   string           `yaml:"language"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	Translate  TranslateConfig  `yaml:"translate"`
}

type PlaybackConfig struct {
	Command       string `yaml:"command"`
	FillerDir     string `yaml:"filler_dir"`
	AnnounceGapMS int    `yaml:"announce_gap_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxTriggers   int    `yaml:"max_triggers"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Chat        ChatConfig       `yaml:"chat"`
	Moderation  ModerationConfig `yaml:"moderation"`
	OpenAI      OpenAIConfig     `yaml:"openai"`
	TTS         TTSConfig        `yaml:"tts"`
	Playback    PlaybackConfig   `yaml:"playback"`
	PromptsPath string           `yaml:"prompts_path"`
	EventStore  EventStoreConfig `yaml:"event_store"`
}

func Default() Config {
	return Config{
		RuntimeName: "voxcast-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 3000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Chat: ChatConfig{
			RedemptionTrigger: "Talk to the AI",
			MinBits:           0,
			Events: ChatEvents{
				Redemption: true,
				Bits:       true,
			},
		},
		Moderation: ModerationConfig{
			Enabled: true,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   256,
			Temperature: 0.8,
		},
		TTS: TTSConfig{
			Mode:     "translate",
			Language: "fr",
			ElevenLabs: ElevenLabsConfig{
				Endpoint:        "https://api.elevenlabs.io",
				ModelID:         "eleven_multilingual_v1",
				Stability:       0.5,
				SimilarityBoost: 0.5,
			},
			Translate: TranslateConfig{
				Endpoint: "https://translate.google.com",
			},
		},
		Playback: PlaybackConfig{
			Command:       "mpg123 -q -",
			FillerDir:     "./wait_audio",
			AnnounceGapMS: 1000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/voxcast-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxTriggers:   10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VOXCAST_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VOXCAST_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VOXCAST_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOXCAST_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VOXCAST_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOXCAST_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOXCAST_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "VOXCAST_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOXCAST_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOXCAST_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VOXCAST_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VOXCAST_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VOXCAST_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VOXCAST_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOXCAST_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Chat.Channel, "VOXCAST_CHAT_CHANNEL")
	overrideString(&cfg.Chat.RedemptionTrigger, "VOXCAST_CHAT_REDEMPTION_TRIGGER")
	overrideInt(&cfg.Chat.MinBits, "VOXCAST_CHAT_MIN_BITS")
	overrideBool(&cfg.Chat.Events.Redemption, "VOXCAST_CHAT_EVENT_REDEMPTION")
	overrideBool(&cfg.Chat.Events.Bits, "VOXCAST_CHAT_EVENT_BITS")
	overrideBool(&cfg.Chat.Events.Sub, "VOXCAST_CHAT_EVENT_SUB")
	overrideBool(&cfg.Chat.Events.Resub, "VOXCAST_CHAT_EVENT_RESUB")
	overrideBool(&cfg.Chat.Events.SubGift, "VOXCAST_CHAT_EVENT_SUB_GIFT")
	overrideBool(&cfg.Chat.Events.CommunityGift, "VOXCAST_CHAT_EVENT_COMMUNITY_GIFT")
	overrideBool(&cfg.Chat.Events.PrimeUpgrade, "VOXCAST_CHAT_EVENT_PRIME_UPGRADE")
	overrideBool(&cfg.Chat.Events.GiftUpgrade, "VOXCAST_CHAT_EVENT_GIFT_UPGRADE")
	overrideBool(&cfg.Moderation.Enabled, "VOXCAST_MODERATION_ENABLED")
	overrideString(&cfg.OpenAI.APIKey, "VOXCAST_OPENAI_API_KEY")
	overrideString(&cfg.OpenAI.Endpoint, "VOXCAST_OPENAI_ENDPOINT")
	overrideString(&cfg.OpenAI.Model, "VOXCAST_OPENAI_MODEL")
	overrideInt(&cfg.OpenAI.MaxTokens, "VOXCAST_OPENAI_MAX_TOKENS")
	overrideFloat(&cfg.OpenAI.Temperature, "VOXCAST_OPENAI_TEMPERATURE")
	overrideString(&cfg.TTS.Mode, "VOXCAST_TTS_MODE")
	overrideString(&cfg.TTS.Language, "VOXCAST_TTS_LANGUAGE")
	overrideString(&cfg.TTS.ElevenLabs.APIKey, "VOXCAST_TTS_ELEVENLABS_API_KEY")
	overrideString(&cfg.TTS.ElevenLabs.Endpoint, "VOXCAST_TTS_ELEVENLABS_ENDPOINT")
	overrideString(&cfg.TTS.ElevenLabs.VoiceID, "VOXCAST_TTS_ELEVENLABS_VOICE_ID")
	overrideString(&cfg.TTS.ElevenLabs.ModelID, "VOXCAST_TTS_ELEVENLABS_MODEL_ID")
	overrideFloat(&cfg.TTS.ElevenLabs.Stability, "VOXCAST_TTS_ELEVENLABS_STABILITY")
	overrideFloat(&cfg.TTS.ElevenLabs.SimilarityBoost, "VOXCAST_TTS_ELEVENLABS_SIMILARITY_BOOST")
	overrideString(&cfg.TTS.Translate.Endpoint, "VOXCAST_TTS_TRANSLATE_ENDPOINT")
	overrideString(&cfg.Playback.Command, "VOXCAST_PLAYBACK_COMMAND")
	overrideString(&cfg.Playback.FillerDir, "VOXCAST_PLAYBACK_FILLER_DIR")
	overrideInt(&cfg.Playback.AnnounceGapMS, "VOXCAST_PLAYBACK_ANNOUNCE_GAP_MS")
	overrideString(&cfg.PromptsPath, "VOXCAST_PROMPTS_PATH")
	overrideString(&cfg.EventStore.Path, "VOXCAST_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "VOXCAST_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "VOXCAST_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxTriggers, "VOXCAST_EVENT_STORE_MAX_TRIGGERS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "VOXCAST_EVENT_STORE_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Chat.Events.Redemption && cfg.Chat.RedemptionTrigger == "" {
		return errors.New("chat.redemption_trigger must not be empty when redemption events are enabled")
	}
	if cfg.Chat.MinBits < 0 {
		return errors.New("chat.min_bits must be >= 0")
	}
	switch cfg.TTS.Mode {
	case "elevenlabs", "translate", "mock":
	default:
		return errors.New("tts.mode must be one of elevenlabs|translate|mock")
	}
	if cfg.TTS.Mode == "elevenlabs" {
		if cfg.TTS.ElevenLabs.APIKey == "" {
			return errors.New("tts.elevenlabs.api_key must be set when mode=elevenlabs")
		}
		if cfg.TTS.ElevenLabs.VoiceID == "" {
			return errors.New("tts.elevenlabs.voice_id must be set when mode=elevenlabs")
		}
	}
	if s := cfg.TTS.ElevenLabs.Stability; s < 0 || s > 1 {
		return errors.New("tts.elevenlabs.stability must be within [0, 1]")
	}
	if s := cfg.TTS.ElevenLabs.SimilarityBoost; s < 0 || s > 1 {
		return errors.New("tts.elevenlabs.similarity_boost must be within [0, 1]")
	}
	if cfg.Playback.Command == "" {
		return errors.New("playback.command must not be empty")
	}
	if cfg.Playback.AnnounceGapMS < 0 {
		return errors.New("playback.announce_gap_ms must be >= 0")
	}
	if cfg.EventStore.Path == "" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	return nil
}
