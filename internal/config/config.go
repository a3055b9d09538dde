package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Twilio TwilioConfig
	AI     AIConfig
	Calls  CallsConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable base URL used to build
	// provider callback URLs (voice webhook, status callback).
	PublicBaseURL string

	// AudioDir is where synthesized audio files are written; served under
	// the /audio static route.
	AudioDir string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// VoiceNumber is the caller id for outbound persona calls (E.164).
	VoiceNumber string
	// WhatsAppNumber is the sender number for the WhatsApp surface.
	WhatsAppNumber string
}

type AIConfig struct {
	OpenAIKey string
	// OpenAIBaseURL optionally points the client at an OpenAI-compatible
	// gateway (e.g. OpenRouter). Empty means api.openai.com.
	OpenAIBaseURL string
	ChatModel     string
	WhisperModel  string

	ElevenLabsKey     string
	ElevenLabsModelID string

	// RequestTimeout is the fixed per-request budget at each provider
	// boundary. A timeout surfaces as a provider error; no retries here.
	RequestTimeout time.Duration
}

type CallsConfig struct {
	// TriggerPhrase is compared against trimmed, lower-cased inbound bodies.
	TriggerPhrase string

	// HistoryWindow is the max number of messages included in a prompt.
	HistoryWindow int

	// MaxConcurrentPerUser caps simultaneous outbound calls per user.
	MaxConcurrentPerUser int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	c.App.AudioDir = strings.TrimSpace(os.Getenv("AUDIO_DIR"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.VoiceNumber = strings.TrimSpace(os.Getenv("TWILIO_VOICE_NUMBER"))
	c.Twilio.WhatsAppNumber = strings.TrimSpace(os.Getenv("TWILIO_WHATSAPP_NUMBER"))

	c.AI.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AI.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	c.AI.ChatModel = strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	c.AI.WhisperModel = strings.TrimSpace(os.Getenv("OPENAI_WHISPER_MODEL"))
	c.AI.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	c.AI.ElevenLabsModelID = strings.TrimSpace(os.Getenv("ELEVENLABS_MODEL_ID"))
	c.AI.RequestTimeout = optDuration("AI_REQUEST_TIMEOUT")

	c.Calls.TriggerPhrase = strings.TrimSpace(os.Getenv("CALL_TRIGGER_PHRASE"))
	c.Calls.HistoryWindow = optInt("CHAT_HISTORY_WINDOW")
	c.Calls.MaxConcurrentPerUser = optInt("MAX_CONCURRENT_CALLS_PER_USER")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required (provider callbacks depend on it)"))
	}
	if c.App.AudioDir == "" {
		c.App.AudioDir = "./data/audio"
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 24 * time.Hour
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.VoiceNumber == "" {
		errs = append(errs, errors.New("TWILIO_VOICE_NUMBER is required"))
	}

	if c.AI.OpenAIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.AI.ChatModel == "" {
		c.AI.ChatModel = "gpt-4o-mini"
	}
	if c.AI.WhisperModel == "" {
		c.AI.WhisperModel = "whisper-1"
	}
	if c.AI.ElevenLabsModelID == "" {
		c.AI.ElevenLabsModelID = "eleven_turbo_v2"
	}
	if c.AI.RequestTimeout <= 0 {
		c.AI.RequestTimeout = 60 * time.Second
	}

	if c.Calls.TriggerPhrase == "" {
		c.Calls.TriggerPhrase = "hi"
	}
	if c.Calls.HistoryWindow <= 0 {
		c.Calls.HistoryWindow = 10
	}
	if c.Calls.MaxConcurrentPerUser <= 0 {
		c.Calls.MaxConcurrentPerUser = 1
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// VoiceCallbackURL is the endpoint Twilio fetches TwiML from when the callee answers.
func (c Config) VoiceCallbackURL() string {
	return c.App.PublicBaseURL + "/webhooks/twilio/voice"
}

// StatusCallbackURL receives call lifecycle status events.
func (c Config) StatusCallbackURL() string {
	return c.App.PublicBaseURL + "/webhooks/twilio/status"
}

// WhatsAppWebhookURL receives inbound WhatsApp messages.
func (c Config) WhatsAppWebhookURL() string {
	return c.App.PublicBaseURL + "/webhooks/whatsapp"
}

// AudioBaseURL is the public prefix synthesized audio is served under.
func (c Config) AudioBaseURL() string {
	return c.App.PublicBaseURL + "/audio"
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
