package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         int    `validate:"gt=0,lt=65536"`
	Password     string `validate:"required"`
	LogDirectory string `validate:"required"`
	DBPath       string `validate:"required"`

	CaptureSource  string // Urządzenie/URL dla gocv albo "udp"
	CaptureUDPPort int    `validate:"gt=0,lt=65536"`

	SampleInterval     time.Duration `validate:"gt=0"`
	Downscale          int           `validate:"gte=1"`
	PixelThreshold     int           `validate:"gte=0,lte=765"`
	ChangeThreshold    float64       `validate:"gt=0,lte=1"`
	LowChangeThreshold float64       `validate:"gt=0,lte=1,ltefield=ChangeThreshold"`
	StabilityFrames    int           `validate:"gte=1"`

	DetectModelPath     string
	RecognizeModelPath  string
	DetectInputSize     int     `validate:"gte=32"`
	DetectConfidence    float64 `validate:"gte=0,lte=1"`
	RecognizeConfidence float64 `validate:"gte=0,lte=1"`
	XOverlap            float64 `validate:"gte=0,lte=1"`
	Recognizer          string  `validate:"oneof=dnn tesseract"`
	TesseractLanguage   string

	DedupMode       string `validate:"oneof=last window"`
	HistoryCapacity int    `validate:"gte=1"`

	RecordBufferLimit   int           `validate:"gte=1"`
	RecordFlushInterval time.Duration `validate:"gt=0"`

	MQTTBroker   string // Pusty = publikowanie wyłączone
	MQTTTopic    string
	MQTTClientID string

	RedisAddress     string // Pusty = wyłączone
	RedisPassword    string
	RedisDB          int    `validate:"gte=0"`
	RedisChannel     string
	RedisRecentLimit int64 `validate:"gte=0"`

	WebhookURL     string        `validate:"omitempty,url"`
	WebhookTimeout time.Duration `validate:"gt=0"`
	WebhookRetries int           `validate:"gte=0"`

	AuthSecret   string
	AuthTTL      time.Duration `validate:"gt=0"`
	CookieSecure bool
	LoginRate    float64 `validate:"gt=0"`
	LoginBurst   int     `validate:"gte=1"`
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		Password:     getEnv("PASSWORD", "textwatch"),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DBPath:       getEnv("DB_PATH", filepath.Join(".", "data", "textwatch.db")),

		CaptureSource:  getEnv("CAPTURE_SOURCE", "0"),
		CaptureUDPPort: getEnvAsInt("CAPTURE_UDP_PORT", 9000),

		SampleInterval:     getEnvAsDuration("SAMPLE_INTERVAL", 80*time.Millisecond),
		Downscale:          getEnvAsInt("DOWNSCALE", 4),
		PixelThreshold:     getEnvAsInt("PIXEL_THRESHOLD", 20),
		ChangeThreshold:    getEnvAsFloat("CHANGE_THRESHOLD", 0.015),
		LowChangeThreshold: getEnvAsFloat("LOW_CHANGE_THRESHOLD", 0.01),
		StabilityFrames:    getEnvAsInt("STABILITY_FRAMES", 3),

		DetectModelPath:     getEnv("DETECT_MODEL_PATH", filepath.Join(".", "models", "text_det.onnx")),
		RecognizeModelPath:  getEnv("RECOGNIZE_MODEL_PATH", filepath.Join(".", "models", "text_rec.onnx")),
		DetectInputSize:     getEnvAsInt("DETECT_INPUT_SIZE", 960),
		DetectConfidence:    getEnvAsFloat("DETECT_CONFIDENCE", 0.3),
		RecognizeConfidence: getEnvAsFloat("RECOGNIZE_CONFIDENCE", 0.1),
		XOverlap:            getEnvAsFloat("X_OVERLAP", 0.3),
		Recognizer:          getEnv("RECOGNIZER", "dnn"),
		TesseractLanguage:   getEnv("TESSERACT_LANG", "jpn"),

		DedupMode:       getEnv("DEDUP_MODE", "last"),
		HistoryCapacity: getEnvAsInt("HISTORY_CAPACITY", 10),

		RecordBufferLimit:   getEnvAsInt("RECORD_BUFFER_LIMIT", 50),
		RecordFlushInterval: getEnvAsDuration("RECORD_FLUSH_INTERVAL", 10*time.Second),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "textwatch/lines"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "textwatch"),

		RedisAddress:     getEnv("REDIS_ADDRESS", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		RedisChannel:     getEnv("REDIS_CHANNEL", "textwatch:lines"),
		RedisRecentLimit: int64(getEnvAsInt("REDIS_RECENT_LIMIT", 100)),

		WebhookURL:     getEnv("WEBHOOK_URL", ""),
		WebhookTimeout: getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookRetries: getEnvAsInt("WEBHOOK_RETRIES", 2),

		AuthSecret:   getEnv("AUTH_SECRET", ""),
		AuthTTL:      getEnvAsDuration("AUTH_TTL", 30*24*time.Hour),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		LoginRate:    getEnvAsFloat("LOGIN_RATE", 0.2),
		LoginBurst:   getEnvAsInt("LOGIN_BURST", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// TokenSecret is the HMAC key for auth tokens. It falls back to the password,
// so changing the password logs every viewer out.
func (c *Config) TokenSecret() []byte {
	if c.AuthSecret != "" {
		return []byte(c.AuthSecret)
	}
	return []byte(c.Password)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
