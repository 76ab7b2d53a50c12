package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the explicit configuration object handed to each component's
// constructor. Nothing in internal/ reads ambient process state directly,
// so tests can swap in fake transports and classifiers.
type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	PostgresURI string `env:"POSTGRES_URI" env-required:"true"`
	RedisAddr   string `env:"REDIS_ADDR" env-required:"true"`

	JWT      JWTConfig
	Storage  StorageConfig
	Speech   SpeechConfig
	Vertex   VertexConfig
	SMTP     SMTPConfig
	Pipeline PipelineConfig
}

type JWTConfig struct {
	Secret   string `env:"JWT_SECRET" env-required:"true"`
	Issuer   string `env:"JWT_ISSUER"`
	Audience string `env:"JWT_AUDIENCE"`
}

type StorageConfig struct {
	Bucket string `env:"GCS_BUCKET" env-required:"true"`
}

type SpeechConfig struct {
	SampleRateHz int32  `env:"SPEECH_SAMPLE_RATE_HZ" env-default:"16000"`
	LanguageCode string `env:"SPEECH_LANGUAGE" env-default:"en-US"`
}

type VertexConfig struct {
	ProjectID string `env:"VERTEX_PROJECT_ID" env-required:"true"`
	Location  string `env:"VERTEX_LOCATION" env-default:"us-central1"`
	Model     string `env:"VERTEX_MODEL" env-default:"gemini-1.5-flash"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" env-default:"alerts@havenloop.app"`
	SSL      bool   `env:"SMTP_SSL" env-default:"false"`
}

type PipelineConfig struct {
	Workers int    `env:"PIPELINE_WORKERS" env-default:"4"`
	Stream  string `env:"PIPELINE_STREAM" env-default:"audio:analyze"`
	Group   string `env:"PIPELINE_GROUP" env-default:"audio-workers"`

	// Transcripts below this confidence are routed to onboarding fallback.
	MinTranscriptionConfidence float64 `env:"MIN_TRANSCRIPTION_CONFIDENCE" env-default:"0.6"`
	// Classifier inputs below this many whitespace tokens are rejected
	// before the reasoning service is called.
	MinClassifierTokens int `env:"MIN_CLASSIFIER_TOKENS" env-default:"3"`

	MaxAudioBytes int64 `env:"MAX_AUDIO_BYTES" env-default:"26214400"` // 25MB

	TranscribeTimeout time.Duration `env:"TRANSCRIBE_TIMEOUT" env-default:"60s"`
	ClassifyTimeout   time.Duration `env:"CLASSIFY_TIMEOUT" env-default:"45s"`
	SendTimeout       time.Duration `env:"SEND_TIMEOUT" env-default:"20s"`

	// Lower-severity templates may include the transcript; the critical
	// template never does.
	IncludeTranscript bool `env:"ALERT_INCLUDE_TRANSCRIPT" env-default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
