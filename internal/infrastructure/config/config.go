package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo      MongoConfig
	Redis      RedisConfig
	Challenge  ChallengeConfig
	Enrollment EnrollmentConfig
	Policy     PolicyConfig
	Adapters   AdapterConfig
	Models     ModelConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=voiceguard"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD, default="`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// ChallengeConfig tunes phrase-challenge issuance.
type ChallengeConfig struct {
	TTL             time.Duration `env:"CHALLENGE_TTL,              default=3m"`
	ExclusionWindow int           `env:"CHALLENGE_EXCLUSION_WINDOW, default=10"`
	PerWindowLimit  int64         `env:"CHALLENGE_HOURLY_LIMIT,     default=30"`
	MaxActive       int64         `env:"CHALLENGE_MAX_ACTIVE,       default=3"`
	Difficulty      string        `env:"CHALLENGE_DIFFICULTY"`
}

// EnrollmentConfig tunes enrollment sessions and the sample quality gate.
type EnrollmentConfig struct {
	SessionTTL    time.Duration `env:"ENROLLMENT_SESSION_TTL,    default=30m"`
	TargetSamples int           `env:"ENROLLMENT_TARGET_SAMPLES, default=3"`
	MaxSamples    int           `env:"ENROLLMENT_MAX_SAMPLES,    default=10"`
	MinSNRDb      float64       `env:"ENROLLMENT_MIN_SNR_DB,     default=12"`
	MinDuration   time.Duration `env:"ENROLLMENT_MIN_DURATION,   default=1500ms"`
	SweepInterval time.Duration `env:"ENROLLMENT_SWEEP_INTERVAL, default=1m"`
}

// PolicyConfig carries the decision-engine thresholds. Injected so
// operational tuning never requires a rebuild.
type PolicyConfig struct {
	SimilarityThreshold float64       `env:"POLICY_SIMILARITY_THRESHOLD, default=0.65"`
	SpoofThreshold      float64       `env:"POLICY_SPOOF_THRESHOLD,      default=0.50"`
	PhraseThreshold     float64       `env:"POLICY_PHRASE_THRESHOLD,     default=0.70"`
	CheckOrder          []string      `env:"POLICY_CHECK_ORDER,          default=similarity,spoof,phrase"`
	MaxFailures         int           `env:"POLICY_MAX_FAILURES,         default=5"`
	Lockout             time.Duration `env:"POLICY_LOCKOUT,              default=15m"`
}

// AdapterConfig carries the per-adapter score budgets and the anti-spoof
// fusion parameters. SpoofWeights must match the sub-model count and sum
// to 1; the default skews toward the higher-precision sub-model.
type AdapterConfig struct {
	SpeakerTimeout  time.Duration `env:"ADAPTER_SPEAKER_TIMEOUT, default=4s"`
	SpoofTimeout    time.Duration `env:"ADAPTER_SPOOF_TIMEOUT,   default=6s"`
	PhraseTimeout   time.Duration `env:"ADAPTER_PHRASE_TIMEOUT,  default=2s"`
	SpoofWeights    []float64     `env:"ADAPTER_SPOOF_WEIGHTS,   default=0.7,0.3"`
	IndicatorQuorum int           `env:"ADAPTER_INDICATOR_QUORUM, default=2"`
	SampleRate      int           `env:"ADAPTER_SAMPLE_RATE,     default=16000"`
}

// ModelConfig points at the external scoring back-ends.
type ModelConfig struct {
	EmbeddingURL   string `env:"MODEL_EMBEDDING_URL,   default=http://localhost:8091"`
	SpoofPrimary   string `env:"MODEL_SPOOF_PRIMARY_URL,   default=http://localhost:8092"`
	SpoofSecondary string `env:"MODEL_SPOOF_SECONDARY_URL, default=http://localhost:8093"`
	TranscriberURL string `env:"MODEL_TRANSCRIBER_URL, default=http://localhost:8094"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
