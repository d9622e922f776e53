package bootstrap

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 存储和结果驱动
const (
	StoreDriverFile  = "file"
	StoreDriverMySQL = "mysql"

	ResultsDriverLocal = "local"
	ResultsDriverMinio = "minio"
)

// Config 结构体用于存储从环境变量或 .env 文件加载的配置
type Config struct {
	AppEnv            string `env:"APP_ENV" envDefault:"development"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	ServerHost        string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort        string `env:"SERVER_PORT" envDefault:"5000"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:5000"`

	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	StoreDriver string   `env:"STORE_DRIVER" envDefault:"file"`
	DataDir     string   `env:"DATA_DIR" envDefault:"data"`
	DB          DBConfig `envPrefix:"DB_"`

	Redis RedisConfig `envPrefix:"REDIS_"`

	ResultsDriver string      `env:"RESULTS_DRIVER" envDefault:"local"`
	ResultsDir    string      `env:"RESULTS_DIR" envDefault:"static/results"`
	Minio         MinioConfig `envPrefix:"MINIO_"`

	Inference InferenceConfig

	GenerateConcurrency int           `env:"GENERATE_CONCURRENCY" envDefault:"2"`
	MaxUploadMB         int64         `env:"MAX_UPLOAD_MB" envDefault:"16"`
	ResultJPEGQuality   int           `env:"RESULT_JPEG_QUALITY" envDefault:"95"`
	RateLimitMax        int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow     time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1s"`
	WorkerConcurrency   int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
}

// DBConfig 是 MySQL 连接参数，仅在 STORE_DRIVER=mysql 时使用
type DBConfig struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     string `env:"PORT" envDefault:"3306"`
	Name     string `env:"NAME" envDefault:"costume_swap"`
}

// RedisConfig 为空地址时不启用 Redis (不吊销会话、不限流、历史记录同步写入)
type RedisConfig struct {
	Addr      string `env:"ADDR"`
	Password  string `env:"PASSWORD"`
	DB        int    `env:"DB" envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"cs:"`
}

// MinioConfig 仅在 RESULTS_DRIVER=minio 时使用
type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"results"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// InferenceConfig 是推理服务参数
type InferenceConfig struct {
	URL           string        `env:"INFERENCE_URL" envDefault:"http://127.0.0.1:8500"`
	ModelRoot     string        `env:"MODEL_ROOT" envDefault:"."`
	DetectorModel string        `env:"DETECTOR_MODEL" envDefault:"buffalo_l"`
	SwapperModel  string        `env:"SWAPPER_MODEL" envDefault:"models/inswapper_128.onnx"`
	DetSize       string        `env:"DET_SIZE" envDefault:"640x640"`
	Timeout       time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"60s"`
}

// LoadConfig 从环境变量加载配置，.env 文件存在时优先加载
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量
	return ParseConfig(env.Options{})
}

// ParseConfig 解析并校验配置。opts.Environment 非空时使用给定的变量表而不是进程环境。
func ParseConfig(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverFile:
	case StoreDriverMySQL:
		if c.DB.User == "" {
			return fmt.Errorf("DB_USER must be set when STORE_DRIVER=%s", StoreDriverMySQL)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.ResultsDriver {
	case ResultsDriverLocal:
	case ResultsDriverMinio:
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT must be set when RESULTS_DRIVER=%s", ResultsDriverMinio)
		}
	default:
		return fmt.Errorf("unknown RESULTS_DRIVER %q", c.ResultsDriver)
	}

	if c.GenerateConcurrency <= 0 {
		return fmt.Errorf("GENERATE_CONCURRENCY must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.ResultJPEGQuality < 1 || c.ResultJPEGQuality > 100 {
		return fmt.Errorf("RESULT_JPEG_QUALITY must be between 1 and 100")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", c.LogLevel)
		c.LogLevel = "info"
	}
	return nil
}

// Addr 返回 HTTP 监听地址
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// RedisEnabled 表示是否配置了 Redis
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// IsProduction 表示是否运行在生产环境
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
