package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string `mapstructure:"PORT"`     // サーバーポート（8080）
	GoEnv    string `mapstructure:"GO_ENV"`   // dev/prod
	LogLevel string `mapstructure:"LOG_LEVEL"` // debug/info/warn/error

	DatabaseURL      string `mapstructure:"DATABASE_URL"` // あれば最優先
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	JWTSecret string        `mapstructure:"JWT_SECRET"` // JWT署名シークレット
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`    // アクセストークンの有効期限

	FEURL     string `mapstructure:"FE_URL"`     // フロントURL（CORS・決済結果のリダイレクト先）
	UploadDir string `mapstructure:"UPLOAD_DIR"` // サムネイルの保存先
	// 1IPあたりの秒間リクエスト数。0で無効
	RateLimit float64 `mapstructure:"RATE_LIMIT"`

	// 空ならRedisを使わずプロセス内だけで配信
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	OrderEventsChannel string `mapstructure:"ORDER_EVENTS_CHANNEL"`

	VNPayTmnCode    string `mapstructure:"VNP_TMN_CODE"`
	VNPayHashSecret string `mapstructure:"VNP_HASH_SECRET"`
	VNPayURL        string `mapstructure:"VNP_URL"`
	VNPayReturnURL  string `mapstructure:"VNP_RETURN_URL"`
	VNPayBankCode   string `mapstructure:"VNP_BANK_CODE"`

	// 決済後にブラウザを戻すフロントの画面
	PaymentResultURL string `mapstructure:"PAYMENT_RESULT_URL"`
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

var keys = []string{
	"PORT", "GO_ENV", "LOG_LEVEL",
	"DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
	"JWT_SECRET", "JWT_TTL",
	"FE_URL", "UPLOAD_DIR", "RATE_LIMIT",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "ORDER_EVENTS_CHANNEL",
	"VNP_TMN_CODE", "VNP_HASH_SECRET", "VNP_URL", "VNP_RETURN_URL", "VNP_BANK_CODE",
	"PAYMENT_RESULT_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "ecshop")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("FE_URL", "http://localhost:3000")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("RATE_LIMIT", 20)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ORDER_EVENTS_CHANNEL", "ecshop:order_updated")
	v.SetDefault("VNP_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	v.SetDefault("VNP_BANK_CODE", "NCB")
}

// Loadは.env（あれば）と環境変数から読む
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		//無くてもよい
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	//AutomaticEnvだけだとUnmarshalに乗らないのでbindする
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if cfg.PaymentResultURL == "" {
		cfg.PaymentResultURL = strings.TrimRight(cfg.FEURL, "/") + "/payment-callback"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.DatabaseURL == "" && c.PostgresHost == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
	}
	if c.IsProd() {
		if c.VNPayTmnCode == "" {
			return fmt.Errorf("VNP_TMN_CODE is required")
		}
		if c.VNPayHashSecret == "" {
			return fmt.Errorf("VNP_HASH_SECRET is required")
		}
		if c.VNPayReturnURL == "" {
			return fmt.Errorf("VNP_RETURN_URL is required")
		}
	}
	return nil
}

func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
