package utils

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Workflow WorkflowConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

type JWTConfig struct {
	Secret               string
	Issuer               string
	ExpiryHours          int
	SessionRetentionDays int
}

type StorageConfig struct {
	ReportDir      string
	MaxUploadBytes int64
}

type WorkflowConfig struct {
	MaxRetries                  int
	RequirePaymentForCompletion bool
}

// LoadConfig reads .env (when present), the environment and the given flags.
// Flags win over environment, environment wins over defaults.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	envFile := ".env"
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}
	// missing .env is fine, real deployments set the environment
	_ = godotenv.Load(envFile)

	v := viper.New()

	v.SetDefault("APP_NAME", "lab-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_ISSUER", "lab-booking")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("SESSION_RETENTION_DAYS", 7)
	v.SetDefault("REPORT_DIR", "storage/reports")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("WORKFLOW_MAX_RETRIES", 3)
	v.SetDefault("REQUIRE_PAYMENT_FOR_COMPLETION", true)

	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlag("PORT", flags.Lookup("port")); err != nil {
			return nil, err
		}
		if err := v.BindPFlag("DEBUG", flags.Lookup("debug")); err != nil {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Port:           v.GetString("PORT"),
			Debug:          v.GetBool("DEBUG"),
			LogPath:        v.GetString("LOG_PATH"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			Name:           v.GetString("DB_NAME"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASS"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MaxConns:       v.GetInt32("DB_MAX_CONNS"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		},
		JWT: JWTConfig{
			Secret:               v.GetString("JWT_SECRET"),
			Issuer:               v.GetString("JWT_ISSUER"),
			ExpiryHours:          v.GetInt("JWT_EXPIRY_HOURS"),
			SessionRetentionDays: v.GetInt("SESSION_RETENTION_DAYS"),
		},
		Storage: StorageConfig{
			ReportDir:      v.GetString("REPORT_DIR"),
			MaxUploadBytes: v.GetInt64("MAX_UPLOAD_MB") << 20,
		},
		Workflow: WorkflowConfig{
			MaxRetries:                  v.GetInt("WORKFLOW_MAX_RETRIES"),
			RequirePaymentForCompletion: v.GetBool("REQUIRE_PAYMENT_FOR_COMPLETION"),
		},
	}

	return config, nil
}

// NewFlagSet declares the command line flags LoadConfig understands.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", ".env", "path to the env file")
	fs.String("port", "8080", "HTTP port")
	fs.Bool("debug", false, "enable debug logging")
	fs.Bool("migrate-only", false, "apply database migrations and exit")
	return fs
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
