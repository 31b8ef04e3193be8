package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	OrphanPolicyReject   = "reject"
	OrphanPolicyTolerate = "tolerate"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Analysis   AnalysisConfig
	Records    RecordsConfig
	CORS       CORSConfig
	Monitoring MonitoringConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
	DSN        string
}

type AnalysisConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Enabled reports whether an analysis backend can be constructed.
func (a AnalysisConfig) Enabled() bool {
	return a.APIKey != ""
}

type RecordsConfig struct {
	// OrphanPolicy decides whether grade writes may reference missing students or subjects.
	OrphanPolicy string
}

type CORSConfig struct {
	Origins []string
}

type MonitoringConfig struct {
	PrometheusEnabled bool
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	godotenv.Load()

	driver := strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	dbHost := getEnv("DB_HOST", "localhost")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "")
	dbName := getEnv("DB_NAME", "gradebook")
	sqlitePath := getEnv("SQLITE_PATH", "gradebook.db")

	var dbPort string
	switch driver {
	case "mysql":
		dbPort = getEnv("DB_PORT", "3306")
	default:
		dbPort = getEnv("DB_PORT", "5432")
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = buildDSN(driver, dbHost, dbPort, dbUser, dbPass, dbName, sqlitePath)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:     driver,
			Host:       dbHost,
			Port:       dbPort,
			User:       dbUser,
			Password:   dbPass,
			Name:       dbName,
			SQLitePath: sqlitePath,
			DSN:        dsn,
		},
		Analysis: AnalysisConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature: float32(getEnvFloat("GEMINI_TEMPERATURE", 0.4)),
			Timeout:     getEnvDuration("ANALYSIS_TIMEOUT", 45*time.Second),
		},
		Records: RecordsConfig{
			OrphanPolicy: strings.ToLower(getEnv("RECORDS_ORPHAN_POLICY", OrphanPolicyReject)),
		},
		CORS: CORSConfig{
			Origins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: getEnvBool("PROMETHEUS_ENABLED", true),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Records.OrphanPolicy {
	case OrphanPolicyReject, OrphanPolicyTolerate:
	default:
		return fmt.Errorf("RECORDS_ORPHAN_POLICY must be %q or %q, got %q",
			OrphanPolicyReject, OrphanPolicyTolerate, c.Records.OrphanPolicy)
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func buildDSN(driver, host, port, user, pass, name, sqlitePath string) string {
	switch driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			user, pass, host, port, name)
	case "sqlite":
		return sqlitePath
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			host, user, pass, name, port)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
