package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Security SecurityConfig `json:"security"`
	Email    EmailConfig    `json:"email"`
	API      APIConfig      `json:"api"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Host               string          `json:"host"`
	Port               int             `json:"port"`
	Database           string          `json:"database"`
	Username           string          `json:"username"`
	Password           string          `json:"password"`
	MaxOpenConns       int             `json:"max_open_conns"`
	MaxIdleConns       int             `json:"max_idle_conns"`
	ConnMaxLifetime    time.Duration   `json:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration   `json:"conn_max_idle_time"`
	EnableQueryLogging bool            `json:"enable_query_logging"`
	LogLevel           logger.LogLevel `json:"-"` // Not serializable
	PrepareStmt        bool            `json:"prepare_stmt"`
}

type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

type SecurityConfig struct {
	SessionTimeout    int    `json:"session_timeout"`
	PasswordMinLength int    `json:"password_min_length"`
	MaxLoginAttempts  int    `json:"max_login_attempts"`
	LockoutDuration   int    `json:"lockout_duration"` // seconds
	JWTSecret         string `json:"jwt_secret"`
	SecureCookies     bool   `json:"secure_cookies"`
	CookieDomain      string `json:"cookie_domain"`
}

type EmailConfig struct {
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`
	UseTLS       bool   `json:"use_tls"`
}

// APIConfig holds credentials and endpoints for third-party travel APIs.
type APIConfig struct {
	DuffelBaseURL      string `json:"duffel_base_url"`
	DuffelToken        string `json:"duffel_token"`
	ViatorBaseURL      string `json:"viator_base_url"`
	ViatorAPIKey       string `json:"viator_api_key"`
	TranslateBaseURL   string `json:"translate_base_url"`
	RequestTimeoutSecs int    `json:"request_timeout_secs"`
}

type LoggingConfig struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSize    int    `json:"max_size"`
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	// Start with default config
	config := getDefaultConfig()

	// Override with environment variables if they exist
	loadFromEnvironment(config)

	// Try to load from file if it exists
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, err
		}
		// Override again with environment variables to give them priority
		loadFromEnvironment(config)
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

func getDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:               "localhost",
			Port:               3306,
			Database:           "travelbook",
			Username:           "root",
			Password:           "",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    5 * time.Minute,
			ConnMaxIdleTime:    5 * time.Minute,
			EnableQueryLogging: false,
			LogLevel:           logger.Warn,
			PrepareStmt:        true,
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Security: SecurityConfig{
			SessionTimeout:    3600,
			PasswordMinLength: 8,
			MaxLoginAttempts:  3,
			LockoutDuration:   900,
			JWTSecret:         "TravelBook-Demo-Key-CHANGE-IN-PRODUCTION-256-BIT",
			SecureCookies:     false,
			CookieDomain:      "",
		},
		Email: EmailConfig{
			SMTPHost:     "localhost",
			SMTPPort:     587,
			SMTPUsername: "",
			SMTPPassword: "",
			FromEmail:    "noreply@travelbook.example",
			FromName:     "TravelBook",
			UseTLS:       true,
		},
		API: APIConfig{
			DuffelBaseURL:      "https://api.duffel.com",
			DuffelToken:        "",
			ViatorBaseURL:      "https://api.viator.com/partner",
			ViatorAPIKey:       "",
			TranslateBaseURL:   "https://libretranslate.com",
			RequestTimeoutSecs: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "logs/app.log",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *Config) {
	// Database configuration
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	if database := os.Getenv("DB_NAME"); database != "" {
		config.Database.Database = database
	}
	if username := os.Getenv("DB_USERNAME"); username != "" {
		config.Database.Username = username
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}

	// Server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Security configuration
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if timeout := os.Getenv("SESSION_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Security.SessionTimeout = t
		}
	}
	if attempts := os.Getenv("MAX_LOGIN_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil && a > 0 {
			config.Security.MaxLoginAttempts = a
		}
	}
	if lockout := os.Getenv("LOCKOUT_DURATION"); lockout != "" {
		if l, err := strconv.Atoi(lockout); err == nil && l > 0 {
			config.Security.LockoutDuration = l
		}
	}
	if secure := os.Getenv("SECURE_COOKIES"); secure != "" {
		config.Security.SecureCookies = secure == "true"
	}

	// Email configuration
	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.Email.SMTPHost = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Email.SMTPPort = p
		}
	}
	if username := os.Getenv("SMTP_USERNAME"); username != "" {
		config.Email.SMTPUsername = username
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		config.Email.SMTPPassword = password
	}
	if fromEmail := os.Getenv("FROM_EMAIL"); fromEmail != "" {
		config.Email.FromEmail = fromEmail
	}
	if useTLS := os.Getenv("USE_TLS"); useTLS != "" {
		config.Email.UseTLS = useTLS == "true"
	}

	// Third-party API configuration
	if token := os.Getenv("DUFFEL_TOKEN"); token != "" {
		config.API.DuffelToken = token
	}
	if url := os.Getenv("DUFFEL_BASE_URL"); url != "" {
		config.API.DuffelBaseURL = url
	}
	if key := os.Getenv("VIATOR_API_KEY"); key != "" {
		config.API.ViatorAPIKey = key
	}
	if url := os.Getenv("VIATOR_BASE_URL"); url != "" {
		config.API.ViatorBaseURL = url
	}
	if url := os.Getenv("TRANSLATE_BASE_URL"); url != "" {
		config.API.TranslateBaseURL = url
	}

	// Logging configuration
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		config.Logging.File = file
	}

	// Database log level
	if os.Getenv("DB_DEBUG") == "true" {
		config.Database.LogLevel = logger.Info
	}
}
