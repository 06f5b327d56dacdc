package formkit

import (
	"time"
)

// Config consolidates settings for the form engine and its wiring
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Builder   BuilderConfig   `json:"builder"`
	Designer  DesignerConfig  `json:"designer"`
	Validator ValidatorConfig `json:"validator"`
	Export    ExportConfig    `json:"export"`
	Media     MediaConfig     `json:"media"`
	Logging   LoggingConfig   `json:"logging"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`
	TableNames      TableNames    `json:"tableNames"`
}

// TableNames contains the physical table names the repository targets
type TableNames struct {
	Forms       string `json:"forms"`
	Submissions string `json:"submissions"`
}

// BuilderConfig contains builder session settings
type BuilderConfig struct {
	DefaultLanguage        string `json:"defaultLanguage"`
	PlaceholderOptionCount int    `json:"placeholderOptionCount"`
	MaxFields              int    `json:"maxFields"`
}

// DesignerConfig contains relationship designer settings
type DesignerConfig struct {
	TargetListPageSize int           `json:"targetListPageSize"`
	LookupTimeout      time.Duration `json:"lookupTimeout"`
}

// ValidatorConfig contains submission validator settings
type ValidatorConfig struct {
	MaxValueLength int  `json:"maxValueLength"`
	TrimWhitespace bool `json:"trimWhitespace"`
}

// ExportConfig contains DuckDB submission export settings
type ExportConfig struct {
	DuckDBPath     string `json:"duckdbPath"`
	DuckDBMemoryMB int    `json:"duckdbMemoryMB"`
	DuckDBThreads  int    `json:"duckdbThreads"`
	S3Bucket       string `json:"s3Bucket"`
	S3Region       string `json:"s3Region"`
	S3Endpoint     string `json:"s3Endpoint"`
	S3Prefix       string `json:"s3Prefix"`
}

// MediaConfig contains upload store settings for image/video fields
type MediaConfig struct {
	Bucket           string  `json:"bucket"`
	Region           string  `json:"region"`
	Endpoint         string  `json:"endpoint,omitempty"`
	KeyPrefix        string  `json:"keyPrefix"`
	DefaultMaxSizeMB float64 `json:"defaultMaxSizeMB"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableStructured bool   `json:"enableStructured"`
	LogSaves         bool   `json:"logSaves"`
	LogSubmissions   bool   `json:"logSubmissions"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  25,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
			TableNames: TableNames{
				Forms:       "forms",
				Submissions: "form_submissions",
			},
		},
		Builder: BuilderConfig{
			DefaultLanguage:        "en",
			PlaceholderOptionCount: 3,
			MaxFields:              200,
		},
		Designer: DesignerConfig{
			TargetListPageSize: 50,
			LookupTimeout:      10 * time.Second,
		},
		Validator: ValidatorConfig{
			MaxValueLength: 64 * 1024,
			TrimWhitespace: false,
		},
		Export: ExportConfig{
			DuckDBMemoryMB: 1024,
			DuckDBThreads:  2,
			S3Prefix:       "exports",
		},
		Media: MediaConfig{
			KeyPrefix:        "uploads",
			DefaultMaxSizeMB: 25,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "json",
			EnableStructured: true,
			LogSaves:         true,
			LogSubmissions:   false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}

	if c.Builder.DefaultLanguage == "" {
		return &ConfigError{Field: "builder.defaultLanguage", Message: "must not be empty"}
	}

	if c.Builder.PlaceholderOptionCount < 0 {
		return &ConfigError{Field: "builder.placeholderOptionCount", Message: "must not be negative"}
	}

	if c.Builder.MaxFields <= 0 {
		return &ConfigError{Field: "builder.maxFields", Message: "must be greater than 0"}
	}

	if c.Designer.TargetListPageSize <= 0 {
		return &ConfigError{Field: "designer.targetListPageSize", Message: "must be greater than 0"}
	}

	if c.Validator.MaxValueLength <= 0 {
		return &ConfigError{Field: "validator.maxValueLength", Message: "must be greater than 0"}
	}

	if c.Media.DefaultMaxSizeMB <= 0 {
		return &ConfigError{Field: "media.defaultMaxSizeMB", Message: "must be greater than 0"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
