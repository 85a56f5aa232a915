package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"bpextract/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Paths  PathsConfig
	Export ExportConfig
	S3     S3Config
	DB     DBConfig
	Log    LogConfig
}

// PathsConfig holds default input and output locations. Command arguments
// take precedence.
type PathsConfig struct {
	ProcessDir    string `mapstructure:"process_dir"`
	CalendarDir   string `mapstructure:"calendar_dir"`
	ScheduleDir   string `mapstructure:"schedule_dir"`
	ReleaseFile   string `mapstructure:"release_file"`
	ProcessBundle string `mapstructure:"process_bundle"`
	OutputDir     string `mapstructure:"output_dir"`
	SplitDir      string `mapstructure:"split_dir"`
	SummaryDir    string `mapstructure:"summary_dir"`
}

// ExportConfig holds tabular output settings.
type ExportConfig struct {
	Format domain.ExportFormat `mapstructure:"format"`
	BOM    bool                `mapstructure:"bom"`
}

// S3Config holds settings for publishing artifacts to an S3-compatible bucket.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig holds PostgreSQL catalog connection settings.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the BPX_ prefix
// and, when file is not empty, from that YAML/TOML/JSON file. Environment
// variables win over the file.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BPX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Path defaults follow the directory layout the split commands produce.
	v.SetDefault("paths.process_dir", "process_files")
	v.SetDefault("paths.calendar_dir", "element_files/calendar")
	v.SetDefault("paths.schedule_dir", "element_files/schedule")
	v.SetDefault("paths.release_file", "xml.xml")
	v.SetDefault("paths.process_bundle", "Process.xml")
	v.SetDefault("paths.output_dir", "extract_information")
	v.SetDefault("paths.split_dir", "element_files")
	v.SetDefault("paths.summary_dir", "summary")

	// Export defaults
	v.SetDefault("export.format", string(domain.ExportFormatCSV))
	v.SetDefault("export.bom", false)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "bpextract-artifacts")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "exports")

	// DB defaults
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "bpextract")
	v.SetDefault("db.password", "bpextract_secret")
	v.SetDefault("db.name", "bpextract_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 5)
	v.SetDefault("db.max_idle", 2)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"paths.process_dir":    "BPX_PATHS_PROCESS_DIR",
		"paths.calendar_dir":   "BPX_PATHS_CALENDAR_DIR",
		"paths.schedule_dir":   "BPX_PATHS_SCHEDULE_DIR",
		"paths.release_file":   "BPX_PATHS_RELEASE_FILE",
		"paths.process_bundle": "BPX_PATHS_PROCESS_BUNDLE",
		"paths.output_dir":     "BPX_PATHS_OUTPUT_DIR",
		"paths.split_dir":      "BPX_PATHS_SPLIT_DIR",
		"paths.summary_dir":    "BPX_PATHS_SUMMARY_DIR",
		"export.format":        "BPX_EXPORT_FORMAT",
		"export.bom":           "BPX_EXPORT_BOM",
		"s3.enabled":           "BPX_S3_ENABLED",
		"s3.region":            "BPX_S3_REGION",
		"s3.bucket":            "BPX_S3_BUCKET",
		"s3.endpoint":          "BPX_S3_ENDPOINT",
		"s3.access_key":        "BPX_S3_ACCESS_KEY",
		"s3.secret_key":        "BPX_S3_SECRET_KEY",
		"s3.prefix":            "BPX_S3_PREFIX",
		"db.enabled":           "BPX_DB_ENABLED",
		"db.host":              "BPX_DB_HOST",
		"db.port":              "BPX_DB_PORT",
		"db.user":              "BPX_DB_USER",
		"db.password":          "BPX_DB_PASSWORD",
		"db.name":              "BPX_DB_NAME",
		"db.sslmode":           "BPX_DB_SSLMODE",
		"db.max_open":          "BPX_DB_MAX_OPEN",
		"db.max_idle":          "BPX_DB_MAX_IDLE",
		"log.level":            "BPX_LOG_LEVEL",
		"log.format":           "BPX_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Paths = PathsConfig{
		ProcessDir:    v.GetString("paths.process_dir"),
		CalendarDir:   v.GetString("paths.calendar_dir"),
		ScheduleDir:   v.GetString("paths.schedule_dir"),
		ReleaseFile:   v.GetString("paths.release_file"),
		ProcessBundle: v.GetString("paths.process_bundle"),
		OutputDir:     v.GetString("paths.output_dir"),
		SplitDir:      v.GetString("paths.split_dir"),
		SummaryDir:    v.GetString("paths.summary_dir"),
	}

	format := domain.ExportFormat(strings.ToLower(v.GetString("export.format")))
	switch format {
	case domain.ExportFormatCSV, domain.ExportFormatXLSX, domain.ExportFormatBoth:
	default:
		return nil, fmt.Errorf("invalid export.format %q: want csv, xlsx or both", format)
	}
	cfg.Export = ExportConfig{
		Format: format,
		BOM:    v.GetBool("export.bom"),
	}

	cfg.S3 = S3Config{
		Enabled:   v.GetBool("s3.enabled"),
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Prefix:    strings.Trim(v.GetString("s3.prefix"), "/"),
	}
	cfg.DB = DBConfig{
		Enabled:  v.GetBool("db.enabled"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
