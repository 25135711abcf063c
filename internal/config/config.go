package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the name of the JSON config file looked up in the config dir.
const FileName = "terrain.cfg.json"

// StorageConfig selects and configures the dataset source.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// SQLiteConfig holds settings for the sqlite dataset store.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DatasetConfig describes where datasets are read from and how they are
// interpreted.
type DatasetConfig struct {
	Dir     string `json:"dir" mapstructure:"dir"`
	EPSG    int    `json:"epsg" mapstructure:"epsg"`
	Default string `json:"default" mapstructure:"default"`
	// cells at or below BlockAtOrBelow are impassable when BlockEnabled
	BlockEnabled   bool    `json:"blockEnabled" mapstructure:"blockEnabled"`
	BlockAtOrBelow float64 `json:"blockAtOrBelow" mapstructure:"blockAtOrBelow"`
}

// ViewshedConfig holds viewshed defaults and the radius cap.
type ViewshedConfig struct {
	Radius         float64 `json:"radius" mapstructure:"radius"`
	ObserverHeight float64 `json:"observerHeight" mapstructure:"observerHeight"`
	TargetHeight   float64 `json:"targetHeight" mapstructure:"targetHeight"`
	MaxRadius      float64 `json:"maxRadius" mapstructure:"maxRadius"`
}

// InfluxConfig holds InfluxDB settings for query measurements.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers the default value of every key. Load calls it; the
// CLI also calls it directly when running without a config file.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./terrainlogs")

	viper.SetDefault("dataset.dir", "./datasets")
	viper.SetDefault("dataset.epsg", 27700)
	viper.SetDefault("dataset.default", "")
	viper.SetDefault("dataset.blockEnabled", true)
	viper.SetDefault("dataset.blockAtOrBelow", 0.0)

	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.sqlite.path", "./terrain.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "terrain")

	viper.SetDefault("viewshed.radius", 5000.0)
	viper.SetDefault("viewshed.observerHeight", 2.0)
	viper.SetDefault("viewshed.targetHeight", 0.0)
	viper.SetDefault("viewshed.maxRadius", 20000.0)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "terrain-metrics")
	viper.SetDefault("influx.bucket", "terrain_queries")
	viper.SetDefault("influx.backupPath", "./terrain_metrics.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "terrain")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetStorageConfig returns the dataset source settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetDatasetConfig returns the dataset settings.
func GetDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Dir:            viper.GetString("dataset.dir"),
		EPSG:           viper.GetInt("dataset.epsg"),
		Default:        viper.GetString("dataset.default"),
		BlockEnabled:   viper.GetBool("dataset.blockEnabled"),
		BlockAtOrBelow: viper.GetFloat64("dataset.blockAtOrBelow"),
	}
}

// GetViewshedConfig returns the viewshed defaults.
func GetViewshedConfig() ViewshedConfig {
	return ViewshedConfig{
		Radius:         viper.GetFloat64("viewshed.radius"),
		ObserverHeight: viper.GetFloat64("viewshed.observerHeight"),
		TargetHeight:   viper.GetFloat64("viewshed.targetHeight"),
		MaxRadius:      viper.GetFloat64("viewshed.maxRadius"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
