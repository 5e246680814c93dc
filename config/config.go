package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/sfhousing/dataset"
)

// EnvPrefix prefixes every environment override, e.g. SFHOUSING_SERVER_ADDR.
const EnvPrefix = "SFHOUSING"

// DefaultFile is the config file the CLI looks for when --config is not given.
const DefaultFile = "sfhousing.yaml"

// DataConfig locates the five tabular sources. A location is a CSV path or
// sqlite://<path>?table=<name>.
type DataConfig struct {
	GrossRent    string `mapstructure:"gross_rent" yaml:"gross_rent"`
	HousingUnits string `mapstructure:"housing_units" yaml:"housing_units"`
	SalePrice    string `mapstructure:"sale_price" yaml:"sale_price"`
	Coordinates  string `mapstructure:"coordinates" yaml:"coordinates"`
	Observations string `mapstructure:"observations" yaml:"observations"`
}

// ReportConfig selects what the per-neighborhood reports show.
type ReportConfig struct {
	Neighborhoods []string `mapstructure:"neighborhoods" yaml:"neighborhoods"`
	TopN          int      `mapstructure:"top_n" yaml:"top_n"`
}

// MapConfig positions the neighborhood map.
type MapConfig struct {
	CenterLat float64 `mapstructure:"center_lat" yaml:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon" yaml:"center_lon"`
	Zoom      float64 `mapstructure:"zoom" yaml:"zoom"`
	Style     string  `mapstructure:"style" yaml:"style"`
	Height    int     `mapstructure:"height" yaml:"height"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Config wraps the entire dashboard configuration.
type Config struct {
	Data   DataConfig   `mapstructure:"data" yaml:"data"`
	Report ReportConfig `mapstructure:"report" yaml:"report"`
	Map    MapConfig    `mapstructure:"map" yaml:"map"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// Default returns the configuration matching the original dashboard layout.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			GrossRent:    filepath.Join("Data", "avg_gross_rent_csv.csv"),
			HousingUnits: filepath.Join("Data", "avg_housing_csv.csv"),
			SalePrice:    filepath.Join("Data", "avg_sale_price_csv.csv"),
			Coordinates:  filepath.Join("Data", "neighborhoods_coordinates.csv"),
			Observations: filepath.Join("Data", "sfo_neighborhoods_census_data.csv"),
		},
		Report: ReportConfig{
			Neighborhoods: []string{"Bayview", "Alamo Square", "Central Richmond"},
			TopN:          10,
		},
		Map: MapConfig{
			CenterLat: 37.7749,
			CenterLon: -122.4194,
			Zoom:      11,
			Style:     "carto-positron",
			Height:    600,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			CacheTTL:       10 * time.Minute,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config from filePath, falling back to defaults when the file
// does not exist. Environment variables override both.
func Load(filePath string) (*Config, error) {
	v := newViper()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write stores cfg as YAML at filePath.
func Write(filePath string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, out, 0o644)
}

// Validate rejects configurations no dashboard can be rendered from.
func (c *Config) Validate() error {
	var errs []error
	for name, loc := range map[string]string{
		"data.gross_rent":    c.Data.GrossRent,
		"data.housing_units": c.Data.HousingUnits,
		"data.sale_price":    c.Data.SalePrice,
		"data.coordinates":   c.Data.Coordinates,
		"data.observations":  c.Data.Observations,
	} {
		if strings.TrimSpace(loc) == "" {
			errs = append(errs, fmt.Errorf("%s: location is required", name))
		}
	}
	if c.Report.TopN <= 0 {
		errs = append(errs, fmt.Errorf("report.top_n: must be positive, got %d", c.Report.TopN))
	}
	if c.Map.Zoom < 0 {
		errs = append(errs, fmt.Errorf("map.zoom: must not be negative, got %v", c.Map.Zoom))
	}
	return errors.Join(errs...)
}

// Sources converts the data section into loader sources.
func (d DataConfig) Sources() dataset.Sources {
	return dataset.Sources{
		GrossRent:    d.GrossRent,
		HousingUnits: d.HousingUnits,
		SalePrice:    d.SalePrice,
		Coordinates:  d.Coordinates,
		Observations: d.Observations,
	}
}

// newViper registers every key with its default so env overrides reach Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("data.gross_rent", d.Data.GrossRent)
	v.SetDefault("data.housing_units", d.Data.HousingUnits)
	v.SetDefault("data.sale_price", d.Data.SalePrice)
	v.SetDefault("data.coordinates", d.Data.Coordinates)
	v.SetDefault("data.observations", d.Data.Observations)
	v.SetDefault("report.neighborhoods", d.Report.Neighborhoods)
	v.SetDefault("report.top_n", d.Report.TopN)
	v.SetDefault("map.center_lat", d.Map.CenterLat)
	v.SetDefault("map.center_lon", d.Map.CenterLon)
	v.SetDefault("map.zoom", d.Map.Zoom)
	v.SetDefault("map.style", d.Map.Style)
	v.SetDefault("map.height", d.Map.Height)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cache_ttl", d.Server.CacheTTL)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	return v
}
