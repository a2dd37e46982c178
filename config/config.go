package config

import (
	"fmt"

	validator "github.com/asaskevich/govalidator"
	"github.com/spf13/viper"
)

// Configuration
type Configuration struct {
	ExternalURL    string             `mapstructure:"external_url"`
	Host           string             `mapstructure:"host"`
	Port           int                `mapstructure:"port"`
	AdminPort      int                `mapstructure:"admin_port"`
	DefaultTimeout uint64             `mapstructure:"default_timeout_ms"`
	Metrics        Metrics            `mapstructure:"metrics"`
	Adapters       map[string]Adapter `mapstructure:"adapters"`
}

type Adapter struct {
	Endpoint    string `mapstructure:"endpoint"` // Required
	UserSyncURL string `mapstructure:"usersync_url"`
	Disabled    bool   `mapstructure:"disabled"`
}

type Metrics struct {
	Host     string `mapstructure:"host"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// New uses viper to get our server configurations.
func New() (*Configuration, error) {
	var c Configuration
	if err := viper.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (cfg *Configuration) validate() error {
	for name, adapter := range cfg.Adapters {
		if adapter.Disabled {
			continue
		}
		if !validator.IsRequestURL(adapter.Endpoint) {
			return fmt.Errorf("The endpoint: %s for %s is not a valid URL", adapter.Endpoint, name)
		}
	}
	return nil
}

// SetupViper sets the config file search paths and the defaults every
// deployment relies on, including each adapter's bidding endpoint.
func SetupViper(filename string) {
	if filename != "" {
		viper.SetConfigName(filename)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/config")
	}

	viper.SetDefault("external_url", "http://localhost:8000")
	viper.SetDefault("host", "")
	viper.SetDefault("port", 8000)
	viper.SetDefault("admin_port", 6060)
	viper.SetDefault("default_timeout_ms", 250)
	viper.SetDefault("adapters.audiencenetwork.endpoint", "https://an.facebook.com/v2/placementbid.json")
	viper.ReadInConfig()
}
