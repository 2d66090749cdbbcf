package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobscout"
)

type Config struct {
	DatabaseURL string           `mapstructure:"database-url"`
	RedisURL    string           `mapstructure:"redis-url"`
	Server      *ServerConfig    `mapstructure:"server"`
	Scheduler   *SchedulerConfig `mapstructure:"scheduler"`
	Discovery   *DiscoveryConfig `mapstructure:"discovery"`
	Score       *ScoreConfig     `mapstructure:"score"`
	AI          *AIConfig        `mapstructure:"ai"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type SchedulerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	IntervalHours int  `mapstructure:"interval-hours"`
}

type DiscoveryConfig struct {
	CacheTTLMinutes int `mapstructure:"cache-ttl-minutes"`
}

type ScoreConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxResults     int    `mapstructure:"max-results"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	BreakerEnabled bool   `mapstructure:"breaker-enabled"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobscout discovers job postings with a generative-search collaborator and scores them against your profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"database-url":           "DATABASE_URL",
		"redis-url":              "REDIS_URL",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only serve and discover read the config file; skip for the rest.
	if serveCmd.CalledAs() == "" && discoverCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
