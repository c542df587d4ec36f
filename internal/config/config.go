package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Wire variants of the backend API. The canonical variant lists documents
// with ids and scopes chat questions to a selected document; the legacy
// variant lists bare filenames and answers with a raw text payload.
const (
	VariantDocuments = "documents"
	VariantFiles     = "files"
)

type Config struct {
	BackendURL     string `mapstructure:"BACKEND_URL" validate:"required,url"`
	RequestTimeout int    `mapstructure:"REQUEST_TIMEOUT" validate:"gte=0"`
	TopK           int    `mapstructure:"TOP_K" validate:"gt=0"`
	APIVariant     string `mapstructure:"API_VARIANT" validate:"oneof=documents files"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogFile        string `mapstructure:"LOG_FILE"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the validator singleton. Building a validator is
// expensive, so it is created once and reused.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("BACKEND_URL", "http://localhost:8000")
	viper.SetDefault("REQUEST_TIMEOUT", 60)
	viper.SetDefault("TOP_K", 4)
	viper.SetDefault("API_VARIANT", VariantDocuments)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FILE", "talkdoc.log")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := getValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
