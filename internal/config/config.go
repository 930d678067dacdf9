// Package config loads process configuration from the environment with Viper.
// Each binary validates only the keys it needs.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"flightmatch/internal/match"
)

type Config struct {
	Region           string `mapstructure:"region" validate:"required"`
	ModelID          string `mapstructure:"model_id" validate:"required"`
	ModelIDParameter string `mapstructure:"model_id_parameter"`
	TableName        string `mapstructure:"table_name" validate:"required"`
	StateIndex       string `mapstructure:"state_index" validate:"required"`
	InquiryTopicARN  string `mapstructure:"inquiry_topic_arn" validate:"required,startswith=arn:"`
	ExportBucket     string `mapstructure:"export_bucket" validate:"required"`
	ExportPrefix     string `mapstructure:"export_prefix"`
	LogLevel         string `mapstructure:"log_level"`
	LocalPort        int    `mapstructure:"local_port" validate:"min=1,max=65535"`
}

var validate = validator.New()

// env maps each config key to its environment variable.
var env = map[string]string{
	"region":             "AWS_REGION",
	"model_id":           "MODEL_ID",
	"model_id_parameter": "MODEL_ID_PARAMETER",
	"table_name":         "TABLE_NAME",
	"state_index":        "STATE_INDEX",
	"inquiry_topic_arn":  "INQUIRY_TOPIC_ARN",
	"export_bucket":      "EXPORT_BUCKET",
	"export_prefix":      "EXPORT_PREFIX",
	"log_level":          "LOG_LEVEL",
	"local_port":         "LOCAL_PORT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("region", "us-east-1")
	v.SetDefault("model_id", match.DefaultModelID)
	v.SetDefault("table_name", "flight-schools")
	v.SetDefault("state_index", "StateIndex")
	v.SetDefault("export_prefix", "exports/schools/")
	v.SetDefault("log_level", "DEBUG")
	v.SetDefault("local_port", 3001)
}

// Load reads configuration from the environment without validating it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ModelID = strings.TrimSpace(cfg.ModelID)
	cfg.ModelIDParameter = strings.TrimSpace(cfg.ModelIDParameter)
	return &cfg, nil
}

// require validates the named fields. LogLevel is never validated; SlogLevel
// falls back to DEBUG instead.
func (c *Config) require(fields ...string) error {
	if err := validate.StructPartial(c, fields...); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// RequireExplain validates the keys used by the explain-match function.
func (c *Config) RequireExplain() error { return c.require("Region", "ModelID") }

// RequireSchools validates the keys used by the school read functions.
func (c *Config) RequireSchools() error { return c.require("Region", "TableName", "StateIndex") }

// RequireInquiry validates the keys used by the inquiry function.
func (c *Config) RequireInquiry() error { return c.require("Region", "InquiryTopicARN") }

// RequireExport validates the keys used by the snapshot export.
func (c *Config) RequireExport() error { return c.require("Region", "TableName", "ExportBucket") }

// RequireLocal validates the keys used by the local dev server.
func (c *Config) RequireLocal() error {
	return c.require("Region", "ModelID", "TableName", "StateIndex", "LocalPort")
}

// SlogLevel parses LogLevel, falling back to DEBUG.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ResolveModelID returns the model ID from the SSM parameter named by
// MODEL_ID_PARAMETER, or ModelID when no parameter is configured.
func (c *Config) ResolveModelID(ctx context.Context, params ParameterGetter) (string, error) {
	if c.ModelIDParameter == "" {
		return c.ModelID, nil
	}
	out, err := params.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(c.ModelIDParameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get parameter %s: %w", c.ModelIDParameter, err)
	}
	if out.Parameter == nil || strings.TrimSpace(aws.ToString(out.Parameter.Value)) == "" {
		return "", fmt.Errorf("ssm parameter %s is empty", c.ModelIDParameter)
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}
