package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		App:          AppConfig{QueryLimit: 20},
		Account:      AccountConfig{OTPLength: 6},
		Housekeeping: HousekeepingConfig{Cron: "0 * * * *"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero query limit", func(c *Config) { c.App.QueryLimit = 0 }, "QUERY_LIMIT"},
		{"short otp", func(c *Config) { c.Account.OTPLength = 3 }, "OTP_LENGTH"},
		{"long otp", func(c *Config) { c.Account.OTPLength = 11 }, "OTP_LENGTH"},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "azure" }, "STORAGE_PROVIDER"},
		{"s3 without bucket", func(c *Config) { c.Storage.Provider = "s3" }, "S3_BUCKET"},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = "gcs" }, "GCS_BUCKET"},
		{"s3 with bucket", func(c *Config) { c.Storage.Provider, c.Storage.S3Bucket = "s3", "crm-files" }, ""},
		{"bad cron", func(c *Config) { c.Housekeeping.Cron = "every hour" }, "HOUSEKEEPING_CRON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
}

func TestConfigHelpers(t *testing.T) {
	app := AppConfig{MaxFileSizeMB: 10}
	assert.Equal(t, int64(10<<20), app.MaxFileSize())

	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "crm", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/crm?sslmode=disable", db.URL())
}
