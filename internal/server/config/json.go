package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/medconb/internal/flagx"
	"github.com/dmitrijs2005/medconb/internal/timex"
)

// JsonConfig mirrors the on-disk configuration file. Nested sections keep
// the key paths the deployment already uses (auth.password.secret,
// cors.origins, assetsDir, versionSuffix). Pointer fields distinguish
// "absent" from "empty" so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddr          *string         `json:"endpoint_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	Debug                 *bool           `json:"debug"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	Auth                  *struct {
		Password *struct {
			Secret string `json:"secret"`
		} `json:"password"`
	} `json:"auth"`
	CORS *struct {
		Origins []string `json:"origins"`
	} `json:"cors"`
	AssetsDir     *string `json:"assetsDir"`
	VersionSuffix *string `json:"versionSuffix"`
	Assets        *struct {
		S3 *struct {
			Bucket       string `json:"bucket"`
			Prefix       string `json:"prefix"`
			Region       string `json:"region"`
			BaseEndpoint string `json:"base_endpoint"`
			AccessKey    string `json:"access_key"`
			SecretKey    string `json:"secret_key"`
		} `json:"s3"`
	} `json:"assets"`
}

// parseJson overlays the file given with -c/-config onto config. Without
// the flag nothing happens. An unreadable or invalid file panics: the
// server must not start on a configuration it did not understand.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	if c.TokenValidityDuration != nil {
		if c.TokenValidityDuration.Duration <= 0 {
			panic(fmt.Errorf("token_validity_duration must be positive, got %s", c.TokenValidityDuration.Duration))
		}
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.Auth != nil && c.Auth.Password != nil {
		config.PasswordAuth = &PasswordAuth{Secret: c.Auth.Password.Secret}
	}
	if c.CORS != nil {
		config.CORSOrigins = c.CORS.Origins
	}
	if c.AssetsDir != nil {
		config.AssetsDir = *c.AssetsDir
	}
	if c.VersionSuffix != nil {
		config.VersionSuffix = *c.VersionSuffix
	}
	if c.Assets != nil && c.Assets.S3 != nil {
		s3 := c.Assets.S3
		config.AssetsS3.Bucket = s3.Bucket
		config.AssetsS3.Prefix = s3.Prefix
		if s3.Region != "" {
			config.AssetsS3.Region = s3.Region
		}
		config.AssetsS3.BaseEndpoint = s3.BaseEndpoint
		config.AssetsS3.AccessKey = s3.AccessKey
		config.AssetsS3.SecretKey = s3.SecretKey
	}
}
