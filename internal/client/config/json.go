package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/voicesync/internal/flagx"
	"github.com/dmitrijs2005/voicesync/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Absent keys leave the
// corresponding Config field untouched.
type JsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	LocalDBPath         *string         `json:"local_db_path"`
	AccessToken         *string         `json:"access_token"`
	RemoteBackend       *string         `json:"remote_backend"`
	S3Region            *string         `json:"s3_region"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// Read and decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.RemoteBackend, jc.RemoteBackend)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
