package config

import "time"

const (
	BackendGRPC = "grpc"
	BackendS3   = "s3"
)

// Config holds runtime settings for the voicesync client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the voicesync gRPC server.
//   - OnlineCheckInterval: how often the client probes remote reachability.
//   - SyncInterval: period of background syncs; zero disables them.
//   - LocalDBPath: SQLite file holding the device's voices.
//   - AccessToken: JWT identifying the owner; sent with every call.
//   - RemoteBackend: "grpc" (default) or "s3".
//   - S3*: bucket settings, used only with the s3 backend.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	LocalDBPath         string
	AccessToken         string
	RemoteBackend       string
	S3Region            string
	S3AccessKey         string
	S3SecretKey         string
	S3Bucket            string
	S3BaseEndpoint      string
	LogLevel            string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = time.Minute
	c.LocalDBPath = "voices.db"
	c.RemoteBackend = BackendGRPC
	c.S3Region = "us-east-1"
	c.S3Bucket = "voicesync"
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the optional JSON file, then flags.
// Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
