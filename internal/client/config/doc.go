// Package config loads runtime configuration for the voicesync client.
//
// Sources, in increasing precedence: built-in defaults, an optional JSON
// file named with -c or -config, and command-line flags.
//
// Supported flags
//
//	-a string   address:port of the voicesync server
//	-i int      online status check interval (seconds)
//	-s int      background sync interval (seconds, 0 disables)
//	-d string   local SQLite database path
//	-t string   access token
//	-r string   remote backend: grpc or s3
//	-g string   S3 region
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-l string   log level
//
// JSON intervals use timex.Duration, so "3s" and integer nanoseconds both
// work:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "sync_interval": "1m",
//	  "local_db_path": "voices.db",
//	  "remote_backend": "grpc"
//	}
package config
