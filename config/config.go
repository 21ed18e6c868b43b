// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads cmd/transd's and cmd/transc's settings with viper,
// the same single-config-struct-populated-from-a-loader shape the rest of
// the retrieval pack uses for its daemons.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds every setting cmd/transd's reactor and business worker
// need.
type ServerConfig struct {
	ListenAddr      string
	Backlog         int
	MaxPayloadLen   int
	MailboxCapacity int
	ReadBufferSize  int
	MaxConnections  int
	DataDir         string
	DBPath          string
	LogLevel        string
	LogPretty       bool
}

// ClientConfig holds every setting cmd/transc's scheduler and transport
// client need.
type ClientConfig struct {
	BlockSize      int64
	WorkerCount    int
	QueueDepth     int
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	DataDir        string
	DBPath         string
	LogLevel       string
	LogPretty      bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("transd")
	v.AutomaticEnv()
	return v
}

// serverDefaults gives an unconfigured daemon sane limits. Its backlog (128)
// and mailbox capacity (4096) differ from reactor.defaultOptions (1024 and
// 1024); the remaining reactor settings match it.
func serverDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "0.0.0.0:9520")
	v.SetDefault("backlog", 128)
	v.SetDefault("max_payload_len", 16*1024*1024)
	v.SetDefault("mailbox_capacity", 4096)
	v.SetDefault("read_buffer_size", 64*1024)
	v.SetDefault("max_connections", 0)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("db_path", "./data/transd.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
}

// clientDefaults mirrors scheduler.defaultOptions and transport.defaultOptions.
func clientDefaults(v *viper.Viper) {
	v.SetDefault("block_size", 1<<20)
	v.SetDefault("worker_count", 4)
	v.SetDefault("queue_depth", 1024)
	v.SetDefault("dial_timeout", 5*time.Second)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("data_dir", "./downloads")
	v.SetDefault("db_path", "./downloads/transc.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
}

// LoadServer reads a ServerConfig from configFile (if non-empty), the
// transd_-prefixed environment, and defaults, in that precedence order.
func LoadServer(configFile string) (ServerConfig, error) {
	v := newViper()
	serverDefaults(v)
	if err := readConfigFile(v, configFile); err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddr:      v.GetString("listen_addr"),
		Backlog:         v.GetInt("backlog"),
		MaxPayloadLen:   v.GetInt("max_payload_len"),
		MailboxCapacity: v.GetInt("mailbox_capacity"),
		ReadBufferSize:  v.GetInt("read_buffer_size"),
		MaxConnections:  v.GetInt("max_connections"),
		DataDir:         v.GetString("data_dir"),
		DBPath:          v.GetString("db_path"),
		LogLevel:        v.GetString("log_level"),
		LogPretty:       v.GetBool("log_pretty"),
	}, nil
}

// LoadClient reads a ClientConfig the same way LoadServer does.
func LoadClient(configFile string) (ClientConfig, error) {
	v := newViper()
	clientDefaults(v)
	if err := readConfigFile(v, configFile); err != nil {
		return ClientConfig{}, err
	}
	return ClientConfig{
		BlockSize:      v.GetInt64("block_size"),
		WorkerCount:    v.GetInt("worker_count"),
		QueueDepth:     v.GetInt("queue_depth"),
		DialTimeout:    v.GetDuration("dial_timeout"),
		RequestTimeout: v.GetDuration("request_timeout"),
		DataDir:        v.GetString("data_dir"),
		DBPath:         v.GetString("db_path"),
		LogLevel:       v.GetString("log_level"),
		LogPretty:      v.GetBool("log_pretty"),
	}, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return nil
}
