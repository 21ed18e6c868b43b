// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServerAppliesDefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := LoadServer("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9520", cfg.ListenAddr)
	require.Equal(t, 128, cfg.Backlog)
	require.Equal(t, 4096, cfg.MailboxCapacity)
}

func TestLoadServerOverridesFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: 127.0.0.1:7000\nbacklog: 64\n"), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", cfg.ListenAddr)
	require.Equal(t, 64, cfg.Backlog)
	require.Equal(t, 16*1024*1024, cfg.MaxPayloadLen) // untouched default
}

func TestLoadClientAppliesDefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := LoadClient("")
	require.NoError(t, err)
	require.Equal(t, int64(1<<20), cfg.BlockSize)
	require.Equal(t, 4, cfg.WorkerCount)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadClientOverridesFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 2048\nworker_count: 8\n"), 0o644))

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	require.Equal(t, int64(2048), cfg.BlockSize)
	require.Equal(t, 8, cfg.WorkerCount)
}

func TestLoadServerReturnsErrorForMissingConfigFile(t *testing.T) {
	_, err := LoadServer(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
