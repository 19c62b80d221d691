package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/flashboard/memory/w25q128"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, w25q128.W25Q128, cfg.Geometry)
	assert.Equal(t, byte(0xEF), cfg.Manufacturer)
	assert.Len(t, cfg.FlashOptions(), 3)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
transport: ft232h
speed_hz: 30000000
poll_interval: 50us
busy_timeout: 3s
manufacturer: 0xC2
geometry:
  page_size: 256
  sector_size: 4096
  block_size: 65536
  capacity: 4194304
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportFT232H, cfg.Transport)
	assert.Equal(t, "/dev/spidev0.0", cfg.Device)
	assert.Equal(t, int64(30_000_000), cfg.SpeedHz)
	assert.Equal(t, 50*time.Microsecond, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.BusyTimeout)
	assert.Equal(t, byte(0xC2), cfg.Manufacturer)
	assert.Equal(t, uint32(4<<20), cfg.Geometry.Capacity)
	assert.Len(t, cfg.FlashOptions(), 4)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown transport", content: "transport: usb\n"},
		{name: "zero speed", content: "speed_hz: 0\n"},
		{name: "negative timeout", content: "busy_timeout: -1s\n"},
		{name: "bad geometry", content: "geometry:\n  sector_size: 1000\n"},
		{name: "periph without device", content: "device: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "transport: [\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestFlashOptions_Unbounded(t *testing.T) {
	cfg := Default()
	cfg.UnboundedBusyWait = true
	cfg.BusyTimeout = time.Second

	chip := w25q128.NewMockChip(w25q128.JEDECWinbondW25Q128JV, 64*1024)
	f, err := w25q128.New(chip, cfg.FlashOptions()...)
	require.NoError(t, err)
	assert.Equal(t, w25q128.W25Q128, f.Geometry())
}

func TestVersion(t *testing.T) {
	defer func(v, c, b, bt string) { AppVersion, GitCommit, GitBranch, BuildTime = v, c, b, bt }(AppVersion, GitCommit, GitBranch, BuildTime)

	AppVersion, GitCommit, GitBranch, BuildTime = "latest", "", "", ""
	assert.Equal(t, "latest", Version())

	AppVersion, GitCommit = "v1.2.0", "a1b2c3"
	assert.Equal(t, "v1.2.0-a1b2c3", Version())

	GitBranch, BuildTime = "main", "2026-10-16T09:00:00Z"
	assert.Equal(t, "v1.2.0-a1b2c3 (main, built 2026-10-16T09:00:00Z)", Version())
}
