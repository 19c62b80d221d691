package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/flashboard/cmd/flashctl/console"
	"github.com/mklimuk/flashboard/memory/w25q128"
)

// runApp runs flashctl against the simulated chip and returns stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	console.DisableColors()
	var out bytes.Buffer
	console.SetOutput(&out, &out)

	app := cli.NewApp()
	app.Name = "flashctl"
	app.Flags = GlobalFlags()
	app.Commands = Commands()
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.RunContext(context.Background(), append([]string{"flashctl", "--transport", "mock"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	var exerr cli.ExitCoder
	if errors.As(err, &exerr) {
		return exerr.ExitCode()
	}
	return -1
}

func TestID(t *testing.T) {
	out, err := runApp(t, "id")
	require.NoError(t, err)
	assert.Contains(t, out, "jedec_id: \"0xEF4018\"")
	assert.Contains(t, out, "manufacturer: \"0xEF\"")
	assert.Contains(t, out, "device_id: \"0x17\"")
	assert.Contains(t, out, "name: Winbond W25Q128JV-IQ")
	assert.Contains(t, out, "capacity: 16777216")
}

func TestStatus(t *testing.T) {
	out, err := runApp(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "state: READY")
	assert.Contains(t, out, "status1: \"00000000\"")
}

func TestSelfTest(t *testing.T) {
	out, err := runApp(t, "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Flash Test: PASS (16MB)")
}

func TestRead_Dump(t *testing.T) {
	out, err := runApp(t, "read", "--address", "0x1000", "--length", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "001000  FF FF")
	assert.Contains(t, out, "001010  FF FF FF FF")
}

func TestRead_OutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bin")
	out, err := runApp(t, "read", "-a", "0", "-n", "32", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "32 bytes from 0x000000 saved")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 32), data)

	// Ranges running past the end are clipped.
	out, err = runApp(t, "read", "-a", "0xFFFFF0", "-n", "64", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "16 bytes from 0xfffff0 saved")

	out, err = runApp(t, "read", "-a", "0", "-n", "4", "--fast")
	require.NoError(t, err)
	assert.Contains(t, out, "000000  FF FF FF FF")
}

func TestWrite(t *testing.T) {
	out, err := runApp(t, "write", "--address", "0x10", "--data", "de ad be ef")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 4 bytes at 0x000010")

	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, []byte("firmware"), 0o600))
	out, err = runApp(t, "write", "--address", "0x2000", "--in", path, "--no-check")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 8 bytes")
}

func TestWrite_Usage(t *testing.T) {
	_, err := runApp(t, "write", "--address", "0")
	assert.Equal(t, console.ExitUsage, exitCode(err))

	_, err = runApp(t, "write", "--address", "0", "--data", "zz")
	assert.Equal(t, console.ExitUsage, exitCode(err))

	_, err = runApp(t, "write", "--address", "0xFFFFFF", "--data", "0102")
	assert.ErrorIs(t, err, w25q128.ErrOutOfRange)
}

func TestErase(t *testing.T) {
	for _, unit := range []string{"sector", "block32", "block"} {
		out, err := runApp(t, "erase", unit, "--address", "0x10000")
		require.NoError(t, err, unit)
		assert.Contains(t, out, fmt.Sprintf("%s containing 0x010000 erased", unit))
	}

	out, err := runApp(t, "erase", "range", "--address", "0", "--size", "0x11000")
	require.NoError(t, err)
	assert.Contains(t, out, "69632 bytes erased")

	_, err = runApp(t, "erase", "range", "--address", "0x10", "--size", "4096")
	assert.Equal(t, console.ExitUsage, exitCode(err))

	out, err = runApp(t, "erase", "chip", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "chip erased")
}

func TestEraseRange_PastEnd(t *testing.T) {
	for _, tc := range []struct {
		address string
		size    string
	}{
		{"0", "0x100001000"},
		{"0", "0x1001000"},
		{"0xFFF000", "0x2000"},
	} {
		out, err := runApp(t, "erase", "range", "--address", tc.address, "--size", tc.size)
		assert.Equal(t, console.ExitUsage, exitCode(err), tc.size)
		assert.NotContains(t, out, "bytes erased", tc.size)
	}

	// The whole chip is still a valid range.
	out, err := runApp(t, "erase", "range", "--address", "0", "--size", "0x1000000")
	require.NoError(t, err)
	assert.Contains(t, out, "16777216 bytes erased")
}

func TestPowerAndReset(t *testing.T) {
	out, err := runApp(t, "power", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "powered down")

	out, err = runApp(t, "power", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "released")

	out, err = runApp(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "flash reset")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: usb\n"), 0o600))
	// The command line transport wins over the file.
	_, err := runApp(t, "--config", path, "id")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("speed_hz: -5\n"), 0o600))
	_, err = runApp(t, "--config", path, "id")
	assert.Equal(t, console.ExitUsage, exitCode(err))
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, "Flash Test: PASS (16MB)", Verdict(w25q128.TestReport{Capacity: 16 << 20}, nil))
	assert.Equal(t, "Flash Test: FAIL (ID ERR)", Verdict(w25q128.TestReport{}, &w25q128.IDMismatchError{Expected: 0xEF}))
	assert.Equal(t, "Flash Test: FAIL (SIZE ERR)", Verdict(w25q128.TestReport{}, &w25q128.SizeOutOfRangeError{Code: 0x05}))
	assert.Equal(t, "Flash Test: FAIL (R/W ERR)", Verdict(w25q128.TestReport{}, &w25q128.DataMismatchError{}))
	assert.Equal(t, "Flash Test: FAIL (R/W ERR)", Verdict(w25q128.TestReport{}, w25q128.ErrTimeout))
}

func TestParseHex(t *testing.T) {
	b, err := parseHex("0x01FF23")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xFF, 0x23}, b)
	_, err = parseHex("abc")
	assert.Error(t, err)
}
