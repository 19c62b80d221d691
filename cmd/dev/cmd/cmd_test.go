package cmd

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "dist/flashctl", artifactPath(runtime.GOOS, runtime.GOARCH))
	assert.Equal(t, "dist/flashctl-linux-arm", artifactPath("linux", "arm"))
	assert.Equal(t, "dist/flashctl-windows-amd64", artifactPath("windows", "amd64"))
}

func TestFlashctlBuildOpts(t *testing.T) {
	opts := flashctlBuildOpts("v1.0.0", "linux", "arm", false)
	assert.Equal(t, "github.com/mklimuk/flashboard/config", opts.ConfigPackage)
	assert.True(t, opts.InjectVersion)
	assert.True(t, opts.EnableCgo)
	assert.Empty(t, opts.Tags)
	assert.Equal(t, "arm", opts.Arch)

	opts = flashctlBuildOpts("v1.0.0", "linux", "arm64", true)
	assert.False(t, opts.EnableCgo)
	assert.Equal(t, []string{"no_d2xx"}, opts.Tags)
}

func TestChglogArgs(t *testing.T) {
	args, err := chglogArgs("", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"--output", "CHANGELOG.md"}, args)

	args, err = chglogArgs("v1.2.0", "", "CHANGES.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"--next-tag", "v1.2.0", "--output", "CHANGES.md"}, args)

	args, err = chglogArgs("", "v1.0.0-rc.1", "RELEASE.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"--output", "RELEASE.md", "v1.0.0-rc.1"}, args)

	_, err = chglogArgs("1.2", "", "")
	assert.Error(t, err)
	_, err = chglogArgs("", "latest", "")
	assert.Error(t, err)
}

func TestIntegrationArgs(t *testing.T) {
	args := integrationArgs("./memory/w25q128/...")
	assert.Equal(t, []string{"-tags", "integration", "-count=1", "./memory/w25q128/..."}, args[len(args)-4:])
	assert.Contains(t, args, "--")
}

func TestSmokeArgs(t *testing.T) {
	assert.Equal(t, []string{"--version"}, smokeArgs("mock", "", []string{"--version"}))
	assert.Equal(t, []string{"--transport", "mock", "id"}, smokeArgs("mock", "", []string{"id"}))
	assert.Equal(t, []string{"--transport", "periph", "--device", "/dev/spidev0.0", "test"},
		smokeArgs("periph", "/dev/spidev0.0", []string{"test"}))
}
