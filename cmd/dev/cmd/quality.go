package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/magefile/mage/sh"
	"github.com/spf13/cobra"
)

const (
	gotestsum      = "gotest.tools/gotestsum@v1.12.0"
	integrationTag = "integration"
	// deviceEnv names the SPI port the hardware tests open.
	deviceEnv = "FLASH_SPI_DEVICE"
)

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (driver against the simulated chip)",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Test()
			if err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func LintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Lint()
			if err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
	return cmd
}

// integrationArgs builds the gotestsum invocation for the hardware tests.
// Results are never cached since they depend on the attached chip.
func integrationArgs(pkg string) []string {
	return []string{
		"run", gotestsum,
		"--no-summary=skipped",
		"--junitfile", "./integration.xml",
		"--format", "standard-verbose",
		"--", "-tags", integrationTag, "-count=1", pkg,
	}
}

func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration testing against a flash chip on real hardware",
		Long: `Run the integration-tagged tests against an attached chip.

The last 64KB block of the chip is erased and rewritten. The device is a
spidev path (e.g. /dev/spidev0.0) or "ft232h" for a USB bridge; it defaults
to $FLASH_SPI_DEVICE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := cmd.Flags().GetString("device")
			if err != nil {
				return fmt.Errorf("could not get device flag: %w", err)
			}
			pkg, err := cmd.Flags().GetString("package")
			if err != nil {
				return fmt.Errorf("could not get package flag: %w", err)
			}
			if device == "" {
				return fmt.Errorf("no SPI device: pass --device or set %s", deviceEnv)
			}
			slog.Info("running integration tests", "device", device, "package", pkg)
			err = sh.RunWithV(map[string]string{deviceEnv: device}, "go", integrationArgs(pkg)...)
			if err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("device", os.Getenv(deviceEnv), "SPI port the chip is attached to")
	cmd.Flags().String("package", "./memory/w25q128/...", "packages holding the integration tests")
	return cmd
}
