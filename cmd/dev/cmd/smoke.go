package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/magefile/mage/sh"
	"github.com/spf13/cobra"
)

// smokeSteps lists the read-only or self-contained flashctl commands run
// against a freshly built binary.
var smokeSteps = [][]string{
	{"--version"},
	{"id"},
	{"status"},
	{"test"},
}

func smokeArgs(transport, device string, step []string) []string {
	if len(step) == 1 && step[0] == "--version" {
		return step
	}
	args := []string{"--transport", transport}
	if device != "" {
		args = append(args, "--device", device)
	}
	return append(args, step...)
}

func SmokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run a built flashctl through id, status and self test",
		Long: `Run dist/flashctl through a short command sequence.

By default the simulated chip is used, so this only checks the binary. With
--transport periph --device /dev/spidev0.0 (or --transport ft232h) it checks
the board as well. The self test rewrites sector 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := cmd.Flags().GetString("bin")
			if err != nil {
				return fmt.Errorf("could not get bin flag: %w", err)
			}
			transport, err := cmd.Flags().GetString("transport")
			if err != nil {
				return fmt.Errorf("could not get transport flag: %w", err)
			}
			device, err := cmd.Flags().GetString("device")
			if err != nil {
				return fmt.Errorf("could not get device flag: %w", err)
			}
			for _, step := range smokeSteps {
				slog.Info("smoke", "bin", bin, "args", step)
				if err := sh.RunV(bin, smokeArgs(transport, device, step)...); err != nil {
					return fmt.Errorf("flashctl %v failed: %w", step, err)
				}
			}
			slog.Info("smoke passed", "transport", transport)
			return nil
		},
	}
	cmd.Flags().String("bin", artifactPath(runtime.GOOS, runtime.GOARCH), "flashctl binary")
	cmd.Flags().String("transport", "mock", "transport passed to flashctl")
	cmd.Flags().String("device", "", "SPI port passed to flashctl")
	return cmd
}
