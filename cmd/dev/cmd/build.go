package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const (
	distDir       = "dist"
	binaryName    = "flashctl"
	mainPackage   = "./cmd/flashctl"
	configPackage = "github.com/mklimuk/flashboard/config"
	// noFTDITag drops the FT232H transport and its cgo d2xx driver.
	noFTDITag = "no_d2xx"
)

// artifactPath names the binary: dist/flashctl for the host and
// dist/flashctl-<os>-<arch> for a cross build.
func artifactPath(goos, goarch string) string {
	if goos == runtime.GOOS && goarch == runtime.GOARCH {
		return filepath.Join(distDir, binaryName)
	}
	return filepath.Join(distDir, fmt.Sprintf("%s-%s-%s", binaryName, goos, goarch))
}

func flashctlBuildOpts(version, goos, goarch string, noFTDI bool) build.GoBuildOpts {
	opts := build.GoBuildOpts{
		Version:       version,
		InjectVersion: true,
		ConfigPackage: configPackage,
		EnableCgo:     true,
		Arch:          goarch,
		OS:            goos,
	}
	if noFTDI {
		opts.EnableCgo = false
		opts.Tags = append(opts.Tags, noFTDITag)
	}
	return opts
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build flashctl",
		Long: `Build the flashctl binary into dist/.

Native builds run go build directly; other targets are built inside the
gobuild docker image. Cross builds for the board (--cross-os linux
--cross-arch arm) land in dist/flashctl-linux-arm. Use --no-ftdi to leave
out the FT232H transport when the FTDI d2xx library is not available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			os := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			crossOs := cmd.Flag("cross-os").Value.String()
			crossArch := cmd.Flag("cross-arch").Value.String()
			noFTDI, err := cmd.Flags().GetBool("no-ftdi")
			if err != nil {
				return fmt.Errorf("could not get no-ftdi flag: %w", err)
			}

			// if this is a native build, use go build
			if os == runtime.GOOS && arch == runtime.GOARCH {
				if crossOs != "" && crossArch != "" {
					os = crossOs
					arch = crossArch
				}
				return build.GoBuild(artifactPath(os, arch), mainPackage, flashctlBuildOpts(version, os, arch, noFTDI))
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			dockerArgs := []string{"build", "--version", version, "--cross-os", crossOs, "--cross-arch", crossArch}
			if noFTDI {
				dockerArgs = append(dockerArgs, "--no-ftdi")
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", os, arch), dockerArgs, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().Bool("no-ftdi", false, "build without the FT232H transport (no cgo)")
	cmd.Flags().String("version", "latest", "version of flashctl")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")

	return cmd
}
