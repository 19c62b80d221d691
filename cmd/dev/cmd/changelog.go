package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"

	"github.com/spf13/cobra"
)

var releaseTag = regexp.MustCompile(`^v\d+\.\d+\.\d+(-[0-9A-Za-z.]+)?$`)

// chglogArgs builds the git-chglog arguments. Release tags follow vX.Y.Z,
// optionally with a pre-release suffix.
func chglogArgs(next, tag, output string) ([]string, error) {
	var args []string
	if next != "" {
		if !releaseTag.MatchString(next) {
			return nil, fmt.Errorf("next version %q is not a vX.Y.Z release tag", next)
		}
		args = append(args, "--next-tag", next)
	}
	if output == "" {
		output = "CHANGELOG.md"
	}
	args = append(args, "--output", output)
	if tag != "" {
		if !releaseTag.MatchString(tag) {
			return nil, fmt.Errorf("tag %q is not a vX.Y.Z release tag", tag)
		}
		args = append(args, tag)
	}
	return args, nil
}

func ChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Generate or update the flashctl CHANGELOG.md from git history",
		Long: `Generate CHANGELOG.md for flashctl releases using git-chglog.

Install git-chglog first:
  go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest

Commits follow the conventional commit format, scoped by package:
  <type>(w25q128|spi|flashctl|config): <description>

Supported types: feat, fix, docs, refactor, test, perf, build, ci, chore

Examples:
  # Changelog up to the current tag
  dev changelog

  # Notes for the upcoming release
  dev changelog --next v1.2.0

  # Notes for one release only
  dev changelog --tag v1.0.0 --output RELEASE.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("could not get output flag: %w", err)
			}
			nextVersion, err := cmd.Flags().GetString("next")
			if err != nil {
				return fmt.Errorf("could not get next flag: %w", err)
			}
			tag, err := cmd.Flags().GetString("tag")
			if err != nil {
				return fmt.Errorf("could not get tag flag: %w", err)
			}

			chglog, err := chglogArgs(nextVersion, tag, output)
			if err != nil {
				return err
			}
			if _, err := exec.LookPath("git-chglog"); err != nil {
				slog.Error("git-chglog not found in PATH, install it with: go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest")
				return fmt.Errorf("git-chglog not installed: %w", err)
			}

			slog.Info("running git-chglog", "args", chglog)
			gitChglog := exec.Command("git-chglog", chglog...)
			gitChglog.Stdout = os.Stdout
			gitChglog.Stderr = os.Stderr
			if err := gitChglog.Run(); err != nil {
				return fmt.Errorf("failed to generate changelog: %w", err)
			}
			slog.Info("changelog generated", "output", output)
			return nil
		},
	}

	cmd.Flags().String("next", "", "upcoming release tag (e.g. v1.2.0)")
	cmd.Flags().String("output", "CHANGELOG.md", "output file path")
	cmd.Flags().String("tag", "", "generate notes for a single release tag")

	return cmd
}
