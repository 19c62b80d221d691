package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes returned by flashctl.
const (
	ExitFailure   = 1
	ExitUsage     = 2
	ExitTestFail  = 3
	ExitCancelled = 4
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
