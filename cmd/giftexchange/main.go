// Command giftexchange runs the gift exchange service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tbourn/go-gift-exchange/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	if err := cli.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
