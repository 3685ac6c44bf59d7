// Command portfolio builds the search index and serves the portfolio content
// and search API. Run "portfolio --help" for the available commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tbourn/go-portfolio-backend/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
