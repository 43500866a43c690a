// Command genomectl queries genome assemblies, genes, sequences and clinical
// variants from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/genome-variant-explorer/internal/cli"
)

// Version information (set at build time)
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Options{Version: version})
	stop()
	os.Exit(code)
}
