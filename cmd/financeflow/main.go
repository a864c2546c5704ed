package main

import (
	"context"
	"os"

	"financeflow/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
