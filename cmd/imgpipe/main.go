package main

import (
	"errors"
	"fmt"
	"os"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signalContext()
	app := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	err := app.execute(ctx, os.Args[1:])
	stop()

	var status exitStatus
	switch {
	case errors.As(err, &status):
		os.Exit(int(status))
	case err != nil:
		fmt.Fprintf(os.Stderr, "imgpipe: %v\n", err)
		os.Exit(1)
	}
}
