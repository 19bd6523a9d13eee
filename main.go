package main

import (
	"context"
	"fmt"
	"os"

	"PosPrint/app/cli"
)

func main() {
	// Recover from any panic and report it
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
