package main

import (
	"context"
	"os"

	"go-template-trends-ui/internal/cmd"
)

var version = "dev"

func main() {
	cmd.Version = version
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
