package main

import (
	"log"

	"github.com/victornm/asking/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("asking: %v", err)
	}
}
