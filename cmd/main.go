// Package main is the stylist command: the HTTP server plus offline tools
// that run the engine against a wardrobe fixture.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
