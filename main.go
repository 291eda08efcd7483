// The CLI application is in cmd/forestdata/
// Build with: go build -o forestdata ./cmd/forestdata
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "Please build from cmd/forestdata: go build -o forestdata ./cmd/forestdata")
	os.Exit(1)
}
