package main

import (
	"os"

	"github.com/scan-io-git/ghasmell/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
