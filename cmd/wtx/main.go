package main

import (
	"fmt"
	"os"

	"github.com/openwikitools/wtx/internal/cmd/root"
)

func main() {
	if err := root.NewCmdRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
