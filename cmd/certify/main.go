// certify runs the certification pipeline in-process, without a database or
// blob storage.
//
// Usage:
//
//	certify analyze [--type=full] [--provider=<name|hybrid>] [--mode=policy-engine] <requirement>
//	certify analyze --file=<path> [--json] [-o <package.json>]
//	certify providers [--refresh]
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
