// Command abook2vcf converts an abook addressbook to a vCard stream.
package main

import (
	"os"
	"strings"

	"abookvcf/internal/cli"
)

func main() {
	env := make(map[string]string)

	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.RunAbook2VCF(os.Stdout, os.Stderr, os.Args, env))
}
