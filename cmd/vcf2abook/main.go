// Command vcf2abook converts a vCard stream to an abook addressbook.
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

	os.Exit(cli.RunVCF2Abook(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
