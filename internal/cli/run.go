// Package cli implements the abook2vcf and vcf2abook command lines.
package cli

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"abookvcf/internal/abook"
)

// RunAbook2VCF converts an abook addressbook to a vCard stream.
//
//	abook2vcf [flags] [<addressbook> [<outfile.vcf>]]
//
// The addressbook defaults to the configured path, output to stdout.
// Returns the process exit code.
func RunAbook2VCF(out, errOut io.Writer, args []string, env map[string]string) int {
	flags := flag.NewFlagSet("abook2vcf", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	configPath := flags.StringP("config", "c", "", "Config file (JWCC)")
	fqdn := flags.String("fqdn", "", "Domain suffix for generated UIDs")
	help := flags.BoolP("help", "h", false, "Show help")

	err := flags.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if *help {
		printAbook2VCFUsage(out)

		return 0
	}

	if len(flags.Args()) > 2 {
		fprintln(errOut, "error: too many arguments")
		printAbook2VCFUsage(errOut)

		return 1
	}

	cfg, err := LoadConfig(*configPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if *fqdn != "" {
		cfg.FQDN = *fqdn
	}

	inPath := cfg.Addressbook
	if flags.Arg(0) != "" && flags.Arg(0) != "-" {
		inPath = flags.Arg(0)
	}

	book, err := abook.Open(inPath, cfg.FQDN)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	vcf, err := book.VCF()
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.Args()) > 1 {
		err = os.WriteFile(flags.Arg(1), []byte(vcf), 0o644)
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}

		return 0
	}

	_, _ = io.WriteString(out, vcf)

	return 0
}

// RunVCF2Abook converts a vCard stream to an abook addressbook file.
//
//	vcf2abook [flags] [<infile.vcf> [<addressbook>]]
//
// Input defaults to stdin ("-" also reads stdin), output to the
// configured addressbook path. Returns the process exit code.
func RunVCF2Abook(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	flags := flag.NewFlagSet("vcf2abook", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	configPath := flags.StringP("config", "c", "", "Config file (JWCC)")
	help := flags.BoolP("help", "h", false, "Show help")

	err := flags.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if *help {
		printVCF2AbookUsage(out)

		return 0
	}

	if len(flags.Args()) > 2 {
		fprintln(errOut, "error: too many arguments")
		printVCF2AbookUsage(errOut)

		return 1
	}

	cfg, err := LoadConfig(*configPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	reader := in

	if flags.Arg(0) != "" && flags.Arg(0) != "-" {
		file, err := os.Open(flags.Arg(0))
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}

		defer func() { _ = file.Close() }()

		reader = file
	}

	outPath := cfg.Addressbook
	if len(flags.Args()) > 1 {
		outPath = flags.Arg(1)
	}

	err = abook.Write(reader, outPath)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	return 0
}

func printAbook2VCFUsage(w io.Writer) {
	fprintln(w, "Usage: abook2vcf [flags] [<addressbook> [<outfile.vcf>]]")
	fprintln(w)
	fprintln(w, "Convert an abook addressbook to vCards.")
	fprintln(w)
	fprintln(w, "Defaults: input ~/.abook/addressbook (or config), output stdout.")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, "  -c, --config <file>   Config file (JWCC)")
	fprintln(w, "      --fqdn <domain>   Domain suffix for generated UIDs")
}

func printVCF2AbookUsage(w io.Writer) {
	fprintln(w, "Usage: vcf2abook [flags] [<infile.vcf> [<addressbook>]]")
	fprintln(w)
	fprintln(w, "Convert a vCard stream to an abook addressbook.")
	fprintln(w)
	fprintln(w, "Defaults: input stdin, output ~/.abook/addressbook (or config).")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, "  -c, --config <file>   Config file (JWCC)")
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
