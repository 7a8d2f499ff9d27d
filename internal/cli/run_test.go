package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleBook = `[format]
program=abook
version=0.6.1

[0]
name=Jane Doe
email=jane@x.com,jane@y.com
phone=555-1000
`

func runAbook2VCF(t *testing.T, env map[string]string, args ...string) (string, string, int) {
	t.Helper()

	var out, errOut bytes.Buffer

	code := RunAbook2VCF(&out, &errOut, append([]string{"abook2vcf"}, args...), env)

	return out.String(), errOut.String(), code
}

func runVCF2Abook(t *testing.T, stdin string, env map[string]string, args ...string) (string, int) {
	t.Helper()

	var out, errOut bytes.Buffer

	code := RunVCF2Abook(strings.NewReader(stdin), &out, &errOut, append([]string{"vcf2abook"}, args...), env)

	return errOut.String(), code
}

func TestAbook2VCFToStdout(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)

	path := filepath.Join(t.TempDir(), "addressbook")
	if err := os.WriteFile(path, []byte(sampleBook), 0o644); err != nil {
		t.Fatalf("write addressbook: %v", err)
	}

	stdout, stderr, code := runAbook2VCF(t, env, "--fqdn", "test.invalid", path)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	for _, want := range []string{
		"BEGIN:VCARD",
		"FN:Jane Doe",
		"UID:0@test.invalid",
		"TEL;TYPE=home:555-1000",
		"END:VCARD",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestAbook2VCFToFile(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)
	dir := t.TempDir()

	bookPath := filepath.Join(dir, "addressbook")
	if err := os.WriteFile(bookPath, []byte(sampleBook), 0o644); err != nil {
		t.Fatalf("write addressbook: %v", err)
	}

	outPath := filepath.Join(dir, "out.vcf")

	stdout, stderr, code := runAbook2VCF(t, env, bookPath, outPath)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	if stdout != "" {
		t.Errorf("stdout should be empty when writing to a file, got %q", stdout)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if !strings.Contains(string(content), "FN:Jane Doe") {
		t.Errorf("output file missing card:\n%s", content)
	}
}

func TestAbook2VCFUnparseableBook(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)

	path := filepath.Join(t.TempDir(), "addressbook")
	if err := os.WriteFile(path, []byte("[0\nname=Broken"), 0o644); err != nil {
		t.Fatalf("write addressbook: %v", err)
	}

	_, stderr, code := runAbook2VCF(t, env, path)
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}

	if !strings.Contains(stderr, "error:") {
		t.Errorf("stderr missing error line: %q", stderr)
	}
}

func TestAbook2VCFTooManyArgs(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)

	_, stderr, code := runAbook2VCF(t, env, "a", "b", "c")
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}

	if !strings.Contains(stderr, "too many arguments") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestVCF2AbookFromStdin(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)

	vcf := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:Bob Lee",
		"N:Lee;Bob;;;",
		"EMAIL:bob@example.org",
		"END:VCARD",
		"",
	}, "\r\n")

	outPath := filepath.Join(t.TempDir(), "addressbook")

	stderr, code := runVCF2Abook(t, vcf, env, "-", outPath)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read addressbook: %v", err)
	}

	text := string(content)

	for _, want := range []string{"[format]", "program=abook", "[0]", "name=Bob Lee", "email=bob@example.org"} {
		if !strings.Contains(text, want) {
			t.Errorf("addressbook missing %q:\n%s", want, text)
		}
	}
}

func TestVCF2AbookBadInput(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)

	outPath := filepath.Join(t.TempDir(), "addressbook")

	stderr, code := runVCF2Abook(t, "BEGIN:VCARD\r\nFN\r\n", env, "-", outPath)
	if code != 1 {
		t.Fatalf("exit code %d, want 1; stderr: %s", code, stderr)
	}
}

func TestCLIRoundTrip(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)
	dir := t.TempDir()

	bookPath := filepath.Join(dir, "addressbook")
	if err := os.WriteFile(bookPath, []byte(sampleBook), 0o644); err != nil {
		t.Fatalf("write addressbook: %v", err)
	}

	stdout, stderr, code := runAbook2VCF(t, env, "--fqdn", "test.invalid", bookPath)
	if code != 0 {
		t.Fatalf("abook2vcf exit code %d, stderr: %s", code, stderr)
	}

	backPath := filepath.Join(dir, "roundtrip")

	stderr, code = runVCF2Abook(t, stdout, env, "-", backPath)
	if code != 0 {
		t.Fatalf("vcf2abook exit code %d, stderr: %s", code, stderr)
	}

	content, err := os.ReadFile(backPath)
	if err != nil {
		t.Fatalf("read roundtrip book: %v", err)
	}

	text := string(content)

	for _, want := range []string{"name=Jane Doe", "email=jane@x.com,jane@y.com", "phone=555-1000"} {
		if !strings.Contains(text, want) {
			t.Errorf("roundtrip book missing %q:\n%s", want, text)
		}
	}
}

func TestConfigDefaultAddressbook(t *testing.T) {
	t.Parallel()

	env, configHome := testEnv(t)
	dir := t.TempDir()

	bookPath := filepath.Join(dir, "addressbook")
	if err := os.WriteFile(bookPath, []byte(sampleBook), 0o644); err != nil {
		t.Fatalf("write addressbook: %v", err)
	}

	cfgPath := filepath.Join(configHome, "abookvcf", "config.json")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}

	cfg := `{"addressbook": ` + jsonString(bookPath) + `, "fqdn": "cfg.example"}`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, stderr, code := runAbook2VCF(t, env)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}

	if !strings.Contains(stdout, "UID:0@cfg.example") {
		t.Errorf("config addressbook/fqdn not used:\n%s", stdout)
	}
}

func jsonString(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}
