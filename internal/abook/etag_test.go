package abook

import (
	"strings"
	"testing"
)

func TestETagQuotedAndStable(t *testing.T) {
	t.Parallel()

	entry := Entry{fieldName: "Jane Doe", fieldEmail: "jane@x.com"}

	etag := entry.ETag()
	if !strings.HasPrefix(etag, `"`) || !strings.HasSuffix(etag, `"`) {
		t.Errorf("etag %q is not quoted", etag)
	}

	// 40 hex chars plus the quotes.
	if len(etag) != 42 {
		t.Errorf("etag %q has length %d, want 42", etag, len(etag))
	}

	if again := entry.ETag(); again != etag {
		t.Errorf("etag not stable: %q then %q", etag, again)
	}
}

func TestETagSensitivity(t *testing.T) {
	t.Parallel()

	base := Entry{fieldName: "Jane Doe", fieldEmail: "jane@x.com", fieldCity: "Bonn"}
	baseTag := base.ETag()

	tests := []struct {
		name  string
		entry Entry
	}{
		{"changed value", Entry{fieldName: "Jane Doe", fieldEmail: "jane@y.com", fieldCity: "Bonn"}},
		{"added field", Entry{fieldName: "Jane Doe", fieldEmail: "jane@x.com", fieldCity: "Bonn", fieldNick: "jd"}},
		{"removed field", Entry{fieldName: "Jane Doe", fieldEmail: "jane@x.com"}},
		{"value moved between fields", Entry{fieldName: "Jane Doe", fieldEmail: "jane@x.com", fieldState: "Bonn"}},
	}

	for _, testCase := range tests {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if testCase.entry.ETag() == baseTag {
				t.Errorf("etag did not change for %s", testCase.name)
			}
		})
	}
}
