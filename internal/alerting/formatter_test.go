package alerting

import (
	"strings"
	"testing"
)

func TestBuildDigestsBothCategories(t *testing.T) {
	messages := BuildDigests([]string{"bitcoin", "solana"}, []string{"ethereum"})
	if len(messages) != 2 {
		t.Fatalf("expected 2 digests, got %d", len(messages))
	}

	crossed := messages[0].Text()
	if !strings.HasPrefix(crossed, CrossedHeader) {
		t.Fatalf("crossed digest missing header: %q", crossed)
	}
	lines := strings.Split(crossed, "\n")
	if len(lines) != 3 || lines[1] != "bitcoin" || lines[2] != "solana" {
		t.Fatalf("one symbol per line expected, got %q", crossed)
	}

	if messages[1].Classification != "near" {
		t.Fatalf("second digest should be near, got %s", messages[1].Classification)
	}
}

func TestBuildDigestsEmptyCategoryOmitted(t *testing.T) {
	messages := BuildDigests(nil, []string{"ethereum"})
	if len(messages) != 1 {
		t.Fatalf("empty crossed set must produce no message, got %d", len(messages))
	}
	if messages[0].Classification != "near" {
		t.Fatalf("expected near digest, got %s", messages[0].Classification)
	}

	if got := BuildDigests(nil, nil); len(got) != 0 {
		t.Fatalf("no results must produce no digests, got %d", len(got))
	}
}
