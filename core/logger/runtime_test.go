package logger

import "testing"

func TestBuildRID(t *testing.T) {
	got := BuildRID(42, 100, 7)
	if got != "42:100:7" {
		t.Fatalf("BuildRID = %q, want 42:100:7", got)
	}
}

func TestSanitizeStripsControls(t *testing.T) {
	in := "hello\x00world\tok\nend\x7f"
	got := Sanitize(in)
	if got != "helloworld\tok\nend" {
		t.Fatalf("Sanitize = %q", got)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q, want abc", got)
	}
	if got := SanitizeLimit("abc", 0); got != "" {
		t.Fatalf("SanitizeLimit with zero max = %q, want empty", got)
	}
}

func TestUpdateMetaRoundTrip(t *testing.T) {
	ctx := WithUpdateMeta(Background(), 11, 22, 33)
	if got := UpdateIDFrom(ctx); got != 11 {
		t.Fatalf("UpdateIDFrom = %d", got)
	}
	if got := UserIDFrom(ctx); got != 22 {
		t.Fatalf("UserIDFrom = %d", got)
	}
	if got := ChatIDFrom(ctx); got != 33 {
		t.Fatalf("ChatIDFrom = %d", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	joined, truncated := SummarizeStrings([]string{"a", "b", "c"}, 2)
	if joined != "a, b" || !truncated {
		t.Fatalf("SummarizeStrings = %q truncated=%v", joined, truncated)
	}
	joined, truncated = SummarizeStrings([]string{"a"}, 2)
	if joined != "a" || truncated {
		t.Fatalf("SummarizeStrings = %q truncated=%v", joined, truncated)
	}
}
