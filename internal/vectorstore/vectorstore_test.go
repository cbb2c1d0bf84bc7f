package vectorstore

import (
	"strings"
	"testing"
)

func TestSanitizeCollectionName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "MyRepo-Files", "myrepo-files"},
		{"strips punctuation", "owner/repo@main-files", "ownerrepomain-files"},
		{"keeps digits", "repo2-chunks", "repo2-chunks"},
		{"trims dashes", "--repo--", "repo"},
		{"empty becomes default", "", "default-index"},
		{"only punctuation becomes default", "@/!!", "default-index"},
		{
			"truncates to 45",
			strings.Repeat("a", 60),
			strings.Repeat("a", 45),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeCollectionName(tt.in); got != tt.want {
				t.Errorf("SanitizeCollectionName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeCollectionName_NoTrailingDashAfterTruncate(t *testing.T) {
	in := strings.Repeat("a", 44) + "-" + strings.Repeat("b", 20)
	got := SanitizeCollectionName(in)
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated name %q ends with a dash", got)
	}
	if len(got) > 45 {
		t.Errorf("len = %d, want <= 45", len(got))
	}
}

func TestPointUUID_Deterministic(t *testing.T) {
	recordID := "34e504138562280e8351e5c739545cec2a4b04ed"

	first := pointUUID(recordID)
	second := pointUUID(recordID)
	if first != second {
		t.Errorf("pointUUID not deterministic: %q vs %q", first, second)
	}

	// First 16 digest bytes map straight into the UUID.
	want := "34e50413-8562-280e-8351-e5c739545cec"
	if first != want {
		t.Errorf("pointUUID = %q, want %q", first, want)
	}
}

func TestPointUUID_DistinctRecords(t *testing.T) {
	a := pointUUID("34e504138562280e8351e5c739545cec2a4b04ed")
	b := pointUUID("d12c0c6c1290c54565006c40da51672cbd93e3da")
	if a == b {
		t.Error("different record IDs mapped to the same point UUID")
	}
}

func TestPointUUID_NonHexFallback(t *testing.T) {
	got := pointUUID("not-a-hex-id")
	if got == "" {
		t.Fatal("empty UUID for non-hex ID")
	}
	if got != pointUUID("not-a-hex-id") {
		t.Error("fallback mapping not deterministic")
	}
}
