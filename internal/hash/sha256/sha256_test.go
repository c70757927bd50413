package sha256

import "testing"

// TestHasherRecordIDFromURL pins the id a posting URL maps to.
func TestHasherRecordIDFromURL(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("https://wuzzuf.net/jobs/p/abc-Data-Engineer"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	want := "a68a4f4276df5ff35f89baef184003707f4d20b2220a69408f4428dafd0e21b5"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	again, err := h.Hash([]byte("https://wuzzuf.net/jobs/p/abc-Data-Engineer"))
	if err != nil {
		t.Fatalf("Hash() repeat error = %v", err)
	}
	if again != got {
		t.Fatalf("expected deterministic hash, got %s vs %s", got, again)
	}
	other, _ := h.Hash([]byte("https://wuzzuf.net/jobs/p/def-Data-Engineer"))
	if other == got {
		t.Fatal("expected different URLs to hash differently")
	}
}
