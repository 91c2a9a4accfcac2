package audit

import (
	"testing"
	"time"
)

func chainOf(t *testing.T, n int) []Entry {
	t.Helper()
	entries := make([]Entry, 0, n)
	prev := GenesisHash
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		e := Entry{
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Source:     "api",
			Action:     ActionCreate,
			EntityType: "transaction",
			EntityID:   int64(i + 1),
			NewValues:  `{"amount":"10.00"}`,
		}
		e.Seal(prev)
		prev = e.EntryHash
		entries = append(entries, e)
	}
	return entries
}

func TestVerifyIntactChain(t *testing.T) {
	entries := chainOf(t, 5)
	if got := Verify(entries); got != -1 {
		t.Fatalf("Verify = %d, want -1", got)
	}
	if got := Verify(nil); got != -1 {
		t.Fatalf("Verify(empty) = %d, want -1", got)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([]Entry)
		want   int
	}{
		{"payload edited", func(es []Entry) { es[2].NewValues = `{"amount":"999.00"}` }, 2},
		{"hash replaced", func(es []Entry) { es[1].EntryHash = es[0].EntryHash }, 1},
		{"chain relinked", func(es []Entry) { es[3].PreviousHash = GenesisHash }, 3},
		{"entry removed", func(es []Entry) { copy(es[1:], es[2:]) }, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := chainOf(t, 5)
			tc.mutate(entries)
			if got := Verify(entries); got != tc.want {
				t.Fatalf("Verify = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSealIsDeterministic(t *testing.T) {
	ts := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	a := Entry{Timestamp: ts, Action: ActionUpdate, EntityType: "account", EntityID: 7, OldValues: `{"name":"Bank"}`, NewValues: `{"name":"Girokonto"}`}
	b := a
	a.Seal(GenesisHash)
	b.Seal(GenesisHash)
	if a.EntryHash != b.EntryHash {
		t.Fatalf("hashes differ: %s vs %s", a.EntryHash, b.EntryHash)
	}
	if len(a.EntryHash) != 64 {
		t.Fatalf("hash length = %d, want 64", len(a.EntryHash))
	}
}
