package domain

import (
	"reflect"
	"testing"
)

func TestSeenSetIDsSorted(t *testing.T) {
	t.Parallel()

	s := NewSeenSet("300", "100", "", "200", "100")
	if s.Len() != 3 {
		t.Fatalf("expected 3 ids, got %d", s.Len())
	}

	want := []string{"100", "200", "300"}
	if got := s.IDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected ids: %v", got)
	}
}

func TestSeenSetCloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := NewSeenSet("1")
	clone := orig.Clone()
	clone.Add("2")

	if orig.Has("2") {
		t.Fatal("clone mutation leaked into original")
	}
	if !clone.Has("1") || !clone.Has("2") {
		t.Fatalf("unexpected clone contents: %v", clone.IDs())
	}
}

func TestNewNotification(t *testing.T) {
	t.Parallel()

	n := NewNotification(
		BillSummary{ID: "9999", Number: "1234", URL: "https://example.org/list/9999"},
		BillDetails{Title: "Draft Law", Date: "05.01.2026", URL: "https://example.org/card/9999"},
	)

	want := Notification{Title: "Draft Law", Number: "1234", Date: "05.01.2026", URL: "https://example.org/card/9999"}
	if n != want {
		t.Fatalf("unexpected notification: %+v", n)
	}
}
