package domain

import "sort"

// BillSummary is a single entry of the register listing page.
type BillSummary struct {
	ID     string
	Number string
	URL    string
}

// BillDetails is what could be extracted from a bill detail page.
type BillDetails struct {
	Title string
	Date  string
	URL   string
}

// Notification is the message dispatched for a bill that passed the keyword filter.
type Notification struct {
	Title  string
	Number string
	Date   string
	URL    string
}

// NewNotification derives the outgoing message from the listing entry and its details.
func NewNotification(summary BillSummary, details BillDetails) Notification {
	return Notification{
		Title:  details.Title,
		Number: summary.Number,
		Date:   details.Date,
		URL:    details.URL,
	}
}

// Delivery reports the outcome of a notification attempt.
type Delivery struct {
	Delivered bool
	Err       error
}

// CycleReport carries the counters of one poll cycle.
type CycleReport struct {
	CycleID   string
	Listed    int
	New       int
	Failed    int
	Notified  int
	Delivered int
	SeenTotal int
	Persisted bool
}

// SeenSet holds identifiers of bills that were already processed.
type SeenSet map[string]struct{}

// NewSeenSet builds a set from the given identifiers.
func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id was processed before.
func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add marks id as processed. Empty identifiers are ignored.
func (s SeenSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Len returns the number of identifiers in the set.
func (s SeenSet) Len() int {
	return len(s)
}

// IDs returns the identifiers in lexical order.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of the set.
func (s SeenSet) Clone() SeenSet {
	out := make(SeenSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
