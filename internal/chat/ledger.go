package chat

import "sync"

// GiftLedger suppresses per-gift announcements that were already covered by
// a community gift batch: individual gift-sub events spend the batch count
// before announcements resume. Entries live for the process lifetime.
type GiftLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewGiftLedger() *GiftLedger {
	return &GiftLedger{counts: make(map[string]int)}
}

// RecordCommunityGift adds count upcoming individual gift-sub events from
// this gifter to the suppressed set.
func (l *GiftLedger) RecordCommunityGift(gifter string, count int) {
	if count <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[gifter] += count
}

// SuppressIndividual reports whether this individual gift-sub was already
// announced as part of a batch, consuming one suppression if so.
func (l *GiftLedger) SuppressIndividual(gifter string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[gifter] > 0 {
		l.counts[gifter]--
		return true
	}
	return false
}
