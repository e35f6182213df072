package activity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	l := NewLog()

	l.Append("market", "Market started manual")
	l.Append("", "second")
	l.Append("api", "third")

	entries := l.Recent(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, "third", entries[1].Message)
	assert.Equal(t, "api", entries[1].Source)

	all := l.Recent(0)
	assert.Len(t, all, 3)
}

func TestRetentionBound(t *testing.T) {
	l := NewLog()

	for i := 0; i < maxEntries+50; i++ {
		l.Append("", fmt.Sprintf("entry %d", i))
	}

	entries := l.Recent(0)
	require.Len(t, entries, maxEntries)
	assert.Equal(t, "entry 50", entries[0].Message)
}

func TestSubscribeReceivesLiveEntries(t *testing.T) {
	l := NewLog()

	ch := l.Subscribe()
	defer l.Unsubscribe(ch)

	l.Append("market", "hello")

	select {
	case entry := <-ch:
		assert.Equal(t, "hello", entry.Message)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the entry")
	}
}

func TestSlowSubscriberDoesNotBlockAppend(t *testing.T) {
	l := NewLog()

	ch := l.Subscribe()
	defer l.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			l.Append("", "burst")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("append blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	l := NewLog()

	ch := l.Subscribe()
	l.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)

	// double unsubscribe is harmless
	l.Unsubscribe(ch)
}

func TestEntryString(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	withSource := Entry{Time: ts, Source: "market", Message: "Market started"}
	assert.Equal(t, "[09:30:00] - [market] Market started [14.03.2026]", withSource.String())

	noSource := Entry{Time: ts, Message: "Market started"}
	assert.Equal(t, "[09:30:00] - Market started [14.03.2026]", noSource.String())
}
