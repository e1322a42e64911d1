package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogAppendAssignsIDAndTimestamp(t *testing.T) {
	log := NewLog(10)
	stored := log.Append(Entry{Kind: KindText, Status: StatusSuccess, SessionID: "sess-1"})

	require.NotEmpty(t, stored.ID)
	require.False(t, stored.Timestamp.IsZero())
	require.Equal(t, time.UTC, stored.Timestamp.Location())

	recent := log.Recent(1)
	require.Len(t, recent, 1)
	require.Equal(t, stored, recent[0])
}

func TestLogEvictsOldestAtCapacity(t *testing.T) {
	log := NewLog(3)
	for i := 0; i < 5; i++ {
		log.Append(Entry{ID: fmt.Sprintf("e%d", i), Kind: KindText, Status: StatusSuccess})
	}

	require.Equal(t, 3, log.Len())
	recent := log.Recent(10)
	require.Len(t, recent, 3)
	require.Equal(t, "e4", recent[0].ID)
	require.Equal(t, "e3", recent[1].ID)
	require.Equal(t, "e2", recent[2].ID)
}

func TestLogRecentClampsAndOrders(t *testing.T) {
	log := NewLog(200)
	require.Empty(t, log.Recent(5))
	require.Empty(t, log.Recent(0))

	for i := 0; i < 4; i++ {
		log.Append(Entry{ID: fmt.Sprintf("e%d", i), Kind: KindAudio, Status: StatusError})
	}

	recent := log.Recent(2)
	require.Len(t, recent, 2)
	require.Equal(t, "e3", recent[0].ID)
	require.Equal(t, "e2", recent[1].ID)

	require.Len(t, log.Recent(100), 4)
}

func TestLogTruncatesErrorMessage(t *testing.T) {
	log := NewLog(1)
	long := make([]rune, 1000)
	for i := range long {
		long[i] = 'x'
	}
	stored := log.Append(Entry{Kind: KindText, Status: StatusUnavailable, Error: string(long)})
	require.Len(t, []rune(stored.Error), 300)
}

func TestLogConcurrentAppends(t *testing.T) {
	const writers = 16
	const perWriter = 50

	log := NewLog(100)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				log.Append(Entry{Kind: KindText, Status: StatusSuccess})
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, 100, log.Len())
	recent := log.Recent(100)
	require.Len(t, recent, 100)

	seen := make(map[string]struct{}, len(recent))
	for _, entry := range recent {
		require.NotEmpty(t, entry.ID)
		_, dup := seen[entry.ID]
		require.False(t, dup, "entry ids must be unique")
		seen[entry.ID] = struct{}{}
	}
}
