// cmd/historian/historian_test.go
package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KennyPhan123/spicy-online/internal/cache"
)

func TestBatchFillFlushesWithoutDeadlock(t *testing.T) {
	hs := &HistorianService{
		batchSize:  3,
		flushDelay: time.Second,
		batch:      make([]cache.RoomActionRecord, 0, 3),
	}

	// Filling the batch past its threshold triggers an inline flush from
	// appendToBatch while the batch lock is held.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			hs.appendToBatch(cache.RoomActionRecord{
				RoomCode:    "AAAA",
				ActionIndex: i,
				ActionType:  "drawCard",
			})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("appendToBatch deadlocked on batch fill")
	}

	// Flushes fired at 3, 6, and 9 records; one record remains buffered.
	hs.batchMu.Lock()
	assert.Len(t, hs.batch, 1)
	hs.batchMu.Unlock()
}

func TestTickerFlushOnEmptyBatchIsNoop(t *testing.T) {
	hs := &HistorianService{
		batchSize: 20,
		batch:     make([]cache.RoomActionRecord, 0, 20),
	}

	hs.flushBatchToDB()

	hs.batchMu.Lock()
	assert.Empty(t, hs.batch)
	hs.batchMu.Unlock()
}
