package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

type cachedDocument struct {
	State string `json:"state"`
	City  string `json:"city"`
}

func TestStoreCacheRoundTrip(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := defineTestStore(t, nil)

	assert.Nil(uut.SaveToCache(
		utCtx, "current_location", cachedDocument{State: "CA", City: "Los Angeles"}, time.Hour,
	))

	var fetched cachedDocument
	hit, err := uut.GetFromCache(utCtx, "current_location", &fetched)
	assert.Nil(err)
	assert.True(hit)
	assert.Equal("CA", fetched.State)
	assert.Equal("Los Angeles", fetched.City)

	// Unknown key is a miss, not an error
	hit, err = uut.GetFromCache(utCtx, "missing", &fetched)
	assert.Nil(err)
	assert.False(hit)

	// Removal
	assert.Nil(uut.RemoveFromCache(utCtx, "current_location"))
	hit, err = uut.GetFromCache(utCtx, "current_location", &fetched)
	assert.Nil(err)
	assert.False(hit)

	// Removing an absent key is a no-op
	assert.Nil(uut.RemoveFromCache(utCtx, "current_location"))
}

func TestStoreCacheExpiry(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	currentTime := time.Now().UTC()
	uut := defineTestStore(t, func() time.Time { return currentTime })

	assert.Nil(uut.SaveToCache(
		utCtx, "current_location", cachedDocument{State: "CA"}, time.Minute,
	))

	// Still fresh just before the deadline
	currentTime = currentTime.Add(time.Second * 59)
	var fetched cachedDocument
	hit, err := uut.GetFromCache(utCtx, "current_location", &fetched)
	assert.Nil(err)
	assert.True(hit)

	// Past the deadline the entry reads as a miss and is evicted
	currentTime = currentTime.Add(time.Second * 2)
	hit, err = uut.GetFromCache(utCtx, "current_location", &fetched)
	assert.Nil(err)
	assert.False(hit)

	// Rewinding the clock does not resurrect the evicted entry
	currentTime = currentTime.Add(-time.Minute)
	hit, err = uut.GetFromCache(utCtx, "current_location", &fetched)
	assert.Nil(err)
	assert.False(hit)
}
