package inmemorycache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/patterngridgo/internal/pattern"
	"github.com/vk/patterngridgo/internal/rational"
)

func somePattern() *pattern.Pattern {
	return pattern.WithBounds([]pattern.Event{{
		Start: rational.Rational{},
		Note:  pattern.Note{Duration: rational.New(1, 4), Pitch: 60, Velocity: 100},
	}}, nil)
}

func TestStoreAndLoad(t *testing.T) {
	s := New()
	p := somePattern()

	s.StoreResult("a", p, 42)

	got, stamp, ok := s.Load("a")
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, uint64(42), stamp)
}

func TestLoadMissing(t *testing.T) {
	s := New()
	_, _, ok := s.Load("missing")
	assert.False(t, ok)
}

func TestNegativeEntryIsRemembered(t *testing.T) {
	s := New()
	s.StoreResult("failed", nil, 7)

	p, stamp, ok := s.Load("failed")
	require.True(t, ok, "a nil result is still an entry")
	assert.Nil(t, p)
	assert.Equal(t, uint64(7), stamp)
}

func TestEvict(t *testing.T) {
	s := New()
	s.StoreResult("a", somePattern(), 1)
	s.Evict("a")

	_, _, ok := s.Load("a")
	assert.False(t, ok)

	s.Evict("never-existed")
}

func TestClear(t *testing.T) {
	s := New()
	s.StoreResult("a", somePattern(), 1)
	s.StoreResult("b", nil, 2)

	s.Clear()

	_, _, okA := s.Load("a")
	_, _, okB := s.Load("b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestOverwriteReplacesStamp(t *testing.T) {
	s := New()
	s.StoreResult("a", nil, 1)
	s.StoreResult("a", somePattern(), 2)

	p, stamp, ok := s.Load("a")
	require.True(t, ok)
	assert.NotNil(t, p)
	assert.Equal(t, uint64(2), stamp)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("node-%d", n%8)
			s.StoreResult(id, somePattern(), uint64(n))
			s.Load(id)
			if n%8 == 0 {
				s.Evict(id)
			}
		}(i)
	}
	wg.Wait()
}
