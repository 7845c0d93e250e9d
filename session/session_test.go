package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedRoundTrip(t *testing.T) {
	st := NewStore()
	s := st.New()

	s.Set("counter", 1)

	got, err := Get[int](s, "counter")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// retrieving with the wrong type is a detectable error
	_, err = Get[string](s, "counter")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// absent key is a different error kind
	_, err = Get[int](s, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestHeterogeneousValues(t *testing.T) {
	type profile struct {
		Name string
		Age  int
	}

	st := NewStore()
	s := st.New()
	s.Set("visits", 42)
	s.Set("name", "ada")
	s.Set("profile", profile{Name: "ada", Age: 36})

	visits, err := Get[int](s, "visits")
	require.NoError(t, err)
	assert.Equal(t, 42, visits)

	name, err := Get[string](s, "name")
	require.NoError(t, err)
	assert.Equal(t, "ada", name)

	p, err := Get[profile](s, "profile")
	require.NoError(t, err)
	assert.Equal(t, 36, p.Age)
}

func TestSetReplacesAcrossTypes(t *testing.T) {
	st := NewStore()
	s := st.New()

	s.Set("value", 1)
	s.Set("value", "now a string")

	got, err := Get[string](s, "value")
	require.NoError(t, err)
	assert.Equal(t, "now a string", got)

	_, err = Get[int](s, "value")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRemove(t *testing.T) {
	st := NewStore()
	s := st.New()
	s.Set("k", true)

	require.NoError(t, s.Remove("k"))
	assert.ErrorIs(t, s.Remove("k"), ErrKeyNotFound)
	_, err := Get[bool](s, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSessionIsolation(t *testing.T) {
	st := NewStore()
	a := st.New()
	b := st.New()

	a.Set("color", "red")
	b.Set("color", "blue")

	colorA, err := Get[string](a, "color")
	require.NoError(t, err)
	colorB, err := Get[string](b, "color")
	require.NoError(t, err)

	assert.Equal(t, "red", colorA)
	assert.Equal(t, "blue", colorB)

	require.NoError(t, a.Remove("color"))
	_, err = Get[string](b, "color")
	assert.NoError(t, err)
}

func TestExpiryDisablesAutoRenew(t *testing.T) {
	st := NewStore()
	s := st.New()

	past := time.Now().Add(-time.Second)
	s.SetExpiry(past)

	// Touch must not resurrect a pinned expiry
	s.Touch()
	assert.Equal(t, past, s.ExpiresAt())
}

func TestConcurrentOpsOnOneSession(t *testing.T) {
	st := NewStore()
	s := st.New()
	s.Set("n", 0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Acquire()
			defer s.Release()
			n, err := Get[int](s, "n")
			if err != nil {
				return
			}
			s.Set("n", n+1)
		}()
	}
	wg.Wait()

	n, err := Get[int](s, "n")
	require.NoError(t, err)
	assert.Equal(t, 50, n, "gated increments must not lose updates")
}
