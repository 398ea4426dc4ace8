package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestValueCachesWithinTTL(t *testing.T) {
	t.Parallel()
	value := NewValue[int](time.Hour)

	fetches := 0
	for i := 0; i < 3; i++ {
		got, err := value.Get(func() (int, error) {
			fetches++
			return 7, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if got != 7 {
			t.Errorf("got %d", got)
		}
	}

	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}

func TestValueRefreshesAfterExpiry(t *testing.T) {
	t.Parallel()
	value := NewValue[int](10 * time.Millisecond)

	fetches := 0
	fetch := func() (int, error) {
		fetches++
		return fetches, nil
	}

	if got, _ := value.Get(fetch); got != 1 {
		t.Errorf("first Get = %d", got)
	}
	time.Sleep(20 * time.Millisecond)
	if got, _ := value.Get(fetch); got != 2 {
		t.Errorf("Get after expiry = %d, want a refetch", got)
	}
}

func TestValueZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()
	value := NewValue[string](0)

	fetches := 0
	fetch := func() (string, error) {
		fetches++
		return "schema", nil
	}

	value.Get(fetch)
	time.Sleep(5 * time.Millisecond)
	value.Get(fetch)

	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 for an unexpiring value", fetches)
	}
}

func TestValueErrorNotCached(t *testing.T) {
	t.Parallel()
	value := NewValue[int](time.Hour)

	boom := errors.New("boom")
	if _, err := value.Get(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	got, err := value.Get(func() (int, error) { return 9, nil })
	if err != nil || got != 9 {
		t.Errorf("Get after error = %d, %v; want a fresh fetch", got, err)
	}
}

func TestValueInvalidate(t *testing.T) {
	t.Parallel()
	value := NewValue[int](time.Hour)

	fetches := 0
	fetch := func() (int, error) {
		fetches++
		return fetches, nil
	}

	value.Get(fetch)
	value.Invalidate()
	if got, _ := value.Get(fetch); got != 2 {
		t.Errorf("Get after Invalidate = %d, want refetch", got)
	}
}

func TestValueConcurrentMissesShareOneFetch(t *testing.T) {
	t.Parallel()
	value := NewValue[int](time.Hour)

	var fetches atomic.Int32
	fetch := func() (int, error) {
		fetches.Add(1)
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := value.Get(fetch); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want concurrent misses deduplicated to 1", got)
	}
}

func TestMapKeysAreIndependent(t *testing.T) {
	t.Parallel()
	m := NewMap[string](time.Hour)

	fetches := map[string]int{}
	get := func(key string) string {
		val, err := m.Get(key, func() (string, error) {
			fetches[key]++
			return "value-" + key, nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return val
	}

	if got := get("a"); got != "value-a" {
		t.Errorf("got %q", got)
	}
	get("a")
	get("b")

	if fetches["a"] != 1 || fetches["b"] != 1 {
		t.Errorf("fetches = %v, want one per key", fetches)
	}
}

func TestMapExpiry(t *testing.T) {
	t.Parallel()
	m := NewMap[int](10 * time.Millisecond)

	fetches := 0
	fetch := func() (int, error) {
		fetches++
		return fetches, nil
	}

	m.Get("k", fetch)
	time.Sleep(20 * time.Millisecond)
	if got, _ := m.Get("k", fetch); got != 2 {
		t.Errorf("Get after expiry = %d, want refetch", got)
	}
}
