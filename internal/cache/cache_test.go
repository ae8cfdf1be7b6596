package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGetSetAndExpiry(t *testing.T) {
	c, err := New(10, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("/", "home")
	if v, ok := c.Get("/"); !ok || v != "home" {
		t.Fatalf("expected cached value, got %v %v", v, ok)
	}

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get("/"); ok {
		t.Errorf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed, len=%d", c.Len())
	}
}

func TestRevalidatePath(t *testing.T) {
	c, _ := New(10, time.Minute)
	c.Set("/", "home")
	c.Set("/post/1", "post one")
	c.Set("/post/1?sort=old", "post one variant")
	c.Set("/post/10", "post ten")

	c.RevalidatePath("/post/1")

	if _, ok := c.Get("/post/1"); ok {
		t.Errorf("expected /post/1 to be dropped")
	}
	if _, ok := c.Get("/post/1?sort=old"); ok {
		t.Errorf("expected query variant to be dropped")
	}
	if _, ok := c.Get("/post/10"); !ok {
		t.Errorf("/post/10 must survive revalidating /post/1")
	}
	if _, ok := c.Get("/"); !ok {
		t.Errorf("/ must survive revalidating /post/1")
	}
}

func TestRevalidateLayout(t *testing.T) {
	c, _ := New(10, time.Minute)
	c.Set("/", "home")
	c.Set("/post/1", "post")
	c.RevalidateLayout()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
}

func TestLoad(t *testing.T) {
	c, _ := New(10, time.Minute)
	calls := 0
	fetch := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Load(c, "/", fetch)
		if err != nil || len(v) != 2 {
			t.Fatalf("Load returned %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}

	c.RevalidatePath("/")
	if _, err := Load(c, "/", fetch); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after revalidation, got %d calls", calls)
	}
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	c, _ := New(10, time.Minute)
	boom := errors.New("boom")
	if _, err := Load(c, "/", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("error result should not be cached")
	}
}

func TestLoadWithNilCache(t *testing.T) {
	v, err := Load[int](nil, "/", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("expected passthrough, got %v %v", v, err)
	}
}

func TestLoadSkipsResultRevalidatedDuringFetch(t *testing.T) {
	c, _ := New(10, time.Minute)
	v, err := Load(c, "/", func() (string, error) {
		// A write lands after the read but before the result is stored.
		c.RevalidatePath("/")
		return "old listing", nil
	})
	if err != nil || v != "old listing" {
		t.Fatalf("Load returned %q, %v", v, err)
	}
	if _, ok := c.Get("/"); ok {
		t.Errorf("result read before revalidation must not be cached")
	}

	v, _ = Load(c, "/", func() (string, error) { return "new listing", nil })
	if v != "new listing" {
		t.Fatalf("expected fresh fetch, got %q", v)
	}
	if got, ok := c.Get("/"); !ok || got != "new listing" {
		t.Errorf("expected new listing cached, got %v %v", got, ok)
	}
}

func TestLoadSkipsQueryVariantAndLayoutRaces(t *testing.T) {
	c, _ := New(10, time.Minute)
	Load(c, "/search?q=go", func() (int, error) {
		c.RevalidatePath("/search")
		return 1, nil
	})
	if _, ok := c.Get("/search?q=go"); ok {
		t.Errorf("query variant revalidated during fetch must not be cached")
	}

	Load(c, "/post/1", func() (int, error) {
		c.RevalidateLayout()
		return 1, nil
	})
	if _, ok := c.Get("/post/1"); ok {
		t.Errorf("entry purged by layout revalidation during fetch must not be cached")
	}

	Load(c, "/post/2", func() (int, error) {
		c.RevalidatePath("/post/3")
		return 2, nil
	})
	if _, ok := c.Get("/post/2"); !ok {
		t.Errorf("unrelated revalidation should not prevent caching")
	}
}
