package sequence

import (
	"context"
	"sync"
	"testing"
)

func TestFormatKey(t *testing.T) {
	cases := map[int64]string{
		1:       "TCK-000001",
		42:      "TCK-000042",
		999999:  "TCK-999999",
		1000000: "TCK-1000000",
	}
	for n, want := range cases {
		if got := FormatKey(n); got != want {
			t.Errorf("FormatKey(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestMemoryGeneratorSeedsAndIncrements(t *testing.T) {
	gen := NewMemoryGenerator(41)

	n, err := gen.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if n != 42 {
		t.Fatalf("next = %d, want 42", n)
	}
}

func TestMemoryGeneratorIsUniqueUnderConcurrency(t *testing.T) {
	gen := NewMemoryGenerator(0)

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := gen.Next(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			if seen[n] {
				t.Errorf("duplicate sequence %d", n)
			}
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}
