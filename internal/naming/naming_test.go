package naming

import (
	"sync"
	"testing"
)

func TestCounterUniqueUnderContention(t *testing.T) {
	var c Counter
	const n = 200
	got := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = c.Next()
		}()
	}
	wg.Wait()
	seen := make(map[int]bool, n)
	for _, v := range got {
		if v < 0 || v >= n || seen[v] {
			t.Fatalf("bad or duplicate ordinal %d", v)
		}
		seen[v] = true
	}
	if c.Peek() != n {
		t.Errorf("Peek = %d, want %d", c.Peek(), n)
	}
}

func TestNames(t *testing.T) {
	cases := []struct{ got, want string }{
		{FrameType("Run", 3, 1), "<Run>c__DisplayClass3_1"},
		{StaticContainer(3), "<>c__3"},
		{ClosureMethod("Run", 3, 0), "<Run>b__3_0"},
		{CapturedField("x", 0), "<x>5__0"},
		{ParentLink(0), "<>8__locals0"},
		{FramePointer(2), "<>8__locals2"},
		{StaticCacheField(3, 0), "<>9__3_0"},
		{FrameCacheField(1), "<>9__1"},
		{CacheLocal(4), "<>9__CachedAnonymousMethodDelegate4"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
		if !IsSynthesized(tc.got) || ValidIdentifier(tc.got) {
			t.Errorf("%q must be disjoint from source identifiers", tc.got)
		}
	}
	if !ValidIdentifier("counter") || ValidIdentifier("") {
		t.Errorf("ValidIdentifier misclassifies plain names")
	}
}
