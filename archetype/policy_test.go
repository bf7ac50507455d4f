package archetype

import "testing"

func TestCeilLog2(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 3, 8: 3, 9: 4}
	for n, want := range cases {
		if got := ceilLog2(n); got != want {
			t.Errorf("ceilLog2(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 12: 16}
	for n, want := range cases {
		if got := nextPow2(n); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestPolicyFromNameKnownAndUnknown(t *testing.T) {
	p, err := PolicyFromName("binary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := p.(NAryPolicy); !ok || n.N != 2 {
		t.Fatalf("binary resolved to %#v", p)
	}
	if _, err := PolicyFromName("quinary"); err == nil {
		t.Fatalf("expected quinary to be unrecognised by name")
	}
	if _, err := PolicyFromName("aggregate"); err != nil {
		t.Fatalf("unexpected error resolving aggregate: %v", err)
	}
}
