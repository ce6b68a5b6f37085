package uniuri

import (
	"bytes"
	"testing"
)

func TestNewLen(t *testing.T) {
	for _, length := range []int{1, 16, 43, 64} {
		s := NewLen(length)
		if len(s) != length {
			t.Errorf("NewLen(%d) returned string of length %d", length, len(s))
		}

		for i := 0; i < len(s); i++ {
			if !bytes.ContainsRune(StdChars, rune(s[i])) {
				t.Errorf("NewLen(%d) produced character %q outside the charset", length, s[i])
			}
		}
	}

	if NewLen(0) != "" {
		t.Error("NewLen(0) should return an empty string")
	}
}

func TestNewLenIsRandom(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		s := NewLen(43)
		if seen[s] {
			t.Fatalf("duplicate random string: %s", s)
		}

		seen[s] = true
	}
}
