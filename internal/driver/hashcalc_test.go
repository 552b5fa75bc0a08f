package driver

import "testing"

func TestCombineDigestIsOrderSensitive(t *testing.T) {
	var a, b, c Digest
	a[0], b[0], c[0] = 1, 2, 3
	if combineDigest(a, b, c) == combineDigest(a, c, b) {
		t.Fatal("dependency order ignored")
	}
	if combineDigest(a, b) != combineDigest(a, b) {
		t.Fatal("combineDigest is not deterministic")
	}
	if combineDigest(a) == a {
		t.Fatal("combineDigest returned its input")
	}
}
