package native

import "testing"

func TestLoadMissingLibraryReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/lib2daccel.so")
	if err == nil {
		t.Fatalf("Load of a nonexistent library should return an error")
	}
}

func TestDispatchOnNilBackendReportsNotSupport(t *testing.T) {
	var b *Backend
	if got := b.Dispatch(nil); got.String() != "NOT_SUPPORT" {
		t.Errorf("nil backend Dispatch = %v, want NOT_SUPPORT", got)
	}
}
