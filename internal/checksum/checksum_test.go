package checksum

import "testing"

func TestSum_Known(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("note\n")) == Sum([]byte("note\r\n")) {
		t.Error("line ending change should alter the digest")
	}
}
