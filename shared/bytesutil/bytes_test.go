package bytesutil_test

import (
	"bytes"
	"testing"

	"github.com/thresholdlabs/threshbridge/shared/bytesutil"
)

func TestBytes8RoundTrip(t *testing.T) {
	for _, x := range []uint64{0, 1, 255, 1 << 32, 1<<64 - 1} {
		if got := bytesutil.FromBytes8(bytesutil.Bytes8(x)); got != x {
			t.Errorf("round trip of %d returned %d", x, got)
		}
	}
}

func TestBytes8BigEndian(t *testing.T) {
	got := bytesutil.Bytes8(1)
	want := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes8(1) = %v, wanted %v", got, want)
	}
}

func TestFromBytes8Short(t *testing.T) {
	if got := bytesutil.FromBytes8([]byte{1, 2, 3}); got != 0 {
		t.Errorf("short input returned %d, wanted 0", got)
	}
}

func TestBytes4(t *testing.T) {
	got := bytesutil.Bytes4(257)
	want := []byte{0, 0, 1, 1}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes4(257) = %v, wanted %v", got, want)
	}
}
