// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"testing"
)

func TestReadString(t *testing.T) {
	tests := []struct {
		reader     *Reader
		shouldFail bool
		result     string
	}{
		{
			NewReader([]byte{'h', 'e', 'l', 'l', 'o', 0, 's', 't', 'u', 'f', 'f'}),
			false,
			"hello",
		},
		{
			NewReader([]byte{'h', 'e', 'l', 'l', 'o'}),
			true,
			"",
		},
		{
			NewReader([]byte{0x80, 0}),
			false,
			"€",
		},
	}
	for i, tc := range tests {
		s := tc.reader.String()
		err := tc.reader.Err()
		if err != nil {
			if !tc.shouldFail {
				t.Errorf("Testcase %d should not return error: %v", i, err)
			}
			continue
		}
		if tc.shouldFail {
			t.Errorf("Testcase %d should return error", i)
			continue
		}
		if s != tc.result {
			t.Errorf("Testcase %d. got: %v, want %v", i, s, tc.result)
		}
	}
}

func TestSmarts(t *testing.T) {
	tests := []struct {
		data []byte
		f    func(*Reader) int
		want int
	}{
		{[]byte{0x05}, (*Reader).UnsignedShortSmart, 5},
		{[]byte{0x80, 0x80}, (*Reader).UnsignedShortSmart, 128},
		{[]byte{0x00}, (*Reader).ShortSmart, -64},
		{[]byte{0x7f}, (*Reader).ShortSmart, 63},
		{[]byte{0xc0, 0x40}, (*Reader).ShortSmart, 64},
		{[]byte{0xff, 0xff, 0x00}, (*Reader).UnsignedSmartShortExtended, 32767},
		{[]byte{0xff, 0xff, 0x03}, (*Reader).UnsignedSmartShortExtended, 32770},
		{[]byte{0x7f, 0xff}, (*Reader).BigSmart, -1},
		{[]byte{0x80, 0x01, 0x00, 0x00}, (*Reader).BigSmart, 65536},
		{[]byte{0x00, 0x10}, (*Reader).Smart32, 16},
	}
	for i, tc := range tests {
		r := NewReader(tc.data)
		if got := tc.f(r); got != tc.want {
			t.Errorf("case %d: got %v, want %v", i, got, tc.want)
		}
		if r.Err() != nil {
			t.Errorf("case %d: unexpected error %v", i, r.Err())
		}
	}
}

func TestStickyError(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if v := r.Uint32(); v != 0 {
		t.Errorf("Uint32() = %v on short buffer", v)
	}
	if r.Err() == nil {
		t.Fatal("expected error after short read")
	}
	if v := r.Uint8(); v != 0 {
		t.Errorf("Uint8() after error = %v", v)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %v, want 3", r.Len())
	}
}

func TestIntegers(t *testing.T) {
	r := NewReader([]byte{0xff, 0xfe, 0x01, 0x02, 0x03, 0x80, 0x00, 0x00, 0x01})
	if v := r.Int16(); v != -2 {
		t.Errorf("Int16() = %v", v)
	}
	if v := r.Uint24(); v != 0x010203 {
		t.Errorf("Uint24() = %x", v)
	}
	if v := r.Int32(); v != -2147483647 {
		t.Errorf("Int32() = %v", v)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %v", r.Len())
	}
}
