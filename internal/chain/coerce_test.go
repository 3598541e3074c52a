package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestCoerceIntegerRanges(t *testing.T) {
	cases := []struct {
		typ  string
		in   int64
		ok   bool
		want any
	}{
		{"int8", 127, true, int8(127)},
		{"int8", -128, true, int8(-128)},
		{"int8", 128, false, nil},
		{"int8", 200, false, nil},
		{"int8", -129, false, nil},
		{"uint8", 255, true, uint8(255)},
		{"uint8", 256, false, nil},
		{"uint8", -1, false, nil},
		{"int16", -32768, true, int16(-32768)},
		{"int16", 32768, false, nil},
	}
	for _, tc := range cases {
		typ, err := abi.NewType(tc.typ, "", nil)
		if err != nil {
			t.Fatalf("NewType(%s): %v", tc.typ, err)
		}
		got, err := coerce(typ, big.NewInt(tc.in))
		if !tc.ok {
			if err == nil {
				t.Fatalf("coerce %s(%d): want error got=%v", tc.typ, tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("coerce %s(%d): %v", tc.typ, tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("coerce %s(%d): want=%v got=%v", tc.typ, tc.in, tc.want, got)
		}
	}
}

func TestCoerceWideSignedBounds(t *testing.T) {
	typ, err := abi.NewType("int256", "", nil)
	if err != nil {
		t.Fatalf("NewType: %v", err)
	}
	limit := new(big.Int).Lsh(big.NewInt(1), 255)
	if _, err := coerce(typ, new(big.Int).Neg(limit)); err != nil {
		t.Fatalf("coerce min int256: %v", err)
	}
	if _, err := coerce(typ, limit); err == nil {
		t.Fatalf("coerce 2^255 into int256: want error")
	}
}
