package chain

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// coerce converts a plain value (*big.Int, hex string, []any, ...) into the
// Go type go-ethereum's ABI packer expects for t.
func coerce(t abi.Type, v any) (any, error) {
	out, err := coerceValue(t, v)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

func coerceValue(t abi.Type, v any) (reflect.Value, error) {
	target := t.GetType()
	// *big.Int still goes through the range check below
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Type() == target && target != bigIntType {
		return rv, nil
	}
	switch t.T {
	case abi.AddressTy:
		s, ok := v.(string)
		if !ok || !common.IsHexAddress(s) {
			return reflect.Value{}, fmt.Errorf("want address, got %v", v)
		}
		return reflect.ValueOf(common.HexToAddress(s)), nil

	case abi.UintTy, abi.IntTy:
		n, err := toBig(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return reflect.Value{}, fmt.Errorf("negative value %s for %s", n, t.String())
		}
		if !fitsInt(n, t) {
			return reflect.Value{}, fmt.Errorf("value %s overflows %s", n, t.String())
		}
		if target == bigIntType {
			return reflect.ValueOf(new(big.Int).Set(n)), nil
		}
		out := reflect.New(target).Elem()
		if t.T == abi.UintTy {
			out.SetUint(n.Uint64())
		} else {
			out.SetInt(n.Int64())
		}
		return out, nil

	case abi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, fmt.Errorf("want bool, got %T", v)
		}
		return reflect.ValueOf(b), nil

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("want string, got %T", v)
		}
		return reflect.ValueOf(s), nil

	case abi.FixedBytesTy:
		raw, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(raw) != t.Size {
			return reflect.Value{}, fmt.Errorf("want %d bytes, got %d", t.Size, len(raw))
		}
		out := reflect.New(target).Elem()
		reflect.Copy(out, reflect.ValueOf(raw))
		return out, nil

	case abi.BytesTy:
		raw, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(raw), nil

	case abi.ArrayTy, abi.SliceTy:
		items, ok := v.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("want list for %s, got %T", t.String(), v)
		}
		var out reflect.Value
		if t.T == abi.ArrayTy {
			if len(items) != t.Size {
				return reflect.Value{}, fmt.Errorf("%s needs %d items, got %d", t.String(), t.Size, len(items))
			}
			out = reflect.New(target).Elem()
		} else {
			out = reflect.MakeSlice(target, len(items), len(items))
		}
		for i, item := range items {
			ev, err := coerceValue(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported abi type %s", t.String())
}

func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil number")
		}
		return n, nil
	case int:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		s := strings.TrimSpace(n)
		out, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want number, got %T", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return common.FromHex(b), nil
	default:
		return nil, fmt.Errorf("want bytes, got %T", v)
	}
}

// fitsInt reports whether n is representable as t: [0, 2^size) for uintN,
// [-2^(size-1), 2^(size-1)) for intN.
func fitsInt(n *big.Int, t abi.Type) bool {
	if t.T == abi.UintTy {
		return n.Sign() >= 0 && n.BitLen() <= t.Size
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Sign() < 0 {
		return n.CmpAbs(limit) <= 0
	}
	return n.Cmp(limit) < 0
}
