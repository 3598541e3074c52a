package plan

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxAmountDigits is the decimal width of the largest uint256.
const maxAmountDigits = 78

// Amount is a non-negative integer quantity that fits in a uint256. In YAML and JSON it accepts plain
// integers, 0x-prefixed hex and scientific notation such as "10e18" or "1.5e18".
type Amount struct {
	v *big.Int
}

func NewAmount(v int64) Amount { return Amount{v: big.NewInt(v)} }

func AmountFromBig(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(v)}
}

// Big returns a copy; a zero Amount yields 0.
func (a Amount) Big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) IsZero() bool { return a.v == nil || a.v.Sign() == 0 }

func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

func ParseAmount(raw string) (Amount, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if s == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return Amount{}, fmt.Errorf("amount %q is negative", raw)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		hex := s[2:]
		if hex == "" || hex[0] == '-' || hex[0] == '+' {
			return Amount{}, fmt.Errorf("invalid hex amount %q", raw)
		}
		v, ok := new(big.Int).SetString(hex, 16)
		if !ok {
			return Amount{}, fmt.Errorf("invalid hex amount %q", raw)
		}
		return checkedAmount(raw, v)
	}

	mant, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant = s[:i]
		e, err := strconv.Atoi(strings.TrimPrefix(s[i+1:], "+"))
		if err != nil {
			return Amount{}, fmt.Errorf("invalid exponent in amount %q", raw)
		}
		exp = e
	}
	intPart, frac := mant, ""
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		intPart, frac = mant[:i], mant[i+1:]
	}
	digits := strings.TrimLeft(intPart+frac, "0")
	exp -= len(frac)
	if digits == "" {
		return Amount{v: new(big.Int)}, nil
	}
	for exp < 0 {
		if !strings.HasSuffix(digits, "0") {
			return Amount{}, fmt.Errorf("amount %q is not an integer", raw)
		}
		digits = digits[:len(digits)-1]
		exp++
	}
	if exp > maxAmountDigits || len(digits)+exp > maxAmountDigits {
		return Amount{}, fmt.Errorf("amount %q exceeds uint256", raw)
	}
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok || v.Sign() < 0 {
		return Amount{}, fmt.Errorf("invalid amount %q", raw)
	}
	if exp > 0 {
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	}
	return checkedAmount(raw, v)
}

func checkedAmount(raw string, v *big.Int) (Amount, error) {
	if v.BitLen() > 256 {
		return Amount{}, fmt.Errorf("amount %q exceeds uint256", raw)
	}
	return Amount{v: v}, nil
}

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", value.Line)
	}
	parsed, err := ParseAmount(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = parsed
	return nil
}

func (a Amount) MarshalYAML() (interface{}, error) { return a.String(), nil }

func (a Amount) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return err
		}
		s = n.String()
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// FormatUnits renders v with the given number of decimals, trimming trailing zeros.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	if decimals == 0 {
		return v.String()
	}
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	q, r := new(big.Int).QuoRem(v, base, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := fmt.Sprintf("%0*s", int(decimals), r.String())
	return q.String() + "." + strings.TrimRight(frac, "0")
}
