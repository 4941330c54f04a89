// Package jsonnumref implements the ECMAScript Number::toString algorithm
// for IEEE 754 double-precision values (Burger-Dybvig shortest-digit
// generation with ECMA-262 Note 2 even-digit tie-breaking).
//
// This is not the production number formatter jsonwrite uses (that package
// follows the two-tier %1.15g/%1.17g scheme this module's grammar
// describes); FormatDouble exists here purely as an independent reference
// oracle for the conformance suite, which checks that both this
// algorithm's digit string and jsonwrite's output parse back to the same
// double, without ever adopting
// this package's differently-shaped output as what gets written to disk.
package jsonnumref

import (
	"errors"
	"math"
	"math/big"
)

// ErrNotFinite indicates FormatDouble was asked to format NaN or Infinity,
// neither of which has a JSON number representation.
var ErrNotFinite = errors.New("jsonnumref: value is not finite (NaN or Infinity)")

var bigTen = big.NewInt(10)

// FormatDouble renders f using the ECMAScript Number::toString algorithm:
// the shortest decimal string that reads back to the same double, with
// fixed-point output for "reasonable" magnitudes and exponential notation
// outside that range. Negative zero renders as "0".
func FormatDouble(f float64) (string, error) {
	if math.IsNaN(f) {
		return "", ErrNotFinite
	}
	if f == 0 {
		return "0", nil
	}
	if math.IsInf(f, 0) {
		return "", ErrNotFinite
	}

	negative := f < 0
	if negative {
		f = -f
	}

	digits, exp := shortestDigits(f)
	return layout(negative, digits, exp), nil
}

// layout applies the ECMA-262 Number::toString formatting rules: integer
// fixed-point, fractional fixed-point, small-fraction leading zeros, or
// exponential notation, chosen by how digits and exp relate.
func layout(negative bool, digits string, exp int) string {
	k := len(digits)

	var buf []byte
	if negative {
		buf = append(buf, '-')
	}

	switch {
	case k <= exp && exp <= 21:
		buf = append(buf, digits...)
		for i := 0; i < exp-k; i++ {
			buf = append(buf, '0')
		}
	case 0 < exp && exp <= 21:
		buf = append(buf, digits[:exp]...)
		buf = append(buf, '.')
		buf = append(buf, digits[exp:]...)
	case -6 < exp && exp <= 0:
		buf = append(buf, '0', '.')
		for i := 0; i < -exp; i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
	default:
		buf = append(buf, digits[0])
		if k > 1 {
			buf = append(buf, '.')
			buf = append(buf, digits[1:]...)
		}
		buf = append(buf, 'e')
		e := exp - 1
		if e >= 0 {
			buf = append(buf, '+')
		}
		buf = appendSignedInt(buf, e)
	}

	return string(buf)
}

func appendSignedInt(buf []byte, v int) []byte {
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	if v == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}

// mantissaParts decomposes f's IEEE 754 bit pattern into the quantities
// the Burger-Dybvig algorithm scales: the integer mantissa fMant, its
// binary exponent fExp (value = fMant * 2^fExp), whether f sits at a
// power-of-two boundary where the rounding interval is asymmetric
// (boundary), and whether the mantissa's low bit is even (rounding ties
// favor even digits per ECMA-262 Note 2).
type mantissaParts struct {
	fMant    uint64
	fExp     int
	boundary bool
	isEven   bool
}

func decompose(f float64) mantissaParts {
	bits := math.Float64bits(f)
	frac := bits & ((uint64(1) << 52) - 1)
	rawExp := int(exponentBits(bits))

	fMant := frac
	fExp := 1 - 1023 - 52
	if rawExp != 0 {
		fMant = (uint64(1) << 52) | frac
		fExp = rawExp - 1023 - 52
	}

	return mantissaParts{
		fMant:    fMant,
		fExp:     fExp,
		boundary: rawExp > 1 && frac == 0,
		isEven:   fMant%2 == 0,
	}
}

func exponentBits(bits uint64) uint16 {
	hi := byte((bits >> 56) & 0xFF)
	lo := byte((bits >> 48) & 0xFF)
	return (uint16(hi&0x7F) << 4) | uint16(lo>>4)
}

// scaled holds the Burger-Dybvig invariant: the true value equals r/s,
// and the rounding interval extends mPlus above and mMinus below it.
type scaled struct {
	r, s, mPlus, mMinus *big.Int
}

func initScaled(p mantissaParts) *scaled {
	st := &scaled{r: new(big.Int), s: new(big.Int), mPlus: new(big.Int), mMinus: new(big.Int)}
	if p.fExp >= 0 {
		initPositiveExp(st, p)
	} else {
		initNegativeExp(st, p)
	}
	return st
}

func initPositiveExp(st *scaled, p mantissaParts) {
	if !p.boundary {
		st.r.SetUint64(p.fMant)
		shiftLeft(st.r, p.fExp+1)
		st.s.SetInt64(2)
		st.mPlus.SetInt64(1)
		shiftLeft(st.mPlus, p.fExp)
		st.mMinus.Set(st.mPlus)
		return
	}
	st.r.SetUint64(p.fMant)
	shiftLeft(st.r, p.fExp+2)
	st.s.SetInt64(4)
	st.mPlus.SetInt64(1)
	shiftLeft(st.mPlus, p.fExp+1)
	st.mMinus.SetInt64(1)
	shiftLeft(st.mMinus, p.fExp)
}

func initNegativeExp(st *scaled, p mantissaParts) {
	if !p.boundary {
		st.r.SetUint64(p.fMant)
		shiftLeft(st.r, 1)
		st.s.SetInt64(1)
		shiftLeft(st.s, -p.fExp+1)
		st.mPlus.SetInt64(1)
		st.mMinus.SetInt64(1)
		return
	}
	st.r.SetUint64(p.fMant)
	shiftLeft(st.r, 2)
	st.s.SetInt64(1)
	shiftLeft(st.s, -p.fExp+2)
	st.mPlus.SetInt64(2)
	st.mMinus.SetInt64(1)
}

func shiftLeft(z *big.Int, n int) {
	if n > 0 {
		z.Lsh(z, uint(n))
	}
}

func scaleByPow10(st *scaled, k int) {
	switch {
	case k > 0:
		p := pow10(k)
		st.s.Mul(st.s, p)
	case k < 0:
		p := pow10(-k)
		st.r.Mul(st.r, p)
		st.mPlus.Mul(st.mPlus, p)
		st.mMinus.Mul(st.mMinus, p)
	}
}

func fixupHigh(st *scaled, isEven bool, exp int) int {
	high := new(big.Int).Add(st.r, st.mPlus)
	if geOrGt(high, st.s, isEven) {
		st.s.Mul(st.s, bigTen)
		return exp + 1
	}
	return exp
}

func fixupLow(st *scaled, isEven bool, exp int) int {
	for {
		tenR := new(big.Int).Mul(st.r, bigTen)
		if !leOrLt(tenR, st.s, isEven) {
			return exp
		}
		tenHigh := new(big.Int).Mul(new(big.Int).Add(st.r, st.mPlus), bigTen)
		if !leOrLt(tenHigh, st.s, isEven) {
			return exp
		}
		st.r.Mul(st.r, bigTen)
		st.mPlus.Mul(st.mPlus, bigTen)
		st.mMinus.Mul(st.mMinus, bigTen)
		exp--
	}
}

// leOrLt and geOrGt implement the tie-inclusive/tie-exclusive comparisons
// the algorithm's low and high boundary tests need: an even mantissa's
// rounding interval is closed at both ends, an odd mantissa's is open.
func leOrLt(lhs, rhs *big.Int, isEven bool) bool {
	if isEven {
		return lhs.Cmp(rhs) <= 0
	}
	return lhs.Cmp(rhs) < 0
}

func geOrGt(lhs, rhs *big.Int, isEven bool) bool {
	if isEven {
		return lhs.Cmp(rhs) >= 0
	}
	return lhs.Cmp(rhs) > 0
}

// shortestDigits runs the scaled-fraction digit generation loop, returning
// the shortest digit string d and exponent n such that f = 0.d * 10^n.
func shortestDigits(f float64) (string, int) {
	parts := decompose(f)
	st := initScaled(parts)

	exp := estimateExponent(f)
	scaleByPow10(st, exp)
	exp = fixupHigh(st, parts.isEven, exp)
	exp = fixupLow(st, parts.isEven, exp)

	return generateLoop(st, parts.isEven, exp)
}

func generateLoop(st *scaled, isEven bool, exp int) (string, int) {
	var digitBuf [30]byte
	n := 0
	quot, rem := new(big.Int), new(big.Int)

	for {
		st.r.Mul(st.r, bigTen)
		st.mPlus.Mul(st.mPlus, bigTen)
		st.mMinus.Mul(st.mMinus, bigTen)

		quot.DivMod(st.r, st.s, rem)
		d := int(quot.Int64())
		st.r.Set(rem)

		low := leOrLt(st.r, st.mMinus, isEven)
		high := geOrGt(new(big.Int).Add(st.r, st.mPlus), st.s, isEven)

		if !low && !high {
			digitBuf[n] = byte('0' + d)
			n++
			continue
		}

		digitBuf[n] = resolveFinalDigit(d, low, high, st.r, st.s)
		n++
		break
	}

	return finalizeDigits(digitBuf[:n], exp)
}

func resolveFinalDigit(d int, low, high bool, r, s *big.Int) byte {
	switch {
	case low && !high:
		return byte('0' + d)
	case !low && high:
		return byte('0' + d + 1)
	default:
		twoR := new(big.Int).Lsh(r, 1)
		switch twoR.Cmp(s) {
		case -1:
			return byte('0' + d)
		case 1:
			return byte('0' + d + 1)
		default:
			if d%2 == 0 {
				return byte('0' + d)
			}
			return byte('0' + d + 1)
		}
	}
}

// finalizeDigits propagates any carry from a rounded-up final digit back
// through the buffer (a run of '9's becomes a leading '1' followed by
// zeros, bumping exp), then trims trailing zeros.
func finalizeDigits(digitBuf []byte, exp int) (string, int) {
	n := len(digitBuf)
	for i := n - 1; i > 0; i-- {
		if digitBuf[i] > '9' {
			digitBuf[i] = '0'
			digitBuf[i-1]++
		}
	}
	if n > 0 && digitBuf[0] > '9' {
		shifted := make([]byte, n+1)
		shifted[0] = '1'
		shifted[1] = '0'
		copy(shifted[2:], digitBuf[1:])
		digitBuf = shifted
		n++
		exp++
	}
	for n > 1 && digitBuf[n-1] == '0' {
		n--
	}
	return string(digitBuf[:n]), exp
}

// estimateExponent returns an estimate of ceil(log10(f)) for f > 0, a
// starting point the fixup passes correct for off-by-one error.
func estimateExponent(f float64) int {
	bits := math.Float64bits(f)
	rawExp := int(exponentBits(bits))

	var log2f float64
	if rawExp == 0 {
		log2f = math.Log2(f)
	} else {
		mantissaFrac := float64(bits&((1<<52)-1)) / float64(uint64(1)<<52)
		log2f = float64(rawExp-1023) + math.Log2(1.0+mantissaFrac)
	}
	return int(math.Ceil(log2f / math.Log2(10)))
}

var pow10Cache [700]*big.Int

func init() {
	pow10Cache[0] = big.NewInt(1)
	for i := 1; i < len(pow10Cache); i++ {
		pow10Cache[i] = new(big.Int).Mul(pow10Cache[i-1], bigTen)
	}
}

// pow10 returns 10^n. The returned *big.Int must not be mutated: values
// below 700 are shared from a cache.
func pow10(n int) *big.Int {
	if n >= 0 && n < len(pow10Cache) {
		return pow10Cache[n]
	}
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}
