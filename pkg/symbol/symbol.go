// Package symbol implements the packed representation of short, unambiguous
// identifiers such as contract function names. Symbols only admit
// characters from the 63-character repertoire [a-zA-Z0-9_]; identifiers up
// to 9 characters are bit-packed into the body of a 64-bit tagged word as
// 6-bit codes, so the common case never touches the host object table.
// Longer symbols are stored in the object table and referenced by handle.
//
// Small bodies are packed with zero padding in the high-order bits rather
// than the low-order bits, which optimizes the size of symbol literals in
// wasm bytecode (integer literals are ULEB128) at the price of small-body
// integer order not matching lexicographic order. Comparison therefore
// always goes through the decoded character sequence.
package symbol

import "fmt"

const (
	// MaxSmallChars is the character capacity of the small form: nine
	// 6-bit codes in the 54 low bits of the body.
	MaxSmallChars = 9
	codeBits      = 6
	codeMask      = (uint64(1) << codeBits) - 1

	// Limit is the maximum byte length of any symbol, small or object.
	Limit = 32

	bodyBits = 56
	tagBits  = 8
	tagMask  = (uint64(1) << tagBits) - 1
)

// Tag values of the owning 64-bit word. Small sorts before object; the
// numeric tag order is the variant order.
const (
	TagSmall  uint8 = 14
	TagObject uint8 = 74
)

// TooLongError reports an attempt to form a small symbol from more than
// MaxSmallChars characters. It carries the offending length.
type TooLongError int

func (e TooLongError) Error() string {
	return fmt.Sprintf("symbol too long: length %d, max %d", int(e), MaxSmallChars)
}

// BadCharError reports a character outside [a-zA-Z0-9_].
type BadCharError byte

func (e BadCharError) Error() string {
	return fmt.Sprintf("symbol bad char: encountered %q, supported range [a-zA-Z0-9_]", byte(e))
}

// Small is a symbol packed entirely into a tagged 64-bit word: the low 8
// bits carry TagSmall, the high 56 bits are the body.
type Small uint64

// Object is a tagged 64-bit word whose body is a handle into the host
// object table.
type Object uint64

// Symbol is either variant of the tagged word.
type Symbol uint64

func smallFromBody(body uint64) Small {
	return Small(body<<tagBits | uint64(TagSmall))
}

// SmallFromBody wraps a raw 56-bit body. Every possible bit pattern decodes
// to some character sequence, so this cannot fail, though a hand-built body
// may not round-trip through encoding.
func SmallFromBody(body uint64) Small {
	return smallFromBody(body & ((1 << bodyBits) - 1))
}

// NewObject wraps an object-table handle.
func NewObject(handle uint32) Object {
	return Object(uint64(handle)<<tagBits | uint64(TagObject))
}

// Body returns the 56-bit body of the small form.
func (s Small) Body() uint64 {
	return uint64(s) >> tagBits
}

// Handle returns the object-table handle.
func (o Object) Handle() uint32 {
	return uint32(uint64(o) >> tagBits)
}

func (s Small) Symbol() Symbol  { return Symbol(s) }
func (o Object) Symbol() Symbol { return Symbol(o) }
func (s Symbol) Tag() uint8     { return uint8(uint64(s) & tagMask) }
func (s Symbol) IsSmall() bool  { return s.Tag() == TagSmall }
func (s Symbol) IsObject() bool { return s.Tag() == TagObject }
func (s Symbol) Small() Small   { return Small(s) }
func (s Symbol) Object() Object { return Object(s) }

func encodeChar(c byte) (uint64, error) {
	switch {
	case c == '_':
		return 1, nil
	case c >= '0' && c <= '9':
		return 2 + uint64(c-'0'), nil
	case c >= 'A' && c <= 'Z':
		return 12 + uint64(c-'A'), nil
	case c >= 'a' && c <= 'z':
		return 38 + uint64(c-'a'), nil
	default:
		return 0, BadCharError(c)
	}
}

// ValidateChar reports whether c is in the symbol repertoire.
func ValidateChar(c byte) error {
	_, err := encodeChar(c)
	return err
}

// SmallFromBytes packs up to MaxSmallChars repertoire bytes into a small
// symbol. An empty input yields the empty symbol with body zero.
func SmallFromBytes(b []byte) (Small, error) {
	var accum uint64
	for n, c := range b {
		if n >= MaxSmallChars {
			return 0, TooLongError(len(b))
		}
		v, err := encodeChar(c)
		if err != nil {
			return 0, err
		}
		accum = accum<<codeBits | v
	}
	return smallFromBody(accum), nil
}

// SmallFromString packs a string; the bytes are taken as ASCII and any
// non-repertoire byte (including any part of a multi-byte rune) is
// rejected.
func SmallFromString(s string) (Small, error) {
	var accum uint64
	for n := 0; n < len(s); n++ {
		if n >= MaxSmallChars {
			return 0, TooLongError(len(s))
		}
		v, err := encodeChar(s[n])
		if err != nil {
			return 0, err
		}
		accum = accum<<codeBits | v
	}
	return smallFromBody(accum), nil
}

// Iter decodes the bit-packed characters of a small symbol one at a time.
type Iter struct {
	body uint64
}

func (s Small) Iter() Iter {
	return Iter{body: s.Body()}
}

// Next yields the next decoded character. Zero codes embedded among real
// codes cannot occur for well-formed bodies but are skipped rather than
// trapped on.
func (it *Iter) Next() (byte, bool) {
	for it.body != 0 {
		code := (it.body >> ((MaxSmallChars - 1) * codeBits)) & codeMask
		it.body <<= codeBits
		var c byte
		switch {
		case code == 1:
			c = '_'
		case code >= 2 && code <= 11:
			c = '0' + byte(code-2)
		case code >= 12 && code <= 37:
			c = 'A' + byte(code-12)
		case code >= 38 && code <= 63:
			c = 'a' + byte(code-38)
		}
		if c != 0 {
			return c, true
		}
	}
	return 0, false
}

// Str is the expanded form of a symbol: its characters as ASCII bytes in a
// fixed-size zero-padded array, up to the maximum size of a symbol object.
// Useful for interoperation with ordinary strings.
type Str [Limit]byte

// Len scans for the first zero byte.
func (s Str) Len() int {
	for i, c := range s {
		if c == 0 {
			return i
		}
	}
	return len(s)
}

func (s Str) IsEmpty() bool {
	return s[0] == 0
}

func (s Str) String() string {
	return string(s[:s.Len()])
}

// Str renders the small symbol into the expanded form.
func (s Small) Str() Str {
	var out Str
	it := s.Iter()
	for i := 0; ; i++ {
		c, ok := it.Next()
		if !ok {
			break
		}
		out[i] = c
	}
	return out
}

func (s Small) String() string {
	str := s.Str()
	return str.String()
}

// Cmp compares two small symbols lexicographically over their decoded
// characters. The 6-bit code assignment is not character-order-preserving
// (underscore sorts below digits sorts below letters in code space but the
// repertoire's byte order differs), so comparing bodies numerically would
// be wrong.
func (s Small) Cmp(o Small) int {
	a, b := s.Iter(), o.Iter()
	for {
		ca, oka := a.Next()
		cb, okb := b.Next()
		switch {
		case !oka && !okb:
			return 0
		case !oka:
			return -1
		case !okb:
			return 1
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
	}
}

// Env is the host object table surface the object variant delegates to.
type Env interface {
	// SymbolNewFromSlice interns a validated symbol string of up to Limit
	// bytes and returns its handle.
	SymbolNewFromSlice(s string) (Object, error)
	// SymbolCopyToSlice copies the object's bytes starting at off into buf.
	SymbolCopyToSlice(o Object, off uint32, buf []byte) error
	// SymbolObjectCmp orders two interned symbols.
	SymbolObjectCmp(a, b Object) (int, error)
}

// New builds a Symbol from a string, preferring the packed small form and
// falling back to the object table for longer inputs.
func New(env Env, s string) (Symbol, error) {
	if small, err := SmallFromString(s); err == nil {
		return small.Symbol(), nil
	} else if _, ok := err.(BadCharError); ok {
		return 0, err
	}
	obj, err := env.SymbolNewFromSlice(s)
	if err != nil {
		return 0, err
	}
	return obj.Symbol(), nil
}

// NewFromBytes is New over a byte slice taken as ASCII.
func NewFromBytes(env Env, b []byte) (Symbol, error) {
	return New(env, string(b))
}

// ToStr expands either variant into the fixed-size form.
func ToStr(env Env, s Symbol) (Str, error) {
	if s.IsSmall() {
		return s.Small().Str(), nil
	}
	var out Str
	if err := env.SymbolCopyToSlice(s.Object(), 0, out[:]); err != nil {
		return Str{}, err
	}
	return out, nil
}

// Compare orders two symbols: first by tag (small precedes object), then
// within the variant.
func Compare(env Env, a, b Symbol) (int, error) {
	ta, tb := a.Tag(), b.Tag()
	if ta != tb {
		if ta < tb {
			return -1, nil
		}
		return 1, nil
	}
	if a.IsSmall() {
		return a.Small().Cmp(b.Small()), nil
	}
	return env.SymbolObjectCmp(a.Object(), b.Object())
}
