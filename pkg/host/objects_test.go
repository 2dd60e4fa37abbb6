package host

import (
	"testing"

	"github.com/aetheriaxai/wasmhost/pkg/symbol"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

func TestSymbolFromStringSmall(t *testing.T) {
	h, _ := newTestHost(t)
	sym, err := h.SymbolFromString("transfer")
	if err != nil {
		t.Fatalf("from string: %v", err)
	}
	if !sym.IsSmall() {
		t.Fatalf("expected small form")
	}
	str, err := h.SymbolToStr(sym)
	if err != nil {
		t.Fatalf("to str: %v", err)
	}
	if str.String() != "transfer" {
		t.Fatalf("round trip: %q", str.String())
	}
}

func TestSymbolFromStringObjectFallback(t *testing.T) {
	h, _ := newTestHost(t)
	// Too long for the small form, but fine as an object.
	sym, err := h.SymbolFromString("hello_world")
	if err != nil {
		t.Fatalf("from string: %v", err)
	}
	if !sym.IsObject() {
		t.Fatalf("expected object form")
	}
	str, err := h.SymbolToStr(sym)
	if err != nil {
		t.Fatalf("to str: %v", err)
	}
	if str.String() != "hello_world" {
		t.Fatalf("round trip: %q", str.String())
	}
}

func TestSymbolSmallFormStillRejectsLength(t *testing.T) {
	_, err := symbol.SmallFromString("hello_world")
	tooLong, ok := err.(symbol.TooLongError)
	if !ok || int(tooLong) != 11 {
		t.Fatalf("expected TooLongError(11), got %v", err)
	}
}

func TestSymbolObjectBadChar(t *testing.T) {
	h, _ := newTestHost(t)
	_, err := h.SymbolFromString("hello world")
	if _, ok := err.(symbol.BadCharError); !ok {
		t.Fatalf("expected BadCharError, got %v", err)
	}
}

func TestSymbolObjectTooLong(t *testing.T) {
	h, _ := newTestHost(t)
	long := make([]byte, symbol.Limit+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.SymbolFromString(string(long))
	if !types.IsError(err, types.ErrObject, types.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCompareSymbolsAcrossVariants(t *testing.T) {
	h, _ := newTestHost(t)
	small, err := h.SymbolFromString("zzzzzzzzz")
	if err != nil {
		t.Fatalf("small: %v", err)
	}
	obj, err := h.SymbolFromString("aaaaaaaaaa")
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	// Variants order by tag first: small precedes object regardless of
	// content.
	if got, err := h.CompareSymbols(small, obj); err != nil || got != -1 {
		t.Fatalf("small vs object: %d %v", got, err)
	}
	if got, err := h.CompareSymbols(obj, small); err != nil || got != 1 {
		t.Fatalf("object vs small: %d %v", got, err)
	}
}

func TestCompareSymbolsWithinObject(t *testing.T) {
	h, _ := newTestHost(t)
	a, err := h.SymbolFromString("aaaaaaaaaab")
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	b, err := h.SymbolFromString("aaaaaaaaaac")
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	if got, err := h.CompareSymbols(a, b); err != nil || got != -1 {
		t.Fatalf("a vs b: %d %v", got, err)
	}
	if got, err := h.CompareSymbols(a, a); err != nil || got != 0 {
		t.Fatalf("a vs a: %d %v", got, err)
	}
}

func TestSmallOrderingScenarios(t *testing.T) {
	h, _ := newTestHost(t)
	order := []string{"a", "ab", "abc", "b"}
	for i := 0; i+1 < len(order); i++ {
		x, _ := h.SymbolFromString(order[i])
		y, _ := h.SymbolFromString(order[i+1])
		if got, err := h.CompareSymbols(x, y); err != nil || got != -1 {
			t.Fatalf("%q vs %q: %d %v", order[i], order[i+1], got, err)
		}
	}
	upper, _ := h.SymbolFromString("A")
	lower, _ := h.SymbolFromString("a")
	if got, _ := h.CompareSymbols(upper, lower); got != -1 {
		t.Fatalf("A vs a: %d", got)
	}
	underscore, _ := h.SymbolFromString("_")
	zero, _ := h.SymbolFromString("0")
	if got, _ := h.CompareSymbols(underscore, zero); got != -1 {
		t.Fatalf("_ vs 0: %d", got)
	}
}

func TestSymbolCopyOffset(t *testing.T) {
	h, _ := newTestHost(t)
	obj, err := h.SymbolNewFromSlice("hello_world_again")
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	buf := make([]byte, 5)
	if err := h.SymbolCopyToSlice(obj, 6, buf); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if string(buf) != "world" {
		t.Fatalf("copy at offset: %q", string(buf))
	}
	if err := h.SymbolCopyToSlice(obj, 100, buf); !types.IsError(err, types.ErrObject, types.CodeInvalidInput) {
		t.Fatalf("expected invalid offset, got %v", err)
	}
}

func TestSymbolObjectChargesBudget(t *testing.T) {
	h, _ := newTestHost(t)
	before, _ := h.Budget().CPUInsnsConsumed()
	if _, err := h.SymbolFromString("a_rather_long_symbol"); err != nil {
		t.Fatalf("intern: %v", err)
	}
	after, _ := h.Budget().CPUInsnsConsumed()
	if after <= before {
		t.Fatalf("interning was not metered")
	}
}
