package host

import (
	"strings"

	"github.com/aetheriaxai/wasmhost/pkg/budget"
	"github.com/aetheriaxai/wasmhost/pkg/symbol"
	"github.com/aetheriaxai/wasmhost/pkg/types"
)

// withObjects runs f under the object-table borrow.
func (h *Host) withObjects(f func() error) error {
	if !h.objectsMu.TryLock() {
		return types.NewError(types.ErrObject, types.CodeInternalError)
	}
	defer h.objectsMu.Unlock()
	return f()
}

func (h *Host) symbolByHandle(o symbol.Object) (string, error) {
	idx := int(o.Handle())
	if idx >= len(h.objects) {
		return "", types.NewError(types.ErrObject, types.CodeMissingValue)
	}
	return h.objects[idx], nil
}

// SymbolNewFromSlice interns a symbol string in the object table. Every
// byte must be in the symbol repertoire, and the length is capped at the
// symbol limit.
func (h *Host) SymbolNewFromSlice(s string) (symbol.Object, error) {
	if len(s) > symbol.Limit {
		return 0, types.NewError(types.ErrObject, types.CodeInvalidInput)
	}
	for i := 0; i < len(s); i++ {
		if err := symbol.ValidateChar(s[i]); err != nil {
			return 0, err
		}
	}
	if err := h.chargeClone(uint64(len(s))); err != nil {
		return 0, err
	}
	var obj symbol.Object
	err := h.withObjects(func() error {
		obj = symbol.NewObject(uint32(len(h.objects)))
		h.objects = append(h.objects, strings.Clone(s))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return obj, nil
}

// SymbolCopyToSlice copies an interned symbol's bytes starting at off into
// buf, charging the object visit and the copy.
func (h *Host) SymbolCopyToSlice(o symbol.Object, off uint32, buf []byte) error {
	if err := h.budget.Charge(budget.VisitObject, nil); err != nil {
		return err
	}
	return h.withObjects(func() error {
		s, err := h.symbolByHandle(o)
		if err != nil {
			return err
		}
		if int(off) > len(s) {
			return types.NewError(types.ErrObject, types.CodeInvalidInput)
		}
		n := copy(buf, s[off:])
		return h.budget.Charge(budget.HostMemCpy, budget.Input(uint64(n)))
	})
}

// SymbolObjectCmp orders two interned symbols bytewise.
func (h *Host) SymbolObjectCmp(a, b symbol.Object) (int, error) {
	if err := h.budget.BulkCharge(budget.VisitObject, 2, nil); err != nil {
		return 0, err
	}
	var res int
	err := h.withObjects(func() error {
		sa, err := h.symbolByHandle(a)
		if err != nil {
			return err
		}
		sb, err := h.symbolByHandle(b)
		if err != nil {
			return err
		}
		n := len(sa)
		if len(sb) < n {
			n = len(sb)
		}
		if err := h.budget.Charge(budget.HostMemCmp, budget.Input(uint64(n))); err != nil {
			return err
		}
		res = strings.Compare(sa, sb)
		return nil
	})
	return res, err
}

// SymbolFromString builds a Symbol, packing it small when it fits and
// interning it otherwise.
func (h *Host) SymbolFromString(s string) (symbol.Symbol, error) {
	return symbol.New(h, s)
}

// SymbolToStr expands a Symbol of either variant.
func (h *Host) SymbolToStr(s symbol.Symbol) (symbol.Str, error) {
	return symbol.ToStr(h, s)
}

// CompareSymbols orders two symbols of any variant.
func (h *Host) CompareSymbols(a, b symbol.Symbol) (int, error) {
	return symbol.Compare(h, a, b)
}
