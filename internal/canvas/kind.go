// Package canvas holds the campaign graph edited on the builder canvas:
// module instances placed from the catalog, the connections between them
// and the drag/drop interpreter that turns pointer gestures into graph
// mutations.
package canvas

import "fmt"

// ModuleKind is the semantic category of a module.
type ModuleKind string

const (
	KindCompany ModuleKind = "company"
	KindProduct ModuleKind = "product"
	KindPersona ModuleKind = "persona"
	KindContent ModuleKind = "content"
	KindGeneric ModuleKind = "generic"
)

// Kinds lists every module kind in catalog order.
var Kinds = []ModuleKind{KindCompany, KindProduct, KindPersona, KindContent, KindGeneric}

// Valid reports whether k is one of the known kinds.
func (k ModuleKind) Valid() bool {
	switch k {
	case KindCompany, KindProduct, KindPersona, KindContent, KindGeneric:
		return true
	}
	return false
}

// ParseModuleKind converts a raw string into a ModuleKind.
func ParseModuleKind(s string) (ModuleKind, error) {
	k := ModuleKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}
