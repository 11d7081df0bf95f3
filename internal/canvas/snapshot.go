package canvas

import (
	"encoding/json"
	"fmt"
)

// DisplaySnapshot is the copy of display fields taken from a catalog
// record when a module is placed. It is presentation data only; the
// authoritative record is looked up through the instance's SourceRef.
//
// Implementations are the closed set of *Snapshot types in this file.
type DisplaySnapshot interface {
	Kind() ModuleKind
	Title() string
	Summary() string
}

type CompanySnapshot struct {
	Name       string `json:"name"`
	Industry   string `json:"industry,omitempty"`
	Mission    string `json:"mission,omitempty"`
	Vision     string `json:"vision,omitempty"`
	Objectives string `json:"objectives,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
}

func (CompanySnapshot) Kind() ModuleKind  { return KindCompany }
func (s CompanySnapshot) Title() string   { return s.Name }
func (s CompanySnapshot) Summary() string { return s.Mission }

type ProductSnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       string `json:"price,omitempty"`
}

func (ProductSnapshot) Kind() ModuleKind  { return KindProduct }
func (s ProductSnapshot) Title() string   { return s.Name }
func (s ProductSnapshot) Summary() string { return s.Description }

type PersonaSnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AgeRange    string `json:"ageRange,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Goals       string `json:"goals,omitempty"`
	PainPoints  string `json:"painPoints,omitempty"`
}

func (PersonaSnapshot) Kind() ModuleKind  { return KindPersona }
func (s PersonaSnapshot) Title() string   { return s.Name }
func (s PersonaSnapshot) Summary() string { return s.Description }

type ContentSnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	Tone        string `json:"tone,omitempty"`
}

func (ContentSnapshot) Kind() ModuleKind  { return KindContent }
func (s ContentSnapshot) Title() string   { return s.Name }
func (s ContentSnapshot) Summary() string { return s.Description }

// GenericSnapshot backs free-form modules (notes, channels) that have no
// tenant record behind them.
type GenericSnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (GenericSnapshot) Kind() ModuleKind  { return KindGeneric }
func (s GenericSnapshot) Title() string   { return s.Name }
func (s GenericSnapshot) Summary() string { return s.Description }

// EmptySnapshot returns the zero snapshot for kind, titled name.
func EmptySnapshot(kind ModuleKind, name string) (DisplaySnapshot, error) {
	switch kind {
	case KindCompany:
		return CompanySnapshot{Name: name}, nil
	case KindProduct:
		return ProductSnapshot{Name: name}, nil
	case KindPersona:
		return PersonaSnapshot{Name: name}, nil
	case KindContent:
		return ContentSnapshot{Name: name}, nil
	case KindGeneric:
		return GenericSnapshot{Name: name}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// DecodeSnapshot parses raw into the snapshot type belonging to kind.
func DecodeSnapshot(kind ModuleKind, raw json.RawMessage) (DisplaySnapshot, error) {
	var (
		snap DisplaySnapshot
		err  error
	)
	switch kind {
	case KindCompany:
		var s CompanySnapshot
		err = json.Unmarshal(raw, &s)
		snap = s
	case KindProduct:
		var s ProductSnapshot
		err = json.Unmarshal(raw, &s)
		snap = s
	case KindPersona:
		var s PersonaSnapshot
		err = json.Unmarshal(raw, &s)
		snap = s
	case KindContent:
		var s ContentSnapshot
		err = json.Unmarshal(raw, &s)
		snap = s
	case KindGeneric:
		var s GenericSnapshot
		err = json.Unmarshal(raw, &s)
		snap = s
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}
	return snap, nil
}
