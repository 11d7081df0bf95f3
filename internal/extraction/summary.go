// Package extraction flattens a campaign graph into the summary consumed by
// the wizard stages, and refreshes that summary from live tenant records.
package extraction

// CompanyInfo is the company context of a campaign.
type CompanyInfo struct {
	CanvasID   string `json:"canvasId"`
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Industry   string `json:"industry,omitempty"`
	Mission    string `json:"mission,omitempty"`
	Vision     string `json:"vision,omitempty"`
	Objectives string `json:"objectives,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
}

type ProductRecord struct {
	CanvasID    string `json:"canvasId"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       string `json:"price,omitempty"`
}

type PersonaRecord struct {
	CanvasID    string `json:"canvasId"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AgeRange    string `json:"ageRange,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Goals       string `json:"goals,omitempty"`
	PainPoints  string `json:"painPoints,omitempty"`
}

type ContentRecord struct {
	CanvasID    string `json:"canvasId"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	Tone        string `json:"tone,omitempty"`
}

// Summary is the flattened view of a campaign graph.
type Summary struct {
	CompanyInfo *CompanyInfo    `json:"companyInfo"`
	Personas    []PersonaRecord `json:"personas"`
	Products    []ProductRecord `json:"products"`
	Content     []ContentRecord `json:"content"`
}

// Clone returns a deep copy of s.
func (s Summary) Clone() Summary {
	out := Summary{
		Personas: append([]PersonaRecord{}, s.Personas...),
		Products: append([]ProductRecord{}, s.Products...),
		Content:  append([]ContentRecord{}, s.Content...),
	}
	if s.CompanyInfo != nil {
		c := *s.CompanyInfo
		out.CompanyInfo = &c
	}
	return out
}
