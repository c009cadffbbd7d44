package domain

// MenuItem is one dish or product attached to a candidate. Price is in
// minor currency units; 0 means unknown. Allergens holds the categories
// the item is known to contain or be free of; which of the two is the
// caller's contract, the model does not enforce it.
type MenuItem struct {
	Name        string   `json:"name"`
	Price       int      `json:"price,omitempty"`
	Description string   `json:"description,omitempty"`
	Allergens   []string `json:"allergens,omitempty"`
	Images      []string `json:"images,omitempty"`
	Sources     []string `json:"sources,omitempty"`

	SafeFrom          []string `json:"safe_from,omitempty"`
	Removable         []string `json:"removable,omitempty"`
	ContaminationRisk bool     `json:"contamination_risk,omitempty"`
	SafetyConfidence  int      `json:"safety_confidence,omitempty"`
	ValueScore        int      `json:"value_score,omitempty"`
}
