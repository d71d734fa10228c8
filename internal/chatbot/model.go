package chatbot

import "sort"

// DiseaseRecord is one entry of the reference dataset.
type DiseaseRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Symptoms    string `json:"symptoms"`
	Prevention  string `json:"prevention"`
	Causes      string `json:"causes,omitempty"`
	RiskFactors string `json:"risk_factors,omitempty"`
	Info        string `json:"info,omitempty"`
}

// Catalog is the reference data a message is classified against.
// A Catalog must not be modified once it is shared; build a new one instead.
type Catalog struct {
	Diseases          []DiseaseRecord
	EmergencyKeywords []string
	Greetings         []string
	StopWords         []string
}

// NewCatalog returns a catalog holding a name-sorted copy of diseases and the
// default keyword lists.
func NewCatalog(diseases []DiseaseRecord) *Catalog {
	sorted := make([]DiseaseRecord, len(diseases))
	copy(sorted, diseases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	return &Catalog{
		Diseases:          sorted,
		EmergencyKeywords: append([]string(nil), EmergencyKeywords...),
		Greetings:         append([]string(nil), Greetings...),
		StopWords:         append([]string(nil), StopWords...),
	}
}

// Names returns the disease names in catalog order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Diseases))
	for i, d := range c.Diseases {
		names[i] = d.Name
	}
	return names
}

type Kind string

const (
	KindEmergency   Kind = "emergency"
	KindGreeting    Kind = "greeting"
	KindHelp        Kind = "help"
	KindDiseaseInfo Kind = "disease_info"
	KindNotFound    Kind = "not_found"
)

// Result is the outcome of classifying one message. The concrete type is one
// of Emergency, Greeting, Help, DiseaseInfo or NotFound.
type Result interface {
	Kind() Kind
	isResult()
}

// Emergency reports the first emergency keyword found in the message.
type Emergency struct {
	Keyword string
}

type Greeting struct{}

// Help lists every disease name, sorted ascending.
type Help struct {
	Diseases []string
}

type DiseaseInfo struct {
	Record DiseaseRecord
}

// NotFound carries the message as received and at most MaxSuggestions names.
type NotFound struct {
	Query       string
	Suggestions []string
}

func (Emergency) Kind() Kind   { return KindEmergency }
func (Greeting) Kind() Kind    { return KindGreeting }
func (Help) Kind() Kind        { return KindHelp }
func (DiseaseInfo) Kind() Kind { return KindDiseaseInfo }
func (NotFound) Kind() Kind    { return KindNotFound }

func (Emergency) isResult()   {}
func (Greeting) isResult()    {}
func (Help) isResult()        {}
func (DiseaseInfo) isResult() {}
func (NotFound) isResult()    {}
