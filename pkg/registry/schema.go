package registry

// PartnerCatalog is the on-disk list of partner banks that replaces the
// built-in registry when banking.partners_file is set.
type PartnerCatalog struct {
	Version     string         `json:"version"`
	LastUpdated string         `json:"lastUpdated"`
	Partners    []PartnerEntry `json:"partners"`
}

type PartnerEntry struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Country        string         `json:"country"`
	Tier           int            `json:"tier"`
	Description    string         `json:"description"`
	Capabilities   []string       `json:"capabilities"`
	ProcessingDays map[string]int `json:"processingDays"`
	Tags           []string       `json:"tags"`
}
