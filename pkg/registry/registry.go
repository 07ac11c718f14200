package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCatalog reads and checks a partner catalogue file.
func LoadCatalog(path string) (*PartnerCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*PartnerCatalog, error) {
	var cat PartnerCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode partner catalog: %w", err)
	}

	if len(cat.Partners) == 0 {
		return nil, fmt.Errorf("partner catalog has no partners")
	}

	seen := make(map[string]bool, len(cat.Partners))
	for i, p := range cat.Partners {
		if p.ID == "" {
			return nil, fmt.Errorf("partner %d: id is required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("partner %q: duplicate id", p.ID)
		}
		seen[p.ID] = true

		for capability, days := range p.ProcessingDays {
			if days < 0 {
				return nil, fmt.Errorf("partner %q: negative processing days for %s", p.ID, capability)
			}
		}
	}

	return &cat, nil
}
