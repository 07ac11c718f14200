package bank

import (
	"sort"

	apperrors "bida-banking-workers/internal/common/errors"
	"bida-banking-workers/pkg/registry"
)

// Partner capabilities.
const (
	CapCorporateAccount = "corporate-account"
	CapEscrow           = "escrow"
	CapLetterOfCredit   = "letter-of-credit"
	CapLoan             = "loan"
	CapFX               = "fx"
)

type Partner struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Country        string         `json:"country"`
	Tier           int            `json:"tier"`
	Description    string         `json:"description,omitempty"`
	Capabilities   []string       `json:"capabilities"`
	ProcessingDays map[string]int `json:"processingDays"`
}

func (p Partner) Supports(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

var allCapabilities = []string{CapCorporateAccount, CapEscrow, CapLetterOfCredit, CapLoan, CapFX}

// DefaultPartners is the built-in partner list.
var DefaultPartners = []Partner{
	{
		ID: "brac-bank", Name: "BRAC Bank", Country: "Bangladesh", Tier: 1,
		Description:    "Default partner for BIDA corporate banking",
		Capabilities:   allCapabilities,
		ProcessingDays: map[string]int{CapCorporateAccount: 3, CapEscrow: 2, CapLetterOfCredit: 5, CapLoan: 10, CapFX: 0},
	},
	{
		ID: "standard-chartered-bd", Name: "Standard Chartered Bangladesh", Country: "Bangladesh", Tier: 1,
		Capabilities:   allCapabilities,
		ProcessingDays: map[string]int{CapCorporateAccount: 5, CapEscrow: 3, CapLetterOfCredit: 4, CapLoan: 14, CapFX: 0},
	},
	{
		ID: "hsbc-bd", Name: "HSBC Bangladesh", Country: "Bangladesh", Tier: 1,
		Capabilities:   []string{CapCorporateAccount, CapEscrow, CapLetterOfCredit, CapFX},
		ProcessingDays: map[string]int{CapCorporateAccount: 5, CapEscrow: 3, CapLetterOfCredit: 3, CapFX: 0},
	},
	{
		ID: "eastern-bank", Name: "Eastern Bank", Country: "Bangladesh", Tier: 2,
		Capabilities:   []string{CapCorporateAccount, CapEscrow, CapLoan, CapFX},
		ProcessingDays: map[string]int{CapCorporateAccount: 4, CapEscrow: 3, CapLoan: 12, CapFX: 1},
	},
	{
		ID: "city-bank", Name: "City Bank", Country: "Bangladesh", Tier: 2,
		Capabilities:   []string{CapCorporateAccount, CapLetterOfCredit, CapLoan},
		ProcessingDays: map[string]int{CapCorporateAccount: 4, CapLetterOfCredit: 6, CapLoan: 15},
	},
	{
		ID: "dutch-bangla-bank", Name: "Dutch-Bangla Bank", Country: "Bangladesh", Tier: 2,
		Capabilities:   []string{CapCorporateAccount, CapEscrow, CapFX},
		ProcessingDays: map[string]int{CapCorporateAccount: 3, CapEscrow: 4, CapFX: 1},
	},
}

// PartnerRegistry is a read-only catalogue of partner banks.
type PartnerRegistry struct {
	partners []Partner
	byID     map[string]Partner
}

func NewPartnerRegistry(partners []Partner) *PartnerRegistry {
	r := &PartnerRegistry{byID: make(map[string]Partner, len(partners))}
	for _, p := range partners {
		r.partners = append(r.partners, p)
		r.byID[p.ID] = p
	}
	return r
}

// DefaultPartnerRegistry serves DefaultPartners.
func DefaultPartnerRegistry() *PartnerRegistry {
	return NewPartnerRegistry(DefaultPartners)
}

// PartnerRegistryFromCatalog builds a registry from a catalogue file.
func PartnerRegistryFromCatalog(cat *registry.PartnerCatalog) *PartnerRegistry {
	partners := make([]Partner, 0, len(cat.Partners))
	for _, e := range cat.Partners {
		partners = append(partners, Partner{
			ID:             e.ID,
			Name:           e.Name,
			Country:        e.Country,
			Tier:           e.Tier,
			Description:    e.Description,
			Capabilities:   e.Capabilities,
			ProcessingDays: e.ProcessingDays,
		})
	}
	return NewPartnerRegistry(partners)
}

// LoadPartnerRegistry returns the default registry when path is empty.
func LoadPartnerRegistry(path string) (*PartnerRegistry, error) {
	if path == "" {
		return DefaultPartnerRegistry(), nil
	}
	cat, err := registry.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return PartnerRegistryFromCatalog(cat), nil
}

func (r *PartnerRegistry) ListPartners() []Partner {
	out := make([]Partner, len(r.partners))
	copy(out, r.partners)
	return out
}

func (r *PartnerRegistry) GetPartner(id string) (Partner, error) {
	p, ok := r.byID[id]
	if !ok {
		return Partner{}, apperrors.NewUnknownBankPartnerError(id)
	}
	return p, nil
}

func (r *PartnerRegistry) Exists(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// PartnersWithCapability returns partners offering capability, fastest first.
func (r *PartnerRegistry) PartnersWithCapability(capability string) []Partner {
	var out []Partner
	for _, p := range r.partners {
		if p.Supports(capability) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProcessingDays[capability] < out[j].ProcessingDays[capability]
	})
	return out
}
