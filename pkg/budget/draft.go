package budget

import (
	"encoding/json"

	"github.com/sequenceit/proposaldesk/internal/lenient"
	log "github.com/sirupsen/logrus"
)

// Draft is the budget part of a proposal draft as it is exchanged with the AI
// generator, saved drafts and local draft files.
type Draft struct {
	InfrastructureCosts lenient.List[InfrastructureCost] `json:"infrastructureCosts"`
	DevelopmentCosts    lenient.List[DevelopmentCost]    `json:"developmentCosts"`
	MaintenanceCosts    *MaintenanceCosts                `json:"maintenanceCosts,omitempty"`
	RiskControl         *RiskControl                     `json:"riskControl,omitempty"`
}

type InfrastructureCost struct {
	Item string `json:"item"`
	// Qty defaults to 1 when the key is absent.
	Qty      *lenient.Number `json:"qty"`
	Cost     lenient.Number  `json:"cost"`
	Currency string          `json:"currency"`
}

type DevelopmentCost struct {
	Task     string         `json:"task"`
	Cost     lenient.Number `json:"cost"`
	Currency string         `json:"currency"`
}

type MaintenanceCost struct {
	Service  string         `json:"service"`
	Cost     lenient.Number `json:"cost"`
	Currency string         `json:"currency"`
}

type RiskCost struct {
	Risk       string         `json:"risk"`
	Mitigation lenient.Number `json:"mitigation"`
	Currency   string         `json:"currency"`
}

type MaintenanceCosts struct {
	Include lenient.Flag                  `json:"include"`
	Costs   lenient.List[MaintenanceCost] `json:"costs"`
}

func (m *MaintenanceCosts) UnmarshalJSON(data []byte) error {
	type plain MaintenanceCosts
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debugf("maintenanceCosts is not an object, treating as disabled: %v", err)
		p = plain{}
	}
	*m = MaintenanceCosts(p)
	return nil
}

type RiskControl struct {
	Include lenient.Flag           `json:"include"`
	Budget  lenient.List[RiskCost] `json:"budget"`
}

func (r *RiskControl) UnmarshalJSON(data []byte) error {
	type plain RiskControl
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debugf("riskControl is not an object, treating as disabled: %v", err)
		p = plain{}
	}
	*r = RiskControl(p)
	return nil
}

// ParseDraft decodes the budget keys of a draft. Only malformed JSON syntax is
// an error; wrongly typed values degrade to empty or zero.
func ParseDraft(data []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// HideEmptyOptional switches off maintenance and risk sections that are
// included but have no rows. Generated proposals are applied this way; saved
// drafts keep the flag so a section enabled before its first row stays enabled.
func (d Draft) HideEmptyOptional() Draft {
	if m := d.MaintenanceCosts; m != nil && m.Include && len(m.Costs) == 0 {
		d.MaintenanceCosts = &MaintenanceCosts{Costs: m.Costs}
	}
	if r := d.RiskControl; r != nil && r.Include && len(r.Budget) == 0 {
		d.RiskControl = &RiskControl{Budget: r.Budget}
	}
	return d
}

// Sections converts the draft into engine sections in document order. Missing
// optional sections come back empty and disabled.
func (d Draft) Sections() []Section {
	infra := Section{Category: Infrastructure, Enabled: true}
	for _, c := range d.InfrastructureCosts {
		qty := 1.0
		if c.Qty != nil {
			qty = c.Qty.Float()
		}
		infra.Items = append(infra.Items, LineItem{Name: c.Item, Quantity: qty, Cost: c.Cost.Float(), Currency: ParseCurrency(c.Currency)})
	}

	dev := Section{Category: Development, Enabled: true}
	for _, c := range d.DevelopmentCosts {
		dev.Items = append(dev.Items, LineItem{Name: c.Task, Cost: c.Cost.Float(), Currency: ParseCurrency(c.Currency)})
	}

	maint := Section{Category: Maintenance}
	if d.MaintenanceCosts != nil {
		maint.Enabled = bool(d.MaintenanceCosts.Include)
		for _, c := range d.MaintenanceCosts.Costs {
			maint.Items = append(maint.Items, LineItem{Name: c.Service, Cost: c.Cost.Float(), Currency: ParseCurrency(c.Currency)})
		}
	}

	risk := Section{Category: Risk}
	if d.RiskControl != nil {
		risk.Enabled = bool(d.RiskControl.Include)
		for _, c := range d.RiskControl.Budget {
			risk.Items = append(risk.Items, LineItem{Name: c.Risk, Cost: c.Mitigation.Float(), Currency: ParseCurrency(c.Currency)})
		}
	}

	return []Section{infra, dev, maint, risk}
}

// DraftFromSections is the inverse of Draft.Sections.
func DraftFromSections(sections []Section) Draft {
	d := Draft{
		InfrastructureCosts: lenient.List[InfrastructureCost]{},
		DevelopmentCosts:    lenient.List[DevelopmentCost]{},
		MaintenanceCosts:    &MaintenanceCosts{Costs: lenient.List[MaintenanceCost]{}},
		RiskControl:         &RiskControl{Budget: lenient.List[RiskCost]{}},
	}
	for _, s := range sections {
		switch s.Category {
		case Infrastructure:
			for _, item := range s.Items {
				qty := lenient.Number(item.Quantity)
				d.InfrastructureCosts = append(d.InfrastructureCosts, InfrastructureCost{
					Item: item.Name, Qty: &qty, Cost: lenient.Number(item.Cost), Currency: string(item.Currency),
				})
			}
		case Development:
			for _, item := range s.Items {
				d.DevelopmentCosts = append(d.DevelopmentCosts, DevelopmentCost{
					Task: item.Name, Cost: lenient.Number(item.Cost), Currency: string(item.Currency),
				})
			}
		case Maintenance:
			d.MaintenanceCosts.Include = lenient.Flag(s.Enabled)
			for _, item := range s.Items {
				d.MaintenanceCosts.Costs = append(d.MaintenanceCosts.Costs, MaintenanceCost{
					Service: item.Name, Cost: lenient.Number(item.Cost), Currency: string(item.Currency),
				})
			}
		case Risk:
			d.RiskControl.Include = lenient.Flag(s.Enabled)
			for _, item := range s.Items {
				d.RiskControl.Budget = append(d.RiskControl.Budget, RiskCost{
					Risk: item.Name, Mitigation: lenient.Number(item.Cost), Currency: string(item.Currency),
				})
			}
		}
	}
	return d
}

// Import replaces every section with the draft's rows and flags. Subscribers
// are notified once, after all sections are in place.
func (e *Engine) Import(d Draft) {
	for _, s := range d.Sections() {
		e.replace(s)
	}
	e.changed()
}

// Export captures the current sections in draft form.
func (e *Engine) Export() Draft {
	return DraftFromSections(e.Sections())
}
