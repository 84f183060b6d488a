package model

import (
	"strings"

	"toolix-activation/internal/domain"
)

// PlanID identifies an entry of the static plan catalogue.
type PlanID string

const (
	PlanWeekly    PlanID = "weekly"
	PlanMonthly   PlanID = "monthly"
	PlanYearly    PlanID = "yearly"
	PlanFreePromo PlanID = "free_promo"

	// Labels stored on an account entitlement that are not catalogue entries.
	PlanFree  PlanID = "free"
	PlanPromo PlanID = "promo"
)

// Plan describes a purchasable (or promotional) grant. Prices are in USD cents.
type Plan struct {
	ID            PlanID `json:"id"`
	Name          string `json:"name"`
	PriceMinor    int64  `json:"price_minor"`
	DurationHours int    `json:"duration_hours"`
	Label         string `json:"label"`
	Purchasable   bool   `json:"purchasable"`
}

var catalogue = map[PlanID]Plan{
	PlanWeekly:    {ID: PlanWeekly, Name: "Weekly Plan", PriceMinor: 200, DurationHours: 168, Label: "1 Week", Purchasable: true},
	PlanMonthly:   {ID: PlanMonthly, Name: "Monthly Plan", PriceMinor: 400, DurationHours: 720, Label: "1 Month", Purchasable: true},
	PlanYearly:    {ID: PlanYearly, Name: "Yearly Plan", PriceMinor: 2000, DurationHours: 8760, Label: "1 Year", Purchasable: true},
	PlanFreePromo: {ID: PlanFreePromo, Name: "Free Promo", PriceMinor: 0, DurationHours: 2, Label: "2 Hours", Purchasable: false},
}

// LookupPlan returns the catalogue entry for id, or domain.ErrUnknownPlan.
func LookupPlan(id PlanID) (Plan, error) {
	p, ok := catalogue[PlanID(strings.ToLower(strings.TrimSpace(string(id))))]
	if !ok {
		return Plan{}, domain.ErrUnknownPlan
	}
	return p, nil
}

// LookupPurchasablePlan is LookupPlan restricted to payment-backed plans.
func LookupPurchasablePlan(id PlanID) (Plan, error) {
	p, err := LookupPlan(id)
	if err != nil {
		return Plan{}, err
	}
	if !p.Purchasable {
		return Plan{}, domain.ErrUnknownPlan
	}
	return p, nil
}

// PurchasablePlans lists the payment-backed plans ordered by duration.
func PurchasablePlans() []Plan {
	return []Plan{catalogue[PlanWeekly], catalogue[PlanMonthly], catalogue[PlanYearly]}
}
