package classify

import (
	"fmt"
	"sort"
	"strings"
)

// BusinessType is the industry preset used for weight overrides.
type BusinessType string

const (
	Bank                 BusinessType = "bank"
	REIT                 BusinessType = "reit"
	Insurance            BusinessType = "insurance"
	Technology           BusinessType = "technology"
	HighGrowth           BusinessType = "high_growth"
	GrowthType           BusinessType = "growth"
	MatureType           BusinessType = "mature"
	Cyclical             BusinessType = "cyclical"
	AssetHeavyType       BusinessType = "asset_heavy"
	DistressedType       BusinessType = "distressed"
	Subscription         BusinessType = "subscription"
	Ecommerce            BusinessType = "ecommerce"
	Franchise            BusinessType = "franchise"
	Manufacturing        BusinessType = "manufacturing"
	Utility              BusinessType = "utility"
	Energy               BusinessType = "energy"
	Healthcare           BusinessType = "healthcare"
	Retail               BusinessType = "retail"
	ProfessionalServices BusinessType = "professional_services"
	Default              BusinessType = "default"
)

var businessTypeWeights = map[BusinessType]Weights{
	Bank:                 {DCF: 0.10, EPV: 0.40, Asset: 0.50},
	REIT:                 {DCF: 0.30, EPV: 0.20, Asset: 0.50},
	Insurance:            {DCF: 0.20, EPV: 0.40, Asset: 0.40},
	Technology:           {DCF: 0.60, EPV: 0.30, Asset: 0.10},
	HighGrowth:           {DCF: 0.70, EPV: 0.20, Asset: 0.10},
	GrowthType:           {DCF: 0.50, EPV: 0.30, Asset: 0.20},
	MatureType:           {DCF: 0.40, EPV: 0.40, Asset: 0.20},
	Cyclical:             {DCF: 0.30, EPV: 0.40, Asset: 0.30},
	AssetHeavyType:       {DCF: 0.30, EPV: 0.30, Asset: 0.40},
	DistressedType:       {DCF: 0.20, EPV: 0.20, Asset: 0.60},
	Subscription:         {DCF: 0.60, EPV: 0.30, Asset: 0.10},
	Ecommerce:            {DCF: 0.55, EPV: 0.30, Asset: 0.15},
	Franchise:            {DCF: 0.45, EPV: 0.45, Asset: 0.10},
	Manufacturing:        {DCF: 0.35, EPV: 0.35, Asset: 0.30},
	Utility:              {DCF: 0.40, EPV: 0.30, Asset: 0.30},
	Energy:               {DCF: 0.30, EPV: 0.30, Asset: 0.40},
	Healthcare:           {DCF: 0.50, EPV: 0.35, Asset: 0.15},
	Retail:               {DCF: 0.40, EPV: 0.40, Asset: 0.20},
	ProfessionalServices: {DCF: 0.45, EPV: 0.45, Asset: 0.10},
	Default:              {DCF: 0.40, EPV: 0.40, Asset: 0.20},
}

// BusinessTypes returns every business type in name order.
func BusinessTypes() []BusinessType {
	out := make([]BusinessType, 0, len(businessTypeWeights))
	for bt := range businessTypeWeights {
		out = append(out, bt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseBusinessType accepts names like "Professional Services" or
// "high-growth" and returns the matching enum value.
func ParseBusinessType(s string) (BusinessType, error) {
	bt := BusinessType(normalizeName(s))
	if _, ok := businessTypeWeights[bt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBusinessType, s)
	}
	return bt, nil
}

// Weights returns the preset triple of bt, or the default preset.
func (bt BusinessType) Weights() Weights {
	if w, ok := businessTypeWeights[bt]; ok {
		return w
	}
	return businessTypeWeights[Default]
}

// detectionRules are checked in order; the first keyword found in the
// industry (then the sector) wins. Specific industries precede broad sectors.
var detectionRules = []struct {
	keywords []string
	bt       BusinessType
}{
	{[]string{"reit", "real estate investment"}, REIT},
	{[]string{"bank", "credit services", "savings"}, Bank},
	{[]string{"insurance", "reinsurance"}, Insurance},
	{[]string{"software", "saas"}, Subscription},
	{[]string{"internet retail", "e-commerce", "ecommerce"}, Ecommerce},
	{[]string{"restaurant", "franchise"}, Franchise},
	{[]string{"utilit"}, Utility},
	{[]string{"oil", "gas", "energy", "coal", "uranium"}, Energy},
	{[]string{"biotech", "pharma", "medical", "health", "drug"}, Healthcare},
	{[]string{"semiconductor", "technology", "electronic", "communication equipment"}, Technology},
	{[]string{"steel", "mining", "metals", "materials", "chemical", "auto", "airline"}, Cyclical},
	{[]string{"machinery", "industrial", "aerospace", "manufactur"}, Manufacturing},
	{[]string{"retail", "store", "apparel", "grocery"}, Retail},
	{[]string{"consulting", "staffing", "services"}, ProfessionalServices},
	{[]string{"railroad", "shipping", "real estate"}, AssetHeavyType},
}

// DetectBusinessType maps free-text sector/industry labels to a business
// type. Unmatched labels return Default.
func DetectBusinessType(sector, industry string) BusinessType {
	for _, text := range []string{industry, sector} {
		text = strings.ToLower(text)
		if text == "" {
			continue
		}
		for _, rule := range detectionRules {
			for _, kw := range rule.keywords {
				if strings.Contains(text, kw) {
					return rule.bt
				}
			}
		}
	}
	return Default
}
