package visa

import "github.com/visaday/backend/internal/domain"

// RuleProvider resolves the visa rule a passport holder is subject to in a
// given country. Implementations are static lookup tables; injecting the
// provider (rather than importing a package-level table) keeps the engine
// testable with arbitrary rule sets and passports.
type RuleProvider interface {
	// RuleFor returns the rule for countryCode as seen by a holder of the
	// given passport nationality (ISO alpha-2). ok is false when no rule is
	// registered, which callers treat as "nothing to count", not an error.
	RuleFor(passport, countryCode string) (Rule, bool)
}

// Override is a rule override predicate, evaluated before the table lookup.
// Overrides let per-stay markers select an alternate regime (e.g. a
// long-stay program) without special-case branches in the calculator.
type Override struct {
	Name string
	// Matches inspects the country's stays and returns the overriding rule.
	Matches func(countryCode string, stays []domain.Stay) (Rule, bool)
}

// MarkerOverride builds an Override that fires when any stay in the given
// country carries the marker string as its VisaType.
func MarkerOverride(name, countryCode, marker string, rule Rule) Override {
	return Override{
		Name: name,
		Matches: func(cc string, stays []domain.Stay) (Rule, bool) {
			if cc != countryCode {
				return Rule{}, false
			}
			for _, s := range stays {
				if s.VisaType == marker {
					return rule, true
				}
			}
			return Rule{}, false
		},
	}
}

// DefaultOverrides returns the built-in override list. Currently only the
// Korean 183/365 long-stay status: any KR stay marked "183/365" switches the
// whole calculation to a 183-day rolling window over 365 days.
func DefaultOverrides() []Override {
	return []Override{
		MarkerOverride("korea-long-stay", "KR", "183/365", Rule{
			MaxDays:    183,
			Type:       RuleRolling,
			PeriodDays: 365,
		}),
	}
}

// Resolve picks the effective rule for one country: the first matching
// override wins, otherwise the provider's table entry. stays should be the
// full reconciled collection; Resolve filters to the country itself.
func Resolve(p RuleProvider, overrides []Override, passport, countryCode string, stays []domain.Stay) (Rule, bool) {
	var country []domain.Stay
	for _, s := range stays {
		if s.CountryCode == countryCode {
			country = append(country, s)
		}
	}
	for _, o := range overrides {
		if r, ok := o.Matches(countryCode, country); ok {
			return r, true
		}
	}
	if p == nil {
		return Rule{}, false
	}
	return p.RuleFor(passport, countryCode)
}

// TableProvider is a RuleProvider backed by per-passport rule tables.
// Unknown passports fall back to the table registered for DefaultPassport.
type TableProvider struct {
	tables          map[string]map[string]Rule
	DefaultPassport string
}

// NewTableProvider builds a provider over the given passport → country →
// rule tables. defaultPassport names the table used for passports without
// an entry of their own; it must exist in tables.
func NewTableProvider(defaultPassport string, tables map[string]map[string]Rule) *TableProvider {
	return &TableProvider{tables: tables, DefaultPassport: defaultPassport}
}

// RuleFor implements RuleProvider.
func (p *TableProvider) RuleFor(passport, countryCode string) (Rule, bool) {
	table, ok := p.tables[passport]
	if !ok {
		table, ok = p.tables[p.DefaultPassport]
		if !ok {
			return Rule{}, false
		}
	}
	r, ok := table[countryCode]
	return r, ok
}

// schengenCodes lists the countries sharing the common 90/180 rolling
// window. One allowance spans the whole area; tracking it per member
// country matches how travellers log stays, and summing across members is
// the UI layer's concern.
var schengenCodes = []string{
	"AT", "BE", "CH", "CZ", "DE", "DK", "EE", "ES", "FI", "FR",
	"GR", "HR", "HU", "IS", "IT", "LI", "LT", "LU", "LV", "MT",
	"NL", "NO", "PL", "PT", "SE", "SI", "SK",
}

// DefaultProvider returns the built-in rule tables. Two passport
// nationalities are carried; "US" is the fallback for passports without a
// table of their own.
func DefaultProvider() *TableProvider {
	us := map[string]Rule{
		"TH": {MaxDays: 60, Type: RuleReset},
		"JP": {MaxDays: 90, Type: RuleReset},
		"KR": {MaxDays: 90, Type: RuleReset},
		"SG": {MaxDays: 90, Type: RuleReset},
		"MY": {MaxDays: 90, Type: RuleReset},
		"ID": {MaxDays: 30, Type: RuleReset},
		"VN": {MaxDays: 45, Type: RuleReset},
		"TW": {MaxDays: 90, Type: RuleReset},
		"MX": {MaxDays: 180, Type: RuleReset},
		"GB": {MaxDays: 180, Type: RuleReset},
		"AE": {MaxDays: 60, Type: RuleReset},
		"TR": {MaxDays: 90, Type: RuleRolling, PeriodDays: 180},
		"GE": {MaxDays: 365, Type: RuleAnnual},
		"AR": {MaxDays: 90, Type: RuleReset},
		"BR": {MaxDays: 90, Type: RuleRolling, PeriodDays: 365},
	}
	for _, cc := range schengenCodes {
		us[cc] = Rule{MaxDays: 90, Type: RuleRolling, PeriodDays: 180}
	}

	ru := map[string]Rule{
		"TH": {MaxDays: 30, Type: RuleReset},
		"KR": {MaxDays: 60, Type: RuleReset},
		"VN": {MaxDays: 45, Type: RuleReset},
		"ID": {MaxDays: 30, Type: RuleReset},
		"MY": {MaxDays: 30, Type: RuleReset},
		"TR": {MaxDays: 60, Type: RuleReset},
		"AE": {MaxDays: 90, Type: RuleReset},
		"RS": {MaxDays: 30, Type: RuleReset},
		"ME": {MaxDays: 30, Type: RuleReset},
		"AM": {MaxDays: 180, Type: RuleAnnual},
		"KZ": {MaxDays: 90, Type: RuleRolling, PeriodDays: 180},
		"GE": {MaxDays: 365, Type: RuleAnnual},
	}

	return NewTableProvider("US", map[string]map[string]Rule{
		"US": us,
		"RU": ru,
	})
}
