package details

import (
	"strings"

	"github.com/kbhatt/khata/internal/domain"
)

// NewAxisCC builds the cascade for the Axis credit-card feed. The card
// network writes "MERCHANT NAME, CITY, COUNTRY"; the merchant is the
// text before the first comma after location suffixes are stripped.
// Empty city/country lists fall back to the defaults.
func NewAxisCC(cities, countries []string) *Cascade {
	if len(cities) == 0 {
		cities = DefaultCities
	}
	if len(countries) == 0 {
		countries = DefaultCountries
	}
	countryRe := suffixPattern(countries)
	cityRe := suffixPattern(cities)

	merchant := func(details string) string {
		s := countryRe.ReplaceAllString(details, "")
		s = cityRe.ReplaceAllString(s, "")
		s = strings.SplitN(s, ",", 2)[0]
		return titleCase(s)
	}

	matchers := []Matcher{
		{
			// Card bill payments from the linked account are internal
			// transfers, not spend.
			Name:  "bill-payment",
			Match: hasPrefix("MB PAYMENT"),
			Extract: func(details string) (domain.Transaction, error) {
				return domain.Transaction{
					TransactionType:  "CC",
					CounterpartyName: merchant(details),
					CounterpartyType: domain.CounterpartyMerchant,
					Ignore:           true,
				}, nil
			},
		},
		{
			Name:  "merchant",
			Match: func(string) bool { return true },
			Extract: func(details string) (domain.Transaction, error) {
				return domain.Transaction{
					TransactionType:  "CC",
					CounterpartyName: merchant(details),
					CounterpartyType: domain.CounterpartyMerchant,
				}, nil
			},
		},
	}

	return NewCascade("axis-cc", nil, matchers)
}
