package details

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// titleCase converts a parsed name token to title case. Statement
// exports shout names in inconsistent upper case; title casing gives
// reconciliation a fighting chance at grouping them.
func titleCase(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}

// DefaultCities is the static city list used to strip location suffixes
// from credit-card merchant strings. Card networks append the terminal's
// city to the merchant name; the list is configuration, not business
// logic, and can be overridden.
var DefaultCities = []string{
	"Agra", "Ahmedabad", "Amritsar", "Bangalore", "Bengaluru", "Bhopal",
	"Chandigarh", "Chennai", "Coimbatore", "Dehradun", "Delhi", "Goa",
	"Gurgaon", "Gurugram", "Guwahati", "Hyderabad", "Indore", "Jaipur",
	"Kanpur", "Kochi", "Kolkata", "Lucknow", "Ludhiana", "Madurai",
	"Mangalore", "Mumbai", "Mysore", "Nagpur", "Nashik", "New Delhi",
	"Noida", "Patna", "Pune", "Surat", "Thane", "Trivandrum", "Udaipur",
	"Vadodara", "Varanasi", "Visakhapatnam",
}

// DefaultCountries lists the country name and codes stripped before the
// city pass. Suffix stripping is the only internationalization done,
// and only for one country.
var DefaultCountries = []string{"India", "IND", "IN"}

// suffixPattern builds a case-insensitive regex matching any of the
// given names as a comma-separated trailing token.
func suffixPattern(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i),*\s+(` + strings.Join(quoted, "|") + `)\s*$`)
}
