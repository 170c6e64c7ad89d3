package details

import (
	"strings"

	"github.com/kbhatt/khata/internal/domain"
)

// NewCash builds the cascade for the manual cash ledger. Its grammar is
// a fixed two-field "remark / category" form; the category travels
// in-band as a hint for reconciliation.
func NewCash() *Cascade {
	matchers := []Matcher{
		{
			Name: "remark-category",
			Match: func(details string) bool {
				return strings.Count(details, "/") == 1
			},
			Extract: func(details string) (domain.Transaction, error) {
				sp := strings.SplitN(details, "/", 2)
				return domain.Transaction{
					TransactionType: "Cash",
					Remarks:         strings.TrimSpace(sp[0]),
					CategoryName:    strings.TrimSpace(sp[1]),
				}, nil
			},
		},
	}

	return NewCascade("cash", nil, matchers)
}
