package source

import (
	"github.com/kbhatt/khata/internal/details"
	"github.com/kbhatt/khata/internal/domain"
)

// Options carries the per-installation knobs the built-in grammars
// need. The zero value works; every field has a sane default.
type Options struct {
	// AxisCustomerID lets the Axis cascade claim administrative lines
	// prefixed with the customer number.
	AxisCustomerID string

	// BankCodeMax overrides the UPI bank/remark swap threshold.
	BankCodeMax int

	// Cities and Countries override the credit-card location suffix
	// lists.
	Cities    []string
	Countries []string
}

// DefaultRegistry builds the registry of built-in institutions.
func DefaultRegistry(opts Options) (*Registry, error) {
	axis := details.NewAxis(opts.AxisCustomerID, opts.BankCodeMax)
	axisCC := details.NewAxisCC(opts.Cities, opts.Countries)
	cash := details.NewCash()

	cascade := func(c *details.Cascade) ParseFunc {
		return func(pre domain.PreRecord) (domain.Transaction, error) {
			return c.Parse(pre.Details)
		}
	}

	r := NewRegistry()
	for _, s := range []*Source{
		{
			Name: "axis",
			Columns: Columns{
				Date:    "Tran Date",
				Details: []string{"PARTICULARS"},
				Credit:  "CR",
				Debit:   "DR",
			},
			DateLayout:  "02-01-2006",
			CatchPhrase: "Tran Date",
			Parse:       cascade(axis),
		},
		{
			Name: "axis-cc",
			Columns: Columns{
				Date:    "Date",
				Details: []string{"Transaction Details"},
				Credit:  "Credit",
				Debit:   "Debit",
			},
			DateLayout: "02 Jan '06",
			Parse:      cascade(axisCC),
		},
		{
			Name: "cash",
			Columns: Columns{
				Date:    "Timestamp",
				Details: []string{"Details", "Category"},
				Amount:  "Amount",
			},
			DateLayout: "02/01/2006 15:04:05",
			Parse:      cascade(cash),
		},
		{
			// Support for SBI statements is stubbed: the source is
			// registered so files can be staged, but parsing declines
			// until the grammar is built.
			Name: "sbi",
			Columns: Columns{
				Date:    "Txn Date",
				Details: []string{"Description"},
				Credit:  "Credit",
				Debit:   "Debit",
			},
			DateLayout: "02 Jan 2006",
			Parse: func(domain.PreRecord) (domain.Transaction, error) {
				return domain.Transaction{}, domain.ErrNotImplementedSource
			},
		},
	} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}
