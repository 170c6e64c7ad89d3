package details

import (
	"testing"

	"github.com/kbhatt/khata/internal/domain"
)

func TestAxisCCParse(t *testing.T) {
	cascade := NewAxisCC(nil, nil)

	tests := []struct {
		name    string
		details string
		want    domain.Transaction
	}{
		{
			name:    "merchant with city and country suffix",
			details: "CAFE COFFEE DAY, BANGALORE IND",
			want: domain.Transaction{
				TransactionType:  "CC",
				CounterpartyName: "Cafe Coffee Day",
				CounterpartyType: domain.CounterpartyMerchant,
			},
		},
		{
			name:    "merchant with comma separated location",
			details: "AMAZON PAY INDIA, MUMBAI, INDIA",
			want: domain.Transaction{
				TransactionType:  "CC",
				CounterpartyName: "Amazon Pay India",
				CounterpartyType: domain.CounterpartyMerchant,
			},
		},
		{
			name:    "merchant without location",
			details: "NETFLIX.COM",
			want: domain.Transaction{
				TransactionType:  "CC",
				CounterpartyName: "Netflix.com",
				CounterpartyType: domain.CounterpartyMerchant,
			},
		},
		{
			name:    "bill payment ignored",
			details: "MB PAYMENT #123456",
			want: domain.Transaction{
				TransactionType:  "CC",
				CounterpartyName: "Mb Payment #123456",
				CounterpartyType: domain.CounterpartyMerchant,
				Ignore:           true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cascade.Parse(tt.details)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.details, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v; want %+v", tt.details, got, tt.want)
			}
		})
	}
}

func TestAxisCCCustomLocations(t *testing.T) {
	cascade := NewAxisCC([]string{"Springfield"}, []string{"USA"})

	got, err := cascade.Parse("KWIK E MART, SPRINGFIELD USA")
	if err != nil {
		t.Fatal(err)
	}
	if got.CounterpartyName != "Kwik E Mart" {
		t.Errorf("counterparty = %q; want %q", got.CounterpartyName, "Kwik E Mart")
	}
}
