package extract

import (
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		catchPhrase string
		want        string
	}{
		{
			name: "strips preamble and footer",
			input: strings.Join([]string{
				"Name :,MR TEST USER,,,",
				"Statement of Account No,911010012345678,,,",
				",,,,",
				"Tran Date,PARTICULARS,DR,CR,BAL",
				"11-05-2024,UPI/P2M/1/ACME/HDFC/x,540.50,,10000",
				"12-05-2024,SALARY APR,,95000,105000",
				"",
				"Unless the constituent notifies the bank...,,,,",
			}, "\n"),
			catchPhrase: "Tran Date",
			want: strings.Join([]string{
				"Tran Date,PARTICULARS,DR,CR,BAL",
				"11-05-2024,UPI/P2M/1/ACME/HDFC/x,540.50,,10000",
				"12-05-2024,SALARY APR,,95000,105000",
			}, "\n"),
		},
		{
			name: "runs to end of input without a trailing blank",
			input: strings.Join([]string{
				"junk,,,",
				"Tran Date,PARTICULARS",
				"11-05-2024,FOO",
			}, "\n"),
			catchPhrase: "Tran Date",
			want: strings.Join([]string{
				"Tran Date,PARTICULARS",
				"11-05-2024,FOO",
			}, "\n"),
		},
		{
			name: "missing catch phrase returns everything",
			input: strings.Join([]string{
				"Date,Details",
				"11-05-2024,FOO",
			}, "\n"),
			catchPhrase: "Tran Date",
			want: strings.Join([]string{
				"Date,Details",
				"11-05-2024,FOO",
			}, "\n"),
		},
		{
			name:        "trims padded commas per line",
			input:       "Tran Date,PARTICULARS,,,\n11-05-2024,FOO,,,",
			catchPhrase: "Tran Date",
			want:        "Tran Date,PARTICULARS\n11-05-2024,FOO",
		},
		{
			name:        "empty input",
			input:       "",
			catchPhrase: "Tran Date",
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Table(strings.NewReader(tt.input), tt.catchPhrase)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Table() = %q; want %q", got, tt.want)
			}
		})
	}
}
