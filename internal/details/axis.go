package details

import (
	"regexp"
	"strings"

	"github.com/kbhatt/khata/internal/domain"
)

// DefaultBankCodeMax is the length threshold separating bank-code
// tokens from free-text remarks in the newer UPI wire format. The
// exporter interchanged the bank and remark slots at some point and
// truncates remarks to six characters in the new layout; the threshold
// is a documented heuristic, not a verified rule, so it is configurable.
const DefaultBankCodeMax = 6

// adminFeeRe recognizes the bank's own administrative charge lines:
// a fixed fee vocabulary followed by a charge synonym.
var adminFeeRe = regexp.MustCompile(`(?i)(SMS Alerts|Monthly|Consolidated|GST|Dr Card|Excess).*(Chrg|Charge|Service Fee)`)

var (
	ctfNameRe = regexp.MustCompile(`[A-Z]+`)
	ctfIDRe   = regexp.MustCompile(`[0-9]+`)
)

const axisBankName = "Axis Bank"

// NewAxis builds the cascade for the Axis savings-account feed.
// customerID is the bank's customer number; when non-empty it lets the
// cascade claim administrative lines prefixed with it. bankCodeMax
// overrides the UPI bank/remark swap threshold; zero means
// DefaultBankCodeMax.
func NewAxis(customerID string, bankCodeMax int) *Cascade {
	if bankCodeMax <= 0 {
		bankCodeMax = DefaultBankCodeMax
	}

	const source = "axis"

	// "M/s" (Messrs.) would split as a field boundary; rewrite it before
	// any tokenization.
	prepare := func(details string) string {
		return strings.ReplaceAll(details, "M/s", "M.s")
	}

	matchers := []Matcher{
		{
			Name:  "upi-recon-p2m",
			Match: hasPrefix("UPIRECONP2PM/"),
			Extract: func(details string) (domain.Transaction, error) {
				// The second token is a reference number, but recon
				// lines are bank-internal settlements with nothing to
				// reconcile against; the whole string stays in remarks
				// and the id slot is left empty.
				return domain.Transaction{
					TransactionType:  "UPI",
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          details,
				}, nil
			},
		},
		{
			Name:  "tips",
			Match: hasPrefix("TIPS/"),
			Extract: func(details string) (domain.Transaction, error) {
				var id string
				if strings.Count(details, "/") == 5 {
					id = strings.Split(details, "/")[3]
				}
				remarks := details
				if i := strings.LastIndex(details, "/"); i >= 0 {
					remarks = details[:i]
				}
				return domain.Transaction{
					TransactionID:    id,
					TransactionType:  "SCG",
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          remarks,
				}, nil
			},
		},
		{
			Name:  "ctf",
			Match: hasPrefix("CTF "),
			Extract: func(details string) (domain.Transaction, error) {
				fields := strings.Fields(details)
				extra := fields[len(fields)-1]
				return domain.Transaction{
					TransactionID:    ctfIDRe.FindString(extra),
					TransactionType:  "UPI",
					CounterpartyName: titleCase(ctfNameRe.FindString(extra)),
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          details,
				}, nil
			},
		},
		{
			// Credit adjustments share the UPI/ prefix and must be
			// claimed before the generic UPI dialect.
			Name:  "upi-cradj",
			Match: hasPrefix("UPI/CRADJ/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 4)
				if err != nil {
					return domain.Transaction{}, err
				}
				return domain.Transaction{
					TransactionID:    parts[2],
					TransactionType:  "UPI",
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          details,
				}, nil
			},
		},
		{
			Name:  "upi",
			Match: hasPrefix("UPI/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 5)
				if err != nil {
					return domain.Transaction{}, err
				}
				txnType, toType, id, toName, extra := parts[0], parts[1], parts[2], parts[3], parts[4]

				toBank, remarks := "", extra
				if strings.Contains(extra, "/") {
					sp := strings.SplitN(extra, "/", 2)
					toBank, remarks = sp[0], sp[1]
				}
				// Newer exports interchange the bank and remark slots;
				// a short token in the bank slot is actually the
				// truncated remark.
				if len(toBank) <= bankCodeMax {
					toBank, remarks = remarks, toBank
				}
				return domain.Transaction{
					TransactionID:    id,
					TransactionType:  txnType,
					CounterpartyName: titleCase(toName),
					CounterpartyType: mapCounterpartyType(toType),
					CounterpartyBank: strings.TrimSpace(toBank),
					Remarks:          strings.TrimSpace(strings.Trim(remarks, "/")),
				}, nil
			},
		},
		{
			Name:  "imps",
			Match: hasPrefix("IMPS/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 5)
				if err != nil {
					return domain.Transaction{}, err
				}
				txnType, toType, id, toName, extra := parts[0], parts[1], parts[2], parts[3], parts[4]

				var toBank, remarks string
				switch strings.Count(extra, "/") {
				case 0:
					remarks = extra
				case 1:
					sp := strings.SplitN(extra, "/", 2)
					toBank, remarks = strings.TrimSpace(sp[0]), strings.TrimSpace(sp[1])
					// Masked account numbers start with X or 0 and sit
					// in the remark slot, not the bank slot.
					if strings.HasPrefix(toBank, "X") || strings.HasPrefix(toBank, "0") {
						toBank, remarks = remarks, toBank
					}
				default:
					sp := strings.SplitN(extra, "/", 3)
					if strings.HasPrefix(sp[0], "X") || strings.HasPrefix(sp[0], "0") {
						toBank = sp[1]
						remarks = sp[0] + "/" + sp[2]
					} else {
						toBank = sp[0]
						remarks = sp[1] + "/" + sp[2]
					}
				}
				return domain.Transaction{
					TransactionID:    id,
					TransactionType:  txnType,
					CounterpartyName: titleCase(toName),
					CounterpartyType: mapCounterpartyType(toType),
					CounterpartyBank: strings.TrimSpace(toBank),
					Remarks:          strings.TrimSpace(strings.Trim(remarks, "/")),
				}, nil
			},
		},
		{
			Name:  "neft",
			Match: hasPrefix("NEFT/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 5)
				if err != nil {
					return domain.Transaction{}, err
				}
				txnType, toType, id, toName, extra := parts[0], parts[1], parts[2], parts[3], parts[4]

				var toBank, remarks string
				switch toType {
				case "P2M", "P2A", "MB":
					// "/ATTN/" is free text inside the remark, not a
					// field boundary.
					extra = strings.ReplaceAll(extra, "/ATTN/", "ATTN")
					sp, err := splitFields(source, extra, 2)
					if err != nil {
						return domain.Transaction{}, err
					}
					toBank, remarks = sp[0], sp[1]
				default:
					// Older mobile-banking rows shift every slot left by
					// one: the type slot holds the reference number.
					id, toName, toBank = toType, id, toName
					toType = "MB"
					remarks = extra
					if i := strings.LastIndex(extra, "/"); i >= 0 {
						remarks = extra[i+1:]
					}
				}
				return domain.Transaction{
					TransactionID:    id,
					TransactionType:  txnType,
					CounterpartyName: titleCase(toName),
					CounterpartyType: mapCounterpartyType(toType),
					CounterpartyBank: strings.TrimSpace(toBank),
					Remarks:          strings.TrimSpace(strings.Trim(remarks, "/")),
				}, nil
			},
		},
		{
			Name:  "nbsm",
			Match: hasPrefix("NBSM/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 4)
				if err != nil {
					return domain.Transaction{}, err
				}
				return domain.Transaction{
					TransactionID:    parts[1],
					TransactionType:  parts[0],
					CounterpartyName: titleCase(parts[2]),
					Remarks:          strings.TrimSpace(strings.Trim(parts[3], "/")),
				}, nil
			},
		},
		{
			Name:  "ecom",
			Match: hasPrefix("ECOM PUR/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 3)
				if err != nil {
					return domain.Transaction{}, err
				}
				return domain.Transaction{
					TransactionType:  "ECOM",
					CounterpartyName: titleCase(parts[1]),
					CounterpartyType: domain.CounterpartyMerchant,
				}, nil
			},
		},
		{
			Name:  "pos",
			Match: hasPrefix("POS/"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 4)
				if err != nil {
					return domain.Transaction{}, err
				}
				return domain.Transaction{
					TransactionType:  "POS",
					CounterpartyName: titleCase(parts[1]),
					CounterpartyType: domain.CounterpartyMerchant,
				}, nil
			},
		},
		{
			Name:  "atm-cash",
			Match: hasPrefix("ATM-CASH"),
			Extract: func(details string) (domain.Transaction, error) {
				parts, err := splitFields(source, details, 2)
				if err != nil {
					return domain.Transaction{}, err
				}
				return domain.Transaction{
					TransactionType:  "ATM",
					CounterpartyName: "ATM",
					Remarks:          parts[1],
				}, nil
			},
		},
		{
			Name:  "cheque",
			Match: hasPrefix("BRN-CLG-CHQ"),
			Extract: func(details string) (domain.Transaction, error) {
				sp := strings.SplitN(details, "PAID TO", 2)
				if len(sp) < 2 {
					return domain.Transaction{}, &domain.UnrecognizedFormatError{Source: source, Details: details}
				}
				return domain.Transaction{
					TransactionType:  "CHQ",
					CounterpartyName: titleCase(sp[1]),
				}, nil
			},
		},
		{
			Name:  "admin-fee",
			Match: adminFeeRe.MatchString,
			Extract: func(details string) (domain.Transaction, error) {
				return domain.Transaction{
					TransactionType:  "AC",
					CounterpartyName: axisBankName,
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          details,
				}, nil
			},
		},
		{
			Name:  "creditcard-payment",
			Match: hasPrefix("CreditCard Payment"),
			Extract: func(details string) (domain.Transaction, error) {
				id := details
				if i := strings.LastIndex(details, "#"); i >= 0 {
					id = details[i+1:]
				}
				return domain.Transaction{
					TransactionID:    id,
					TransactionType:  "AC",
					CounterpartyName: "CreditCard Payment",
					CounterpartyType: domain.CounterpartyMerchant,
					Ignore:           true,
				}, nil
			},
		},
		{
			Name: "customer-admin",
			Match: func(details string) bool {
				return customerID != "" && strings.Contains(details, customerID+":")
			},
			Extract: func(details string) (domain.Transaction, error) {
				return domain.Transaction{
					TransactionType:  "AC",
					CounterpartyName: axisBankName,
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          details[len(customerID)+1:],
				}, nil
			},
		},
		{
			Name:  "card-payment-branch",
			Match: hasPrefix("BRN-PYMT-CARD"),
			Extract: func(details string) (domain.Transaction, error) {
				return domain.Transaction{
					TransactionType:  "AC",
					CounterpartyName: axisBankName,
					CounterpartyType: domain.CounterpartyMerchant,
					Remarks:          details,
					Ignore:           true,
				}, nil
			},
		},
	}

	return NewCascade(source, prepare, matchers)
}
