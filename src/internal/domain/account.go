package domain

import "strings"

type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

type AccountNature string

const (
	NatureDebit  AccountNature = "DEBIT"
	NatureCredit AccountNature = "CREDIT"
)

// Account is a node in the chart of accounts. Analytical accounts are the
// leaves and the only nodes that receive ledger lines; synthetic accounts
// exist for aggregation.
type Account struct {
	Code         string
	Name         string
	Type         AccountType
	Nature       AccountNature
	IsAnalytical bool
	TenantID     string
}

// AncestorCodes returns the dot-path prefixes of code, root first,
// excluding code itself. "1.1.2.01" -> ["1", "1.1", "1.1.2"].
func AncestorCodes(code string) []string {
	segments := strings.Split(code, ".")
	if len(segments) < 2 {
		return nil
	}

	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, strings.Join(segments[:i], "."))
	}
	return out
}

// IsDescendantOf reports whether code sits under prefix in the account tree.
// A code counts as its own descendant.
func IsDescendantOf(code, prefix string) bool {
	if code == prefix {
		return true
	}
	return strings.HasPrefix(code, prefix+".")
}

// NatureForType returns the nature every account of the given type carries.
// Assets and expenses grow by debit, the rest by credit.
func NatureForType(t AccountType) AccountNature {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return NatureDebit
	}
	return NatureCredit
}
