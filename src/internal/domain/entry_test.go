package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerEntryBalanced(t *testing.T) {
	entry := LedgerEntry{
		Lines: []LedgerLine{
			{AccountCode: "1.1.1.01", Debit: decimal.NewFromInt(100)},
			{AccountCode: "3.1.1.01", Credit: decimal.NewFromInt(100)},
		},
	}
	if !entry.Balanced() {
		t.Fatal("equal debit and credit totals must balance")
	}

	entry.Lines = append(entry.Lines, LedgerLine{
		AccountCode: "1.1.2.01",
		Debit:       decimal.New(1, -2),
	})
	if entry.Balanced() {
		t.Fatal("a one-cent drift must not balance; entry balance has no tolerance")
	}
}
