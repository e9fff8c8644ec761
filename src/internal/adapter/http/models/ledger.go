package models

import (
	"errors"
	"strings"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

// Event type discriminators accepted by POST /ledger/entries. Payments are
// posted through movementId, not through this union.
const (
	EventReceivableIssued = "receivable_issued"
	EventReceivablePaid   = "receivable_paid"
	EventExpenseIncurred  = "expense_incurred"
	EventOpeningBalance   = "opening_balance"
	EventManualAdjustment = "manual_adjustment"
)

type PostEntryRequest struct {
	TenantID  string `json:"tenantId"`
	EventType string `json:"eventType"`

	// receivable_issued / opening_balance
	ReceivableID     string `json:"receivableId,omitempty"`
	BalanceID        string `json:"balanceId,omitempty"`
	PayerName        string `json:"payerName,omitempty"`
	PayerAccountCode string `json:"payerAccountCode,omitempty"`
	DueDate          string `json:"dueDate,omitempty"`
	Competence       string `json:"competence,omitempty"`

	// expense_incurred
	ExpenseID string `json:"expenseId,omitempty"`
	Category  string `json:"category,omitempty"`

	// manual_adjustment
	AdjustmentID      string `json:"adjustmentId,omitempty"`
	DebitAccountCode  string `json:"debitAccountCode,omitempty"`
	CreditAccountCode string `json:"creditAccountCode,omitempty"`

	// receivable_paid
	MovementID string `json:"movementId,omitempty"`

	Amount      string `json:"amount,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r PostEntryRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}

	switch strings.TrimSpace(r.EventType) {
	case EventReceivableIssued:
		errs = append(errs, requireFields(map[string]string{
			"receivableId": r.ReceivableID,
			"payerName":    r.PayerName,
			"amount":       r.Amount,
			"dueDate":      r.DueDate,
		})...)
		errs = append(errs, validateAmount(r.Amount)...)
		errs = append(errs, validateDate("dueDate", r.DueDate)...)
	case EventReceivablePaid:
		if strings.TrimSpace(r.MovementID) == "" {
			errs = append(errs, "movementId is required")
		}
	case EventExpenseIncurred:
		errs = append(errs, requireFields(map[string]string{
			"expenseId": r.ExpenseID,
			"category":  r.Category,
			"amount":    r.Amount,
			"date":      r.Date,
		})...)
		errs = append(errs, validateAmount(r.Amount)...)
		errs = append(errs, validateDate("date", r.Date)...)
	case EventOpeningBalance:
		errs = append(errs, requireFields(map[string]string{
			"balanceId": r.BalanceID,
			"payerName": r.PayerName,
			"amount":    r.Amount,
			"date":      r.Date,
		})...)
		errs = append(errs, validateAmount(r.Amount)...)
		errs = append(errs, validateDate("date", r.Date)...)
	case EventManualAdjustment:
		errs = append(errs, requireFields(map[string]string{
			"adjustmentId":      r.AdjustmentID,
			"debitAccountCode":  r.DebitAccountCode,
			"creditAccountCode": r.CreditAccountCode,
			"amount":            r.Amount,
			"date":              r.Date,
		})...)
		errs = append(errs, validateAmount(r.Amount)...)
		errs = append(errs, validateDate("date", r.Date)...)
	case "":
		errs = append(errs, "eventType is required")
	default:
		errs = append(errs, "eventType must be one of receivable_issued, receivable_paid, expense_incurred, opening_balance, manual_adjustment")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ToEvent builds the domain event for every variant except receivable_paid,
// which the controller routes through the movement path.
func (r PostEntryRequest) ToEvent() (domain.SourceEvent, error) {
	amount, _ := decimal.NewFromString(strings.TrimSpace(r.Amount))

	switch strings.TrimSpace(r.EventType) {
	case EventReceivableIssued:
		dueDate, err := time.Parse("2006-01-02", strings.TrimSpace(r.DueDate))
		if err != nil {
			return nil, errors.New("dueDate must be in YYYY-MM-DD format")
		}
		return domain.ReceivableIssued{
			TenantID:         r.TenantID,
			ReceivableID:     r.ReceivableID,
			PayerName:        r.PayerName,
			PayerAccountCode: r.PayerAccountCode,
			Amount:           amount,
			DueDate:          dueDate,
			Competence:       r.Competence,
			Description:      r.Description,
		}, nil
	case EventExpenseIncurred:
		date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
		if err != nil {
			return nil, errors.New("date must be in YYYY-MM-DD format")
		}
		return domain.ExpenseIncurred{
			TenantID:    r.TenantID,
			ExpenseID:   r.ExpenseID,
			Category:    r.Category,
			Amount:      amount,
			ExpenseDate: date,
			Description: r.Description,
		}, nil
	case EventOpeningBalance:
		date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
		if err != nil {
			return nil, errors.New("date must be in YYYY-MM-DD format")
		}
		return domain.OpeningBalanceEstablished{
			TenantID:         r.TenantID,
			BalanceID:        r.BalanceID,
			PayerName:        r.PayerName,
			PayerAccountCode: r.PayerAccountCode,
			Amount:           amount,
			Date:             date,
			Competence:       r.Competence,
		}, nil
	case EventManualAdjustment:
		date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
		if err != nil {
			return nil, errors.New("date must be in YYYY-MM-DD format")
		}
		return domain.ManualAdjustment{
			TenantID:          r.TenantID,
			AdjustmentID:      r.AdjustmentID,
			DebitAccountCode:  r.DebitAccountCode,
			CreditAccountCode: r.CreditAccountCode,
			Amount:            amount,
			Date:              date,
			Description:       r.Description,
		}, nil
	}
	return nil, errors.New("unsupported eventType")
}

func requireFields(fields map[string]string) []string {
	var errs []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, name+" is required")
		}
	}
	return errs
}

func validateAmount(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return []string{"amount must be a decimal number"}
	}
	if !amount.IsPositive() {
		return []string{"amount must be positive"}
	}
	return nil
}

func validateDate(name, raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", trimmed); err != nil {
		return []string{name + " must be in YYYY-MM-DD format"}
	}
	return nil
}

type LedgerLineResponse struct {
	AccountCode string `json:"accountCode"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description,omitempty"`
}

type LedgerEntryResponse struct {
	ID            string               `json:"id"`
	EntryDate     string               `json:"entryDate"`
	Description   string               `json:"description"`
	EntryType     string               `json:"entryType"`
	ReferenceType string               `json:"referenceType"`
	ReferenceID   string               `json:"referenceId"`
	TotalDebit    string               `json:"totalDebit"`
	TotalCredit   string               `json:"totalCredit"`
	Lines         []LedgerLineResponse `json:"lines"`
}

func NewLedgerEntryResponse(entry domain.LedgerEntry) LedgerEntryResponse {
	out := LedgerEntryResponse{
		ID:            entry.ID,
		EntryDate:     entry.EntryDate.Format("2006-01-02"),
		Description:   entry.Description,
		EntryType:     string(entry.EntryType),
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		TotalDebit:    entry.TotalDebit().StringFixed(2),
		TotalCredit:   entry.TotalCredit().StringFixed(2),
		Lines:         make([]LedgerLineResponse, 0, len(entry.Lines)),
	}
	for _, line := range entry.Lines {
		out.Lines = append(out.Lines, LedgerLineResponse{
			AccountCode: line.AccountCode,
			Debit:       line.Debit.StringFixed(2),
			Credit:      line.Credit.StringFixed(2),
			Description: line.Description,
		})
	}
	return out
}

type ReverseEntryRequest struct {
	TenantID string `json:"tenantId"`
	EntryID  string `json:"entryId"`
	Actor    string `json:"actor"`
}

func (r ReverseEntryRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	if strings.TrimSpace(r.EntryID) == "" {
		errs = append(errs, "entryId is required")
	}
	if strings.TrimSpace(r.Actor) == "" {
		errs = append(errs, "actor is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountBalanceResponse struct {
	AccountCode  string `json:"accountCode"`
	AccountName  string `json:"accountName"`
	Opening      string `json:"opening"`
	PeriodDebit  string `json:"periodDebit"`
	PeriodCredit string `json:"periodCredit"`
	Closing      string `json:"closing"`
}

func NewAccountBalanceResponse(balance service_interfaces.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountCode:  balance.Account.Code,
		AccountName:  balance.Account.Name,
		Opening:      balance.Opening.StringFixed(2),
		PeriodDebit:  balance.PeriodDebit.StringFixed(2),
		PeriodCredit: balance.PeriodCredit.StringFixed(2),
		Closing:      balance.Closing.StringFixed(2),
	}
}

type BalancesResponse struct {
	Balances []AccountBalanceResponse `json:"balances"`
}

type TrialBalanceResponse struct {
	Rows           []AccountBalanceResponse `json:"rows"`
	OpeningDebit   string                   `json:"openingDebit"`
	OpeningCredit  string                   `json:"openingCredit"`
	MovementDebit  string                   `json:"movementDebit"`
	MovementCredit string                   `json:"movementCredit"`
	ClosingDebit   string                   `json:"closingDebit"`
	ClosingCredit  string                   `json:"closingCredit"`
}

func NewTrialBalanceResponse(tb service_interfaces.TrialBalance) TrialBalanceResponse {
	out := TrialBalanceResponse{
		Rows:           make([]AccountBalanceResponse, 0, len(tb.Rows)),
		OpeningDebit:   tb.OpeningDebit.StringFixed(2),
		OpeningCredit:  tb.OpeningCredit.StringFixed(2),
		MovementDebit:  tb.MovementDebit.StringFixed(2),
		MovementCredit: tb.MovementCredit.StringFixed(2),
		ClosingDebit:   tb.ClosingDebit.StringFixed(2),
		ClosingCredit:  tb.ClosingCredit.StringFixed(2),
	}
	for _, row := range tb.Rows {
		out.Rows = append(out.Rows, NewAccountBalanceResponse(row))
	}
	return out
}

type CashFlowItemResponse struct {
	Bucket      string `json:"bucket"`
	AccountCode string `json:"accountCode"`
	AccountName string `json:"accountName"`
	Amount      string `json:"amount"`
}

type CashFlowResponse struct {
	Items          []CashFlowItemResponse `json:"items"`
	OperatingTotal string                 `json:"operatingTotal"`
	InvestingTotal string                 `json:"investingTotal"`
	FinancingTotal string                 `json:"financingTotal"`
	NetChange      string                 `json:"netChange"`
	CashOpening    string                 `json:"cashOpening"`
	CashClosing    string                 `json:"cashClosing"`
}

func NewCashFlowResponse(cf service_interfaces.CashFlowStatement) CashFlowResponse {
	out := CashFlowResponse{
		Items:          make([]CashFlowItemResponse, 0, len(cf.Items)),
		OperatingTotal: cf.OperatingTotal.StringFixed(2),
		InvestingTotal: cf.InvestingTotal.StringFixed(2),
		FinancingTotal: cf.FinancingTotal.StringFixed(2),
		NetChange:      cf.NetChange.StringFixed(2),
		CashOpening:    cf.CashOpening.StringFixed(2),
		CashClosing:    cf.CashClosing.StringFixed(2),
	}
	for _, item := range cf.Items {
		out.Items = append(out.Items, CashFlowItemResponse{
			Bucket:      string(item.Bucket),
			AccountCode: item.AccountCode,
			AccountName: item.AccountName,
			Amount:      item.Amount.StringFixed(2),
		})
	}
	return out
}
