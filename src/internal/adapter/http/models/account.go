package models

import (
	"errors"
	"strings"

	"github.com/ampla-fin/recon-ledger/src/internal/domain"
)

type CreateAccountRequest struct {
	TenantID     string `json:"tenantId"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nature       string `json:"nature,omitempty"`
	IsAnalytical bool   `json:"isAnalytical"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.TenantID) == "" {
		errs = append(errs, "tenantId is required")
	}
	if strings.TrimSpace(r.Code) == "" {
		errs = append(errs, "code is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}

	switch domain.AccountType(strings.TrimSpace(r.Type)) {
	case domain.AccountTypeAsset, domain.AccountTypeLiability, domain.AccountTypeEquity,
		domain.AccountTypeRevenue, domain.AccountTypeExpense:
	case "":
		errs = append(errs, "type is required")
	default:
		errs = append(errs, "type must be one of ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE")
	}

	switch domain.AccountNature(strings.TrimSpace(r.Nature)) {
	case domain.NatureDebit, domain.NatureCredit, "":
	default:
		errs = append(errs, "nature must be DEBIT or CREDIT")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r CreateAccountRequest) ToAccount() domain.Account {
	return domain.Account{
		TenantID:     strings.TrimSpace(r.TenantID),
		Code:         strings.TrimSpace(r.Code),
		Name:         strings.TrimSpace(r.Name),
		Type:         domain.AccountType(strings.TrimSpace(r.Type)),
		Nature:       domain.AccountNature(strings.TrimSpace(r.Nature)),
		IsAnalytical: r.IsAnalytical,
	}
}

type AccountResponse struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nature       string `json:"nature"`
	IsAnalytical bool   `json:"isAnalytical"`
}

func NewAccountResponse(account domain.Account) AccountResponse {
	return AccountResponse{
		Code:         account.Code,
		Name:         account.Name,
		Type:         string(account.Type),
		Nature:       string(account.Nature),
		IsAnalytical: account.IsAnalytical,
	}
}

type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type SeedAccountsRequest struct {
	TenantID string `json:"tenantId"`
}

func (r SeedAccountsRequest) Validate() error {
	if strings.TrimSpace(r.TenantID) == "" {
		return errors.New("tenantId is required")
	}
	return nil
}

type SeedAccountsResponse struct {
	Created int `json:"created"`
}
