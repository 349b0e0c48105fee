package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", "Checking", nil},
		{"empty", "", ErrEmptyName},
		{"whitespace only", "   ", ErrEmptyName},
		{"too long", strings.Repeat("a", 201), ErrNameTooLong},
		{"max length ok", strings.Repeat("a", 200), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestAccountValidate(t *testing.T) {
	valid := Account{Name: "Checking", Type: "asset", Currency: "EUR"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid account rejected: %v", err)
	}

	tests := []struct {
		name    string
		account Account
	}{
		{"missing name", Account{Type: "asset", Currency: "EUR"}},
		{"missing type", Account{Name: "Checking", Currency: "EUR"}},
		{"missing currency", Account{Name: "Checking", Type: "asset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.account.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{AccountID: 1, Date: "2024-03-15", AmountCents: -1250}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid transaction rejected: %v", err)
	}

	if err := (Transaction{Date: "2024-03-15"}).Validate(); err == nil {
		t.Error("transaction without account should be rejected")
	}
	if err := (Transaction{AccountID: 1, Date: "15/03/2024"}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Error("transaction with malformed date should be rejected")
	}
}
