package dto

import "github.com/shopspring/decimal"

type CreateRepairRequest struct {
	ClientID         string          `json:"client_id"         validate:"required,uuid"`
	DeviceBrand      string          `json:"device_brand"      validate:"max=100"`
	DeviceModel      string          `json:"device_model"      validate:"max=100"`
	IssueDescription string          `json:"issue_description"`
	Status           string          `json:"status"`
	CostEstimate     decimal.Decimal `json:"cost_estimate"     validate:"min=0"`
	DepositPaid      decimal.Decimal `json:"deposit_paid"      validate:"min=0"`
	DepositMethod    string          `json:"deposit_method"    validate:"max=30"`
	WarrantyDays     int             `json:"warranty_days"     validate:"min=0"`
	Parts            []string        `json:"parts"             validate:"dive,uuid"`
	PartsList        []string        `json:"parts_list"`
	Notes            *string         `json:"notes"`
}

type UpdateRepairStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateRepairRequest is a partial update: nil fields keep their stored value.
// Parts, when present, replaces the repair's parts wholesale (an empty list
// removes all of them).
type UpdateRepairRequest struct {
	DeviceBrand      *string          `json:"device_brand"`
	DeviceModel      *string          `json:"device_model"`
	IssueDescription *string          `json:"issue_description"`
	Status           *string          `json:"status"`
	CostEstimate     *decimal.Decimal `json:"cost_estimate"`
	WarrantyDays     *int             `json:"warranty_days"     validate:"omitempty,min=0"`
	Notes            *string          `json:"notes"`
	Parts            *[]string        `json:"parts"`
	PartsList        *[]string        `json:"parts_list"`
}

type ClientSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

type RepairPartResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type RepairResponse struct {
	ID                string               `json:"id"`
	ClientID          string               `json:"client_id"`
	Client            *ClientSummary       `json:"client,omitempty"`
	DeviceBrand       string               `json:"device_brand"`
	DeviceModel       string               `json:"device_model"`
	IssueDescription  string               `json:"issue_description"`
	Status            string               `json:"status"`
	CostEstimate      decimal.Decimal      `json:"cost_estimate"`
	DepositPaid       decimal.Decimal      `json:"deposit_paid"`
	WarrantyDays      int                  `json:"warranty_days"`
	PartsListSnapshot []string             `json:"parts_list"`
	Parts             []RepairPartResponse `json:"parts"`
	Notes             *string              `json:"notes,omitempty"`
	CreatedAt         string               `json:"created_at"`
	UpdatedAt         string               `json:"updated_at"`
}
