package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JSON type for PostgreSQL JSONB
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// ProductGroup is the classification entity products belong to. Groups are
// referenced by name in the import file and resolved or created by name.
// (tenant_id, normalized_name) is unique so concurrent imports creating the
// same group surface as a duplicate-key conflict, which the resolver absorbs.
type ProductGroup struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID       string    `json:"tenantId" gorm:"not null;uniqueIndex:idx_groups_tenant_name"`
	Name           string    `json:"name" gorm:"not null"`
	NormalizedName string    `json:"-" gorm:"not null;uniqueIndex:idx_groups_tenant_name"`
	CreatedByID    string    `json:"createdById" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (ProductGroup) TableName() string {
	return "product_groups"
}

// NormalizeGroupName is the canonical form used for case-insensitive
// group matching and for the unique index.
func NormalizeGroupName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Product is one catalog entry created by the import pipeline. Codes and
// barcodes are unique per tenant; the uniqueness resolver checks them
// against this table before any row is accepted.
type Product struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string     `json:"tenantId" gorm:"not null;uniqueIndex:idx_products_tenant_code"`
	GroupID  *uuid.UUID `json:"groupId,omitempty" gorm:"type:uuid;index"`

	Code    string  `json:"code" gorm:"not null;uniqueIndex:idx_products_tenant_code"`
	Barcode *string `json:"barcode,omitempty" gorm:"index"`
	Name    string  `json:"name" gorm:"not null"`

	Unit           string  `json:"unit" gorm:"not null"`
	FractionalUnit bool    `json:"fractionalUnit"`
	CostPrice      float64 `json:"costPrice"`
	DefaultPrice   float64 `json:"defaultPrice"`
	Description    *string `json:"description,omitempty"`
	InitialStock   float64 `json:"initialStock"`

	Alcoholic   bool `json:"alcoholic"`
	Pizza       bool `json:"pizza"`
	RawMaterial bool `json:"rawMaterial"`
	Production  bool `json:"production"`

	// Fiscal fields (Brazilian NF-e vocabulary)
	NCM        string  `json:"ncm"`
	CFOP       string  `json:"cfop"`
	CST        string  `json:"cst"` // CST or CSOSN depending on the tenant regime
	CEST       *string `json:"cest,omitempty"`
	Origin     string  `json:"origin"`
	ICMSRate   float64 `json:"icmsRate"`
	PISRate    float64 `json:"pisRate"`
	COFINSRate float64 `json:"cofinsRate"`
	NetWeight  float64 `json:"netWeight"`

	ImportSessionID *uuid.UUID `json:"importSessionId,omitempty" gorm:"type:uuid;index"`
	CreatedByID     string     `json:"createdById" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// API response envelopes

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
