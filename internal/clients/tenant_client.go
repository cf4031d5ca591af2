package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"product-import-service/internal/models"
)

// TenantsClient handles communication with the tenants-service. The import
// pipeline needs exactly one tenant setting: the fiscal regime, which
// decides whether tax situation codes are read as CSOSN or CST.
type TenantsClient struct {
	baseURL    string
	httpClient *http.Client
}

// TenantSettings from tenants-service
type TenantSettings struct {
	TenantID     string `json:"tenantId"`
	FiscalRegime string `json:"fiscalRegime"`
}

// TenantSettingsResponse from tenants-service
type TenantSettingsResponse struct {
	Success bool            `json:"success"`
	Data    *TenantSettings `json:"data,omitempty"`
	Message *string         `json:"message,omitempty"`
}

// NewTenantsClient creates a new tenants client
func NewTenantsClient() *TenantsClient {
	baseURL := os.Getenv("TENANTS_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://tenants-service:8080"
	}

	return &TenantsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetFiscalRegime fetches the tenant's fiscal regime setting
func (c *TenantsClient) GetFiscalRegime(ctx context.Context, tenantID string) (models.FiscalRegime, error) {
	url := fmt.Sprintf("%s/api/v1/tenants/%s/settings", c.baseURL, tenantID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[TenantsClient] Error fetching settings for tenant %s: %v", tenantID, err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to fetch tenant settings: %d - %s", resp.StatusCode, string(body))
	}

	var result TenantSettingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Data == nil {
		return "", fmt.Errorf("tenant settings response has no data")
	}

	return parseFiscalRegime(result.Data.FiscalRegime)
}

func parseFiscalRegime(value string) (models.FiscalRegime, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "simplified", "simples", "simples_nacional":
		return models.RegimeSimplified, nil
	case "normal", "regime_normal":
		return models.RegimeNormal, nil
	default:
		return "", fmt.Errorf("unknown fiscal regime %q", value)
	}
}

// StaticTenantClient returns a fixed fiscal regime for every tenant. Used
// in development when no tenants service is available; configured via
// DEFAULT_FISCAL_REGIME.
type StaticTenantClient struct {
	regime models.FiscalRegime
}

func NewStaticTenantClient() (*StaticTenantClient, error) {
	value := os.Getenv("DEFAULT_FISCAL_REGIME")
	if value == "" {
		value = string(models.RegimeSimplified)
	}
	regime, err := parseFiscalRegime(value)
	if err != nil {
		return nil, err
	}
	return &StaticTenantClient{regime: regime}, nil
}

func (c *StaticTenantClient) GetFiscalRegime(ctx context.Context, tenantID string) (models.FiscalRegime, error) {
	return c.regime, nil
}
