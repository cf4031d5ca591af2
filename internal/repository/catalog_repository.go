package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-import-service/internal/models"
)

// CatalogRepositoryInterface is the pipeline's read/write contract against
// the tenant catalog: existing codes and units for validation, group
// creation, and the downstream bulk product insert.
type CatalogRepositoryInterface interface {
	GetCatalogSnapshot(ctx context.Context, tenantID string) (*models.CatalogSnapshot, error)
	ListGroups(ctx context.Context, tenantID string) ([]models.ProductGroup, error)
	CreateGroups(ctx context.Context, groups []*models.ProductGroup) error
	CreateGroup(ctx context.Context, group *models.ProductGroup) error
	GetGroupByName(ctx context.Context, tenantID, normalizedName string) (*models.ProductGroup, error)
	BulkCreateProducts(ctx context.Context, tenantID string, products []*models.Product) (int, error)
}

type CatalogRepository struct {
	db *gorm.DB
}

var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// RegisteredUnit is a tenant-registered unit of measure (2-char symbol)
type RegisteredUnit struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;uniqueIndex:idx_units_tenant_symbol"`
	Symbol    string    `json:"symbol" gorm:"not null;uniqueIndex:idx_units_tenant_symbol"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (RegisteredUnit) TableName() string {
	return "registered_units"
}

// IsDuplicateKeyError reports whether an insert failed on a uniqueness
// conflict. Postgres signals 23505; gorm surfaces it in the error text.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505") ||
		strings.Contains(msg, "unique constraint")
}

// GetCatalogSnapshot loads the full set of existing product codes,
// barcodes and registered units for a tenant into lookup sets. Loaded once
// per run so the validators stay pure and do no I/O of their own.
func (r *CatalogRepository) GetCatalogSnapshot(ctx context.Context, tenantID string) (*models.CatalogSnapshot, error) {
	snapshot := models.NewCatalogSnapshot()

	rows, err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("tenant_id = ?", tenantID).
		Select("code", "barcode").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var barcode *string
		if err := rows.Scan(&code, &barcode); err != nil {
			return nil, err
		}
		snapshot.Codes[code] = struct{}{}
		if barcode != nil && *barcode != "" {
			snapshot.Barcodes[*barcode] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var units []RegisteredUnit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&units).Error; err != nil {
		return nil, err
	}
	for _, u := range units {
		if u.Symbol != "" {
			snapshot.Units[strings.ToUpper(strings.TrimSpace(u.Symbol))] = struct{}{}
		}
	}

	return snapshot, nil
}

// ListGroups returns all groups of a tenant
func (r *CatalogRepository) ListGroups(ctx context.Context, tenantID string) ([]models.ProductGroup, error) {
	var groups []models.ProductGroup
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroups inserts a batch of groups in one transaction. A uniqueness
// conflict on any row fails the whole batch; callers fall back to
// per-item inserts in that case.
func (r *CatalogRepository) CreateGroups(ctx context.Context, groups []*models.ProductGroup) error {
	if len(groups) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, group := range groups {
			if group.ID == uuid.Nil {
				group.ID = uuid.New()
			}
			if err := tx.Create(group).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateGroup inserts a single group
func (r *CatalogRepository) CreateGroup(ctx context.Context, group *models.ProductGroup) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(group).Error
}

// GetGroupByName finds a group by its case-normalized name
func (r *CatalogRepository) GetGroupByName(ctx context.Context, tenantID, normalizedName string) (*models.ProductGroup, error) {
	var group models.ProductGroup
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND normalized_name = ?", tenantID, normalizedName).
		First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// BulkCreateProducts persists the accepted rows in one transaction with
// tenant isolation enforced on every record. Returns the created count.
func (r *CatalogRepository) BulkCreateProducts(ctx context.Context, tenantID string, products []*models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, product := range products {
			product.TenantID = tenantID
			if product.ID == uuid.Nil {
				product.ID = uuid.New()
			}
			product.CreatedAt = time.Now()
			product.UpdatedAt = time.Now()

			if err := tx.Create(product).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}
