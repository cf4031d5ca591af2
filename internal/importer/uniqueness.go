package importer

import (
	"sync"

	"product-import-service/internal/models"
	"product-import-service/internal/validation"
)

// UniquenessResolver rejects two kinds of collision: a code or barcode that
// already exists in the tenant's catalog, and one that collides with an
// earlier row of the same file. First occurrence in file order wins; every
// later duplicate is rejected. The seen-in-file sets are mutex-guarded so
// row checks may run concurrently, but callers must still feed rows in file
// order for the first-wins rule to hold.
type UniquenessResolver struct {
	existing *models.CatalogSnapshot

	mu           sync.Mutex
	seenCodes    map[string]struct{}
	seenBarcodes map[string]struct{}
}

func NewUniquenessResolver(existing *models.CatalogSnapshot) *UniquenessResolver {
	if existing == nil {
		existing = models.NewCatalogSnapshot()
	}
	return &UniquenessResolver{
		existing:     existing,
		seenCodes:    make(map[string]struct{}),
		seenBarcodes: make(map[string]struct{}),
	}
}

// Check validates one row's code and barcode. The barcode is optional:
// an empty value skips the uniqueness check for that field only.
func (u *UniquenessResolver) Check(code, barcode string) []validation.FieldError {
	var errs []validation.FieldError

	u.mu.Lock()
	defer u.mu.Unlock()

	if code != "" {
		if _, exists := u.existing.Codes[code]; exists {
			errs = append(errs, validation.FieldError{
				Column:  models.ColCode,
				Value:   code,
				Kind:    models.ErrorKindInvalidValue,
				Message: "product code already exists in the catalog",
			})
		} else if _, seen := u.seenCodes[code]; seen {
			errs = append(errs, validation.FieldError{
				Column:  models.ColCode,
				Value:   code,
				Kind:    models.ErrorKindInvalidValue,
				Message: "product code is duplicated in the file",
			})
		} else {
			u.seenCodes[code] = struct{}{}
		}
	}

	if barcode != "" {
		if _, exists := u.existing.Barcodes[barcode]; exists {
			errs = append(errs, validation.FieldError{
				Column:  models.ColBarcode,
				Value:   barcode,
				Kind:    models.ErrorKindInvalidValue,
				Message: "barcode already exists in the catalog",
			})
		} else if _, seen := u.seenBarcodes[barcode]; seen {
			errs = append(errs, validation.FieldError{
				Column:  models.ColBarcode,
				Value:   barcode,
				Kind:    models.ErrorKindInvalidValue,
				Message: "barcode is duplicated in the file",
			})
		} else {
			u.seenBarcodes[barcode] = struct{}{}
		}
	}

	return errs
}
