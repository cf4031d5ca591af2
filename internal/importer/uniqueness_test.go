package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"product-import-service/internal/models"
)

func TestUniqueness_CatalogCollision(t *testing.T) {
	snapshot := models.NewCatalogSnapshot()
	snapshot.Codes["10034"] = struct{}{}
	snapshot.Barcodes["7891000100103"] = struct{}{}

	uniq := NewUniquenessResolver(snapshot)

	errs := uniq.Check("10034", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCode, errs[0].Column)
	assert.Contains(t, errs[0].Message, "already exists")

	errs = uniq.Check("20000", "7891000100103")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColBarcode, errs[0].Column)
	assert.Contains(t, errs[0].Message, "already exists")
}

func TestUniqueness_FirstOccurrenceWins(t *testing.T) {
	uniq := NewUniquenessResolver(nil)

	assert.Empty(t, uniq.Check("10034", "7891000100103"))

	// Same code again: only the code is flagged
	errs := uniq.Check("10034", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCode, errs[0].Column)
	assert.Contains(t, errs[0].Message, "duplicated in the file")

	// Same barcode on a new code: only the barcode is flagged
	errs = uniq.Check("10035", "7891000100103")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColBarcode, errs[0].Column)
}

func TestUniqueness_EmptyBarcodeSkipsCheck(t *testing.T) {
	uniq := NewUniquenessResolver(nil)

	assert.Empty(t, uniq.Check("1", ""))
	assert.Empty(t, uniq.Check("2", ""))
	assert.Empty(t, uniq.Check("3", ""))
}

func TestUniqueness_BothCollide(t *testing.T) {
	uniq := NewUniquenessResolver(nil)

	assert.Empty(t, uniq.Check("10034", "789"))

	errs := uniq.Check("10034", "789")
	assert.Len(t, errs, 2)
}

func TestUniqueness_RejectedValueIsStillClaimed(t *testing.T) {
	snapshot := models.NewCatalogSnapshot()
	snapshot.Codes["10034"] = struct{}{}
	uniq := NewUniquenessResolver(snapshot)

	// Catalog collision on the code, but the barcode gets claimed
	errs := uniq.Check("10034", "789")
	assert.Len(t, errs, 1)

	// A later row reusing that barcode is a duplicate
	errs = uniq.Check("20000", "789")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColBarcode, errs[0].Column)
}
