package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"product-import-service/internal/models"
)

func TestValidateTaxFields_SimplifiedRegimeMatrix(t *testing.T) {
	// CFOP 5102 expects CSOSN 102, CFOP 5405 expects CSOSN 500
	assert.Empty(t, ValidateTaxFields(models.RegimeSimplified, "5102", "102", ""))
	assert.Empty(t, ValidateTaxFields(models.RegimeSimplified, "5405", "500", "0300700"))

	errs := ValidateTaxFields(models.RegimeSimplified, "5102", "500", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCST, errs[0].Column)
	assert.Equal(t, models.ErrorKindInvalidValue, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "CSOSN")
	assert.Contains(t, errs[0].Message, "102")
}

func TestValidateTaxFields_NormalRegimeMatrix(t *testing.T) {
	assert.Empty(t, ValidateTaxFields(models.RegimeNormal, "5102", "00", ""))
	assert.Empty(t, ValidateTaxFields(models.RegimeNormal, "5405", "60", "0300700"))

	errs := ValidateTaxFields(models.RegimeNormal, "5405", "500", "0300700")
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "CST")
	assert.Contains(t, errs[0].Message, "60")
}

func TestValidateTaxFields_CFOPWhitelist(t *testing.T) {
	errs := ValidateTaxFields(models.RegimeSimplified, "6102", "102", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCFOP, errs[0].Column)
	assert.Equal(t, models.ErrorKindInvalidValue, errs[0].Kind)
}

func TestValidateTaxFields_CFOPFormatCheckedFirst(t *testing.T) {
	// A malformed CFOP suppresses the dependent situation and CEST-required
	// rules, which cannot be evaluated without a usable CFOP
	errs := ValidateTaxFields(models.RegimeSimplified, "51", "102", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCFOP, errs[0].Column)
	assert.Equal(t, models.ErrorKindBadLength, errs[0].Kind)

	errs = ValidateTaxFields(models.RegimeSimplified, "", "102", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ErrorKindMissingRequired, errs[0].Kind)
}

func TestValidateTaxFields_CESTFormatCheckedDespiteBadCFOP(t *testing.T) {
	// The CEST format rule does not depend on the CFOP, so a malformed CEST
	// is reported alongside the CFOP error instead of being masked by it
	errs := ValidateTaxFields(models.RegimeSimplified, "6102", "102", "12")
	assert.Len(t, errs, 2)
	columns := []int{errs[0].Column, errs[1].Column}
	assert.Contains(t, columns, models.ColCFOP)
	assert.Contains(t, columns, models.ColCEST)

	errs = ValidateTaxFields(models.RegimeSimplified, "51", "102", "abc1234")
	assert.Len(t, errs, 2)

	// A well-formed CEST adds no noise to a CFOP error
	errs = ValidateTaxFields(models.RegimeSimplified, "6102", "102", "0300700")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCFOP, errs[0].Column)
}

func TestValidateTaxFields_CESTRequiredFor5405(t *testing.T) {
	errs := ValidateTaxFields(models.RegimeSimplified, "5405", "500", "")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCEST, errs[0].Column)
	assert.Equal(t, models.ErrorKindMissingRequired, errs[0].Kind)
}

func TestValidateTaxFields_CESTOptionalFor5102ButValidated(t *testing.T) {
	// Absent: fine
	assert.Empty(t, ValidateTaxFields(models.RegimeSimplified, "5102", "102", ""))

	// Present but malformed: still rejected
	errs := ValidateTaxFields(models.RegimeSimplified, "5102", "102", "123")
	assert.Len(t, errs, 1)
	assert.Equal(t, models.ColCEST, errs[0].Column)
	assert.Equal(t, models.ErrorKindBadLength, errs[0].Kind)

	// Present and well-formed: accepted
	assert.Empty(t, ValidateTaxFields(models.RegimeSimplified, "5102", "102", "0300700"))
}

func TestValidateTaxFields_MultipleViolationsReported(t *testing.T) {
	// Wrong situation code and missing CEST are both reported
	errs := ValidateTaxFields(models.RegimeSimplified, "5405", "102", "")
	assert.Len(t, errs, 2)

	columns := []int{errs[0].Column, errs[1].Column}
	assert.Contains(t, columns, models.ColCST)
	assert.Contains(t, columns, models.ColCEST)
}
