package validation

import (
	"fmt"
	"strings"

	"product-import-service/internal/models"
)

// FieldError ties a cell error to its column so callers can build a
// row-level report. All violated rules are reported, never short-circuited.
type FieldError struct {
	Column  int
	Value   string
	Kind    models.ErrorKind
	Message string
}

// Admissible tax operation codes (CFOP) for imported products.
const (
	CFOPStandardSale     = "5102" // sale of merchandise acquired from third parties
	CFOPSubstitutionSale = "5405" // sale of merchandise subject to tax substitution
)

// expectedSituation maps each admissible CFOP to the single expected
// tax-situation code, per fiscal regime. The simplified regime uses the
// CSOSN vocabulary, the normal regime uses CST.
var expectedSituation = map[models.FiscalRegime]map[string]string{
	models.RegimeSimplified: {
		CFOPStandardSale:     "102",
		CFOPSubstitutionSale: "500",
	},
	models.RegimeNormal: {
		CFOPStandardSale:     "00",
		CFOPSubstitutionSale: "60",
	},
}

// cestRequired marks CFOPs that make the CEST column mandatory.
var cestRequired = map[string]bool{
	CFOPSubstitutionSale: true,
}

const cestLength = 7

// ValidateTaxFields validates the relationships between the CFOP, the
// tax-situation code and the CEST columns of one row, conditioned on the
// tenant's fiscal regime. For CFOP 5405 the CEST is mandatory; for 5102 it
// is optional but still format-checked when present.
func ValidateTaxFields(regime models.FiscalRegime, cfop, situation, cest string) []FieldError {
	var errs []FieldError

	cfop = strings.TrimSpace(cfop)
	situation = strings.TrimSpace(situation)
	cest = strings.TrimSpace(cest)

	// The regime/situation and CEST-required rules depend on a usable CFOP,
	// but the CEST format check is independent and runs regardless, so a
	// malformed CEST is reported even on a row with a bad CFOP.
	cfopValid := true
	expected := ""
	if cellErr := FixedLengthCode(cfop, 4, false); cellErr != nil {
		errs = append(errs, FieldError{Column: models.ColCFOP, Value: cfop, Kind: cellErr.Kind, Message: "CFOP " + cellErr.Message})
		cfopValid = false
	} else if exp, admissible := expectedSituation[regime][cfop]; admissible {
		expected = exp
	} else {
		errs = append(errs, FieldError{
			Column:  models.ColCFOP,
			Value:   cfop,
			Kind:    models.ErrorKindInvalidValue,
			Message: fmt.Sprintf("CFOP must be %s or %s", CFOPStandardSale, CFOPSubstitutionSale),
		})
		cfopValid = false
	}

	if cfopValid && situation != expected {
		vocabulary := "CST"
		if regime == models.RegimeSimplified {
			vocabulary = "CSOSN"
		}
		errs = append(errs, FieldError{
			Column:  models.ColCST,
			Value:   situation,
			Kind:    models.ErrorKindInvalidValue,
			Message: fmt.Sprintf("%s must be %s for CFOP %s under the %s regime", vocabulary, expected, cfop, regime),
		})
	}

	if cest == "" {
		if cfopValid && cestRequired[cfop] {
			errs = append(errs, FieldError{
				Column:  models.ColCEST,
				Value:   cest,
				Kind:    models.ErrorKindMissingRequired,
				Message: fmt.Sprintf("CEST is required when CFOP is %s", cfop),
			})
		}
	} else if cellErr := FixedLengthCode(cest, cestLength, false); cellErr != nil {
		errs = append(errs, FieldError{Column: models.ColCEST, Value: cest, Kind: cellErr.Kind, Message: "CEST " + cellErr.Message})
	}

	return errs
}
