package importer

import (
	"strings"

	"product-import-service/internal/models"
	"product-import-service/internal/validation"
)

// Orchestrator runs the full per-row validation pass: field validators,
// cross-field tax rules and uniqueness checks. It partitions rows into
// accepted and rejected and builds the structured error report. Validation
// never aborts on a bad row; every violation of every row is collected so
// the user sees the complete list in one pass.
type Orchestrator struct {
	regime   models.FiscalRegime
	snapshot *models.CatalogSnapshot
	uniq     *UniquenessResolver
}

func NewOrchestrator(regime models.FiscalRegime, snapshot *models.CatalogSnapshot) *Orchestrator {
	if snapshot == nil {
		snapshot = models.NewCatalogSnapshot()
	}
	return &Orchestrator{
		regime:   regime,
		snapshot: snapshot,
		uniq:     NewUniquenessResolver(snapshot),
	}
}

// AcceptedRow pairs a validated source row with the product built from it.
// GroupName carries the raw group reference for the group resolver.
type AcceptedRow struct {
	Row       Row
	GroupName string
	Product   *models.Product
}

// ValidationOutcome aggregates a whole-file validation pass.
type ValidationOutcome struct {
	Accepted      []AcceptedRow
	Errors        []models.ValidationError
	RowsProcessed int
	RowsRejected  int
}

// ValidateAll validates every row in file order. A row is accepted only
// when it produced zero errors; otherwise all its errors are appended to
// the aggregate log and the row is excluded.
func (o *Orchestrator) ValidateAll(rows []Row) *ValidationOutcome {
	outcome := &ValidationOutcome{}

	for _, row := range rows {
		outcome.RowsProcessed++

		rowErrs := o.validateRow(row)
		if len(rowErrs) > 0 {
			outcome.RowsRejected++
			outcome.Errors = append(outcome.Errors, rowErrs...)
			continue
		}

		outcome.Accepted = append(outcome.Accepted, AcceptedRow{
			Row:       row,
			GroupName: row.Cell(models.ColGroup),
			Product:   buildProduct(row),
		})
	}

	return outcome
}

// validateRow applies the full rule catalog to one row and returns every
// violation found.
func (o *Orchestrator) validateRow(row Row) []models.ValidationError {
	var errs []models.ValidationError

	check := func(col int, cellErr *validation.CellError) {
		if cellErr != nil {
			errs = append(errs, toValidationError(row, col, row.Cell(col), cellErr.Kind, cellErr.Message))
		}
	}

	check(models.ColGroup, validation.RequiredText(row.Cell(models.ColGroup)))
	check(models.ColCode, validation.IntegerCode(row.Cell(models.ColCode), false))
	check(models.ColBarcode, validation.IntegerCode(row.Cell(models.ColBarcode), true))
	check(models.ColName, validation.ConstrainedText(row.RawCell(models.ColName)))
	check(models.ColUnit, validation.UnitOfMeasure(row.Cell(models.ColUnit), o.snapshot.Units))
	check(models.ColFractionalUnit, validation.BooleanLike(row.Cell(models.ColFractionalUnit), true))
	check(models.ColCostPrice, validation.Numeric(row.Cell(models.ColCostPrice), true))
	check(models.ColDefaultPrice, validation.RequiredNumericAllowZero(row.Cell(models.ColDefaultPrice)))
	check(models.ColDescription, validation.OptionalText(row.Cell(models.ColDescription)))
	check(models.ColInitialStock, validation.Numeric(row.Cell(models.ColInitialStock), true))
	check(models.ColAlcoholic, validation.BooleanLike(row.Cell(models.ColAlcoholic), true))
	check(models.ColPizza, validation.BooleanLike(row.Cell(models.ColPizza), true))
	check(models.ColRawMaterial, validation.BooleanLike(row.Cell(models.ColRawMaterial), true))
	check(models.ColProduction, validation.BooleanLike(row.Cell(models.ColProduction), true))
	check(models.ColNCM, validation.FixedLengthCode(row.Cell(models.ColNCM), 8, false))
	check(models.ColOrigin, validation.OriginCode(row.Cell(models.ColOrigin)))
	check(models.ColICMSRate, validation.Numeric(row.Cell(models.ColICMSRate), true))
	check(models.ColPISRate, validation.Numeric(row.Cell(models.ColPISRate), true))
	check(models.ColCOFINSRate, validation.Numeric(row.Cell(models.ColCOFINSRate), true))
	check(models.ColNetWeight, validation.Numeric(row.Cell(models.ColNetWeight), true))

	for _, fe := range validation.ValidateTaxFields(
		o.regime,
		row.Cell(models.ColCFOP),
		row.Cell(models.ColCST),
		row.Cell(models.ColCEST),
	) {
		errs = append(errs, toValidationError(row, fe.Column, fe.Value, fe.Kind, fe.Message))
	}

	for _, fe := range o.uniq.Check(row.Cell(models.ColCode), row.Cell(models.ColBarcode)) {
		errs = append(errs, toValidationError(row, fe.Column, fe.Value, fe.Kind, fe.Message))
	}

	return errs
}

func toValidationError(row Row, col int, value string, kind models.ErrorKind, message string) models.ValidationError {
	if len(value) > models.MaxErrorValueLen {
		value = value[:models.MaxErrorValueLen]
	}
	return models.ValidationError{
		Row:         row.Number,
		Column:      models.ColumnName(col),
		ColumnIndex: col,
		Value:       value,
		Kind:        kind,
		Message:     message,
	}
}

// buildProduct maps an already-validated row into a product record.
func buildProduct(row Row) *models.Product {
	product := &models.Product{
		Code:           row.Cell(models.ColCode),
		Name:           row.Cell(models.ColName),
		Unit:           strings.ToUpper(row.Cell(models.ColUnit)),
		FractionalUnit: validation.ParseBool(row.Cell(models.ColFractionalUnit)),
		CostPrice:      validation.ParseDecimal(row.Cell(models.ColCostPrice)),
		DefaultPrice:   validation.ParseDecimal(row.Cell(models.ColDefaultPrice)),
		InitialStock:   validation.ParseDecimal(row.Cell(models.ColInitialStock)),
		Alcoholic:      validation.ParseBool(row.Cell(models.ColAlcoholic)),
		Pizza:          validation.ParseBool(row.Cell(models.ColPizza)),
		RawMaterial:    validation.ParseBool(row.Cell(models.ColRawMaterial)),
		Production:     validation.ParseBool(row.Cell(models.ColProduction)),
		NCM:            row.Cell(models.ColNCM),
		CFOP:           row.Cell(models.ColCFOP),
		CST:            row.Cell(models.ColCST),
		Origin:         row.Cell(models.ColOrigin),
		ICMSRate:       validation.ParseDecimal(row.Cell(models.ColICMSRate)),
		PISRate:        validation.ParseDecimal(row.Cell(models.ColPISRate)),
		COFINSRate:     validation.ParseDecimal(row.Cell(models.ColCOFINSRate)),
		NetWeight:      validation.ParseDecimal(row.Cell(models.ColNetWeight)),
	}

	if barcode := row.Cell(models.ColBarcode); barcode != "" {
		product.Barcode = &barcode
	}
	if desc := row.Cell(models.ColDescription); desc != "" {
		product.Description = &desc
	}
	if cest := row.Cell(models.ColCEST); cest != "" {
		product.CEST = &cest
	}

	return product
}
