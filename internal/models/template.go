package models

// Column positions of the fixed 23-column import sheet. The first sheet row
// is a header and is ignored; data rows map positionally to these indexes.
const (
	ColGroup = iota
	ColCode
	ColBarcode
	ColName
	ColUnit
	ColFractionalUnit
	ColCostPrice
	ColDefaultPrice
	ColDescription
	ColInitialStock
	ColAlcoholic
	ColPizza
	ColRawMaterial
	ColProduction
	ColNCM
	ColCFOP
	ColCST
	ColCEST
	ColOrigin
	ColICMSRate
	ColPISRate
	ColCOFINSRate
	ColNetWeight

	NumImportColumns = ColNetWeight + 1
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean, code
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ProductImportColumns returns the column definitions for product import,
// in sheet order. Column names follow the spreadsheet the back office
// already distributes (Portuguese headers).
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "grupo", Description: "Product group name - auto-creates if not exists", Required: true, Type: "string", Example: "Bebidas"},
		{Name: "codigo", Description: "Unique product code, digits only", Required: true, Type: "code", Example: "10034"},
		{Name: "codigo_barras", Description: "Barcode (EAN), digits only, optional", Required: false, Type: "code", Example: "7891000100103"},
		{Name: "nome", Description: "Product name", Required: true, Type: "string", Example: "Refrigerante Cola 2L"},
		{Name: "unidade", Description: "Unit of measure, exactly 2 characters (must be registered for the tenant)", Required: true, Type: "string", Example: "UN"},
		{Name: "unidade_fracionada", Description: "Fractional unit flag (sim/nao, true/false, 1/0)", Required: false, Type: "boolean", Example: "nao"},
		{Name: "preco_custo", Description: "Cost price", Required: false, Type: "number", Example: "4,50"},
		{Name: "preco_padrao", Description: "Default sale price, may be 0,00", Required: true, Type: "number", Example: "8,99"},
		{Name: "descricao", Description: "Free-text description, up to 255 characters", Required: false, Type: "string", Example: ""},
		{Name: "estoque_inicial", Description: "Initial stock quantity", Required: false, Type: "number", Example: "100"},
		{Name: "bebida_alcoolica", Description: "Alcoholic beverage flag", Required: false, Type: "boolean", Example: "nao"},
		{Name: "pizza", Description: "Pizza flag", Required: false, Type: "boolean", Example: "nao"},
		{Name: "materia_prima", Description: "Raw material flag", Required: false, Type: "boolean", Example: "nao"},
		{Name: "producao", Description: "Own production flag", Required: false, Type: "boolean", Example: "nao"},
		{Name: "ncm", Description: "NCM tax classification, exactly 8 digits", Required: true, Type: "code", Example: "22021000"},
		{Name: "cfop", Description: "Tax operation code, 5102 or 5405", Required: true, Type: "code", Example: "5102"},
		{Name: "cst_csosn", Description: "Tax situation code (CSOSN for simplified regime, CST for normal regime)", Required: true, Type: "code", Example: "102"},
		{Name: "cest", Description: "CEST code, exactly 7 digits (required when CFOP is 5405)", Required: false, Type: "code", Example: "0300700"},
		{Name: "origem", Description: "Merchandise origin, single digit 0-8", Required: true, Type: "code", Example: "0"},
		{Name: "aliquota_icms", Description: "ICMS rate percentage", Required: false, Type: "number", Example: "18"},
		{Name: "aliquota_pis", Description: "PIS rate percentage", Required: false, Type: "number", Example: "1,65"},
		{Name: "aliquota_cofins", Description: "COFINS rate percentage", Required: false, Type: "number", Example: "7,6"},
		{Name: "peso_liquido", Description: "Net weight in kg", Required: false, Type: "number", Example: "2,1"},
	}
}

// ProductImportTemplate returns the template definition for products,
// including one valid sample row per admissible CFOP to aid correction.
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
		SampleData: []map[string]string{
			{
				"grupo": "Bebidas", "codigo": "10034", "codigo_barras": "7891000100103",
				"nome": "Refrigerante Cola 2L", "unidade": "UN", "unidade_fracionada": "nao",
				"preco_custo": "4,50", "preco_padrao": "8,99", "descricao": "",
				"estoque_inicial": "100", "bebida_alcoolica": "nao", "pizza": "nao",
				"materia_prima": "nao", "producao": "nao", "ncm": "22021000",
				"cfop": "5102", "cst_csosn": "102", "cest": "", "origem": "0",
				"aliquota_icms": "18", "aliquota_pis": "1,65", "aliquota_cofins": "7,6",
				"peso_liquido": "2,1",
			},
			{
				"grupo": "Cervejas", "codigo": "10035", "codigo_barras": "7891149010059",
				"nome": "Cerveja Pilsen Lata 350ml", "unidade": "UN", "unidade_fracionada": "nao",
				"preco_custo": "2,80", "preco_padrao": "5,50", "descricao": "",
				"estoque_inicial": "240", "bebida_alcoolica": "sim", "pizza": "nao",
				"materia_prima": "nao", "producao": "nao", "ncm": "22030000",
				"cfop": "5405", "cst_csosn": "500", "cest": "0300700", "origem": "0",
				"aliquota_icms": "0", "aliquota_pis": "0", "aliquota_cofins": "0",
				"peso_liquido": "0,35",
			},
		},
	}
}

// ColumnName returns the sheet header for a column index
func ColumnName(idx int) string {
	cols := ProductImportColumns()
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx].Name
}
