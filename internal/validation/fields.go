package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"product-import-service/internal/models"
)

// CellError is the outcome of a single cell check. A nil *CellError means
// the cell passed. Validators are pure: no I/O, no shared state.
type CellError struct {
	Kind    models.ErrorKind
	Message string
}

func errOf(kind models.ErrorKind, format string, args ...interface{}) *CellError {
	return &CellError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	digitsOnlyRe   = regexp.MustCompile(`^\d+$`)
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
	denylistedRe   = regexp.MustCompile("[!@#$%^&*()={}\\[\\]<>;:\"'`~?|\\\\/]")
	decimalValueRe = regexp.MustCompile(`^\d+([.,]\d+)?$`)
)

// booleanTokens maps every accepted loosely-typed boolean spelling to its
// value. Matching is case-insensitive; anything else is a format error.
var booleanTokens = map[string]bool{
	"true": true, "false": false,
	"1": true, "0": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"sim": true, "nao": false, "não": false,
	"s": true,
}

const maxTextLen = 255

// RequiredText checks a mandatory free-text cell: non-empty after trim,
// at most 255 characters.
func RequiredText(value string) *CellError {
	v := strings.TrimSpace(value)
	if v == "" {
		return errOf(models.ErrorKindMissingRequired, "required field is empty")
	}
	if len(v) > maxTextLen {
		return errOf(models.ErrorKindBadLength, "text exceeds %d characters", maxTextLen)
	}
	return nil
}

// OptionalText checks a free-text cell that may be empty but must still
// respect the length cap when present.
func OptionalText(value string) *CellError {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	if len(v) > maxTextLen {
		return errOf(models.ErrorKindBadLength, "text exceeds %d characters", maxTextLen)
	}
	return nil
}

// Numeric checks a non-negative decimal with comma or dot separator.
// An empty cell is an error unless optional is true.
func Numeric(value string, optional bool) *CellError {
	v := strings.TrimSpace(value)
	if v == "" {
		if optional {
			return nil
		}
		return errOf(models.ErrorKindMissingRequired, "required numeric field is empty")
	}
	if !decimalValueRe.MatchString(v) {
		return errOf(models.ErrorKindBadFormat, "must be a non-negative number (comma or dot separator)")
	}
	return nil
}

// RequiredNumericAllowZero is Numeric for a mandatory field where an
// explicit zero is valid (e.g. a default price of 0,00).
func RequiredNumericAllowZero(value string) *CellError {
	return Numeric(value, false)
}

// IntegerCode checks a digits-only code without punctuation.
func IntegerCode(value string, optional bool) *CellError {
	v := strings.TrimSpace(value)
	if v == "" {
		if optional {
			return nil
		}
		return errOf(models.ErrorKindMissingRequired, "required code is empty")
	}
	if !digitsOnlyRe.MatchString(v) {
		return errOf(models.ErrorKindBadFormat, "must contain digits only, no special characters")
	}
	return nil
}

// FixedLengthCode checks a code of exactly n digits.
func FixedLengthCode(value string, n int, optional bool) *CellError {
	v := strings.TrimSpace(value)
	if v == "" {
		if optional {
			return nil
		}
		return errOf(models.ErrorKindMissingRequired, "required code is empty")
	}
	if !digitsOnlyRe.MatchString(v) {
		return errOf(models.ErrorKindBadFormat, "must contain digits only, no special characters")
	}
	if len(v) != n {
		return errOf(models.ErrorKindBadLength, "must be exactly %d digits", n)
	}
	return nil
}

// OriginCode checks the single-digit merchandise origin code, 0 through 8.
func OriginCode(value string) *CellError {
	v := strings.TrimSpace(value)
	if cellErr := FixedLengthCode(v, 1, false); cellErr != nil {
		return cellErr
	}
	if v[0] > '8' {
		return errOf(models.ErrorKindInvalidValue, "origin must be a digit between 0 and 8")
	}
	return nil
}

// BooleanLike checks a cell against the fixed boolean token table.
func BooleanLike(value string, optional bool) *CellError {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		if optional {
			return nil
		}
		return errOf(models.ErrorKindMissingRequired, "required boolean field is empty")
	}
	if _, ok := booleanTokens[v]; !ok {
		return errOf(models.ErrorKindBadFormat, "must be one of: sim/nao, true/false, 1/0, yes/no")
	}
	return nil
}

// UnitOfMeasure checks a 2-character unit against the tenant's registered
// set. An empty registered set is treated permissively: any 2-character
// value is accepted.
func UnitOfMeasure(value string, registered map[string]struct{}) *CellError {
	v := strings.TrimSpace(value)
	if v == "" {
		return errOf(models.ErrorKindMissingRequired, "unit of measure is required")
	}
	if len(v) != 2 {
		return errOf(models.ErrorKindBadLength, "unit of measure must be exactly 2 characters")
	}
	if len(registered) == 0 {
		return nil
	}
	if _, ok := registered[strings.ToUpper(v)]; !ok {
		units := make([]string, 0, len(registered))
		for u := range registered {
			units = append(units, u)
		}
		return errOf(models.ErrorKindInvalidValue,
			"unit of measure is not registered for this tenant (registered: %s)", strings.Join(units, ", "))
	}
	return nil
}

// ConstrainedText checks a mandatory text cell that additionally rejects
// leading/trailing whitespace, repeated internal whitespace and a denylist
// of punctuation characters. Each violation names the offending characters.
func ConstrainedText(value string) *CellError {
	if value == "" || strings.TrimSpace(value) == "" {
		return errOf(models.ErrorKindMissingRequired, "required field is empty")
	}
	if value != strings.TrimSpace(value) {
		return errOf(models.ErrorKindBadFormat, "must not start or end with whitespace")
	}
	if len(value) > maxTextLen {
		return errOf(models.ErrorKindBadLength, "text exceeds %d characters", maxTextLen)
	}
	if multiSpaceRe.MatchString(value) {
		return errOf(models.ErrorKindBadFormat, "must not contain repeated whitespace")
	}
	if bad := denylistedRe.FindAllString(value, -1); len(bad) > 0 {
		return errOf(models.ErrorKindBadFormat, "contains disallowed characters: %s", strings.Join(dedupe(bad), " "))
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ParseDecimal parses a non-negative decimal that may use a comma as the
// separator. Callers validate with Numeric first; a parse failure here
// yields zero.
func ParseDecimal(value string) float64 {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseBool maps a boolean-like token to its value; unknown tokens and
// empty cells yield false.
func ParseBool(value string) bool {
	v, ok := booleanTokens[strings.ToLower(strings.TrimSpace(value))]
	return ok && v
}
