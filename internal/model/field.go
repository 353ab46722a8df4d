package model

// Field is a canonical attribute name of a diamond listing. External feeds
// carry arbitrary column names; a supplier's Mapping projects those onto
// these fields.
type Field string

const (
	FieldStockID           Field = "stockId"
	FieldCarat             Field = "carat"
	FieldShape             Field = "shape"
	FieldColor             Field = "color"
	FieldClarity           Field = "clarity"
	FieldCut               Field = "cut"
	FieldPolish            Field = "polish"
	FieldSymmetry          Field = "symmetry"
	FieldFluorescence      Field = "fluorescence"
	FieldLab               Field = "lab"
	FieldCertificateNumber Field = "certificateNumber"
	FieldLength            Field = "length"
	FieldWidth             Field = "width"
	FieldHeight            Field = "height"
	FieldPricePerCarat     Field = "pricePerCarat"
	FieldPrice             Field = "price"
	FieldDepthPercent      Field = "depthPercent"
	FieldTablePercent      Field = "tablePercent"
	FieldGirdlePercent     Field = "girdlePercent"
	FieldCrownHeight       Field = "crownHeight"
	FieldCrownAngle        Field = "crownAngle"
	FieldPavilionDepth     Field = "pavilionDepth"
	FieldPavilionAngle     Field = "pavilionAngle"
	FieldAvailability      Field = "availability"
	FieldImageLink         Field = "imageLink"
	FieldVideoLink         Field = "videoLink"
	FieldCertificateLink   Field = "certificateLink"
)

// numericFields are coerced with the tolerant float parser; everything else
// is stored as a trimmed string.
var numericFields = map[Field]bool{
	FieldCarat:         true,
	FieldLength:        true,
	FieldWidth:         true,
	FieldHeight:        true,
	FieldPricePerCarat: true,
	FieldPrice:         true,
	FieldDepthPercent:  true,
	FieldTablePercent:  true,
	FieldGirdlePercent: true,
	FieldCrownHeight:   true,
	FieldCrownAngle:    true,
	FieldPavilionDepth: true,
	FieldPavilionAngle: true,
}

// IsNumeric reports whether the field is declared numeric.
func (f Field) IsNumeric() bool {
	return numericFields[f]
}

var allFields = []Field{
	FieldStockID, FieldCarat, FieldShape, FieldColor, FieldClarity,
	FieldCut, FieldPolish, FieldSymmetry, FieldFluorescence, FieldLab,
	FieldCertificateNumber, FieldLength, FieldWidth, FieldHeight,
	FieldPricePerCarat, FieldPrice, FieldDepthPercent, FieldTablePercent,
	FieldGirdlePercent, FieldCrownHeight, FieldCrownAngle,
	FieldPavilionDepth, FieldPavilionAngle, FieldAvailability,
	FieldImageLink, FieldVideoLink, FieldCertificateLink,
}

var fieldByName = func() map[string]Field {
	m := make(map[string]Field, len(allFields))
	for _, f := range allFields {
		m[string(f)] = f
	}
	return m
}()

// ParseField resolves a canonical field by name.
func ParseField(name string) (Field, bool) {
	f, ok := fieldByName[name]
	return f, ok
}

// Mapping declares, per supplier, which source column feeds each canonical
// field. An empty value or the sentinel "none" means the field is unmapped.
type Mapping map[Field]string

// Record is one canonical listing after normalization, mapping and coercion.
// Values are string for text fields and float64 for numeric fields; a field
// that failed coercion is absent, never zero.
type Record map[Field]interface{}

// StockID returns the record's stock identifier, if present.
func (r Record) StockID() string {
	if v, ok := r[FieldStockID].(string); ok {
		return v
	}
	return ""
}

// HasCarat reports whether the record carries a coerced weight.
func (r Record) HasCarat() bool {
	_, ok := r[FieldCarat].(float64)
	return ok
}

// Availability returns the record's feed-declared availability, if any.
func (r Record) Availability() string {
	if v, ok := r[FieldAvailability].(string); ok {
		return v
	}
	return ""
}
