package model

import "time"

// Availability states. Feeds may also declare other statuses (e.g. RESERVED)
// which are stored upper-cased as-is.
const (
	AvailabilityAvailable = "AVAILABLE"
	AvailabilitySold      = "SOLD"
	AvailabilityArchived  = "ARCHIVED"
)

// Diamond is one persisted inventory listing. (Owner, StockID) is unique.
type Diamond struct {
	ID                string    `json:"id" bson:"_id,omitempty"`
	Owner             string    `json:"owner" bson:"owner"`
	StockID           string    `json:"stockId" bson:"stockId"`
	Carat             float64   `json:"carat" bson:"carat"`
	Shape             string    `json:"shape,omitempty" bson:"shape,omitempty"`
	Color             string    `json:"color,omitempty" bson:"color,omitempty"`
	Clarity           string    `json:"clarity,omitempty" bson:"clarity,omitempty"`
	Cut               string    `json:"cut,omitempty" bson:"cut,omitempty"`
	Polish            string    `json:"polish,omitempty" bson:"polish,omitempty"`
	Symmetry          string    `json:"symmetry,omitempty" bson:"symmetry,omitempty"`
	Fluorescence      string    `json:"fluorescence,omitempty" bson:"fluorescence,omitempty"`
	Lab               string    `json:"lab,omitempty" bson:"lab,omitempty"`
	CertificateNumber string    `json:"certificateNumber,omitempty" bson:"certificateNumber,omitempty"`
	Length            float64   `json:"length,omitempty" bson:"length,omitempty"`
	Width             float64   `json:"width,omitempty" bson:"width,omitempty"`
	Height            float64   `json:"height,omitempty" bson:"height,omitempty"`
	PricePerCarat     float64   `json:"pricePerCarat,omitempty" bson:"pricePerCarat,omitempty"`
	Price             float64   `json:"price,omitempty" bson:"price,omitempty"`
	DepthPercent      float64   `json:"depthPercent,omitempty" bson:"depthPercent,omitempty"`
	TablePercent      float64   `json:"tablePercent,omitempty" bson:"tablePercent,omitempty"`
	GirdlePercent     float64   `json:"girdlePercent,omitempty" bson:"girdlePercent,omitempty"`
	CrownHeight       float64   `json:"crownHeight,omitempty" bson:"crownHeight,omitempty"`
	CrownAngle        float64   `json:"crownAngle,omitempty" bson:"crownAngle,omitempty"`
	PavilionDepth     float64   `json:"pavilionDepth,omitempty" bson:"pavilionDepth,omitempty"`
	PavilionAngle     float64   `json:"pavilionAngle,omitempty" bson:"pavilionAngle,omitempty"`
	Availability      string    `json:"availability" bson:"availability"`
	ImageLink         string    `json:"imageLink,omitempty" bson:"imageLink,omitempty"`
	VideoLink         string    `json:"videoLink,omitempty" bson:"videoLink,omitempty"`
	CertificateLink   string    `json:"certificateLink,omitempty" bson:"certificateLink,omitempty"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UpsertOp is one reconciliation write keyed by (owner, stock id).
// When Upsert is true the op sets all Fields and makes the listing AVAILABLE,
// inserting it if absent. Otherwise only Status is written onto an existing
// listing and missing listings are left alone.
type UpsertOp struct {
	StockID string
	Fields  Record
	Status  string
	Upsert  bool
}

// BulkResult reports the outcome of one unordered bulk upsert.
type BulkResult struct {
	Added   int64
	Updated int64
}
