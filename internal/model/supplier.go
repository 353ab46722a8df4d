package model

import "time"

// Disposition is the configured rule for listings that disappeared from the
// latest feed.
type Disposition string

const (
	// DispositionArchive flips stale listings to ARCHIVED in place.
	DispositionArchive Disposition = "archive"
	// DispositionDelete removes stale listings entirely.
	DispositionDelete Disposition = "delete"
)

// Valid reports whether d is a recognized disposition.
func (d Disposition) Valid() bool {
	return d == DispositionArchive || d == DispositionDelete
}

// FTPInfo holds connection data for a file-transfer feed source.
type FTPInfo struct {
	Host     string `json:"host" bson:"host"`
	User     string `json:"user" bson:"user"`
	Password string `json:"password" bson:"password"`
	Path     string `json:"path" bson:"path"`
}

// SupplierConfig is the persisted per-owner sync configuration: the declared
// field mapping, the source locator, and the auto-sync state. It is written
// on each successful manual sync that asks for auto-sync and read by the
// scheduler.
type SupplierConfig struct {
	Owner          string      `json:"owner" bson:"_id"`
	Mapping        Mapping     `json:"mapping" bson:"mapping"`
	FeedURL        string      `json:"feedUrl,omitempty" bson:"feedUrl,omitempty"`
	FTP            *FTPInfo    `json:"ftp,omitempty" bson:"ftp,omitempty"`
	Disposition    Disposition `json:"disposition,omitempty" bson:"disposition,omitempty"`
	AutoSync       bool        `json:"autoSync" bson:"autoSync"`
	LastSyncAt     *time.Time  `json:"lastSyncAt,omitempty" bson:"lastSyncAt,omitempty"`
	LastSyncStatus string      `json:"lastSyncStatus,omitempty" bson:"lastSyncStatus,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// HasLocator reports whether the config names a usable feed source.
func (c *SupplierConfig) HasLocator() bool {
	if c.FeedURL != "" {
		return true
	}
	return c.FTP != nil && c.FTP.Host != "" && c.FTP.Path != ""
}
