package model

// Source kinds accepted by the sync engine.
const (
	SourceUpload       = "upload"
	SourceRemoteFeed   = "feed"
	SourceFileTransfer = "ftp"
)

// SyncResult is the outcome of one sync invocation. It is returned to the
// caller and, when anything changed, broadcast to event subscribers.
type SyncResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	TotalInFeed int    `json:"totalInFeed"`
	Added       int64  `json:"added"`
	Updated     int64  `json:"updated"`
	Removed     int64  `json:"removed"`
}

// Changed reports whether the run touched any listings.
func (r SyncResult) Changed() bool {
	return r.Added+r.Updated+r.Removed > 0
}

// Failure builds a failed result with the given message.
func Failure(message string) SyncResult {
	return SyncResult{Success: false, Message: message}
}
