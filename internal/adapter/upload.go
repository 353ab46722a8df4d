package adapter

import (
	"context"

	"gemhub-inventory-api/internal/model"
)

// UploadSource wraps an already-received in-memory file. No I/O happens
// here.
type UploadSource struct {
	Data []byte
}

func (s *UploadSource) Kind() string { return model.SourceUpload }

func (s *UploadSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.Data, nil
}
