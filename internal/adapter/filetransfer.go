package adapter

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"gemhub-inventory-api/internal/model"
)

// DefaultTransferTimeout bounds one file-transfer download.
const DefaultTransferTimeout = 5 * time.Minute

// FileTransferSource downloads one named file from an FTP server into
// memory. The connection is closed on every exit path.
type FileTransferSource struct {
	Info    model.FTPInfo
	Timeout time.Duration
}

// NewFileTransferSource builds a source for the given connection info.
func NewFileTransferSource(info model.FTPInfo, timeout time.Duration) *FileTransferSource {
	if timeout <= 0 {
		timeout = DefaultTransferTimeout
	}
	return &FileTransferSource{Info: info, Timeout: timeout}
}

func (s *FileTransferSource) Kind() string { return model.SourceFileTransfer }

func (s *FileTransferSource) Fetch(ctx context.Context) ([]byte, error) {
	if s.Info.Host == "" || s.Info.Path == "" {
		return nil, fmt.Errorf("file transfer requires host and path")
	}

	addr := s.Info.Host
	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, "21")
	}

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(s.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("ftp connect failed: %w", err)
	}
	defer conn.Quit()

	user := s.Info.User
	if user == "" {
		user = "anonymous"
	}
	if err := conn.Login(user, s.Info.Password); err != nil {
		return nil, fmt.Errorf("ftp login failed: %w", err)
	}

	resp, err := conn.Retr(s.Info.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp download failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read failed: %w", err)
	}
	return data, nil
}
