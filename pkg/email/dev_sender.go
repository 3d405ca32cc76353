package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DevSender writes each message to a JSON file instead of sending it.
type DevSender struct {
	dir string
	now func() time.Time
}

func NewDevSender(dir string) *DevSender {
	if dir == "" {
		dir = os.TempDir()
	}
	return &DevSender{dir: dir, now: time.Now}
}

type devRecord struct {
	Message
	Timestamp time.Time `json:"timestamp"`
}

func (d *DevSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create output dir: %v", ErrFailedToSendEmail, err)
	}

	now := d.now()
	name := msg.Tag
	if name == "" {
		name = msg.Subject
	}
	path := filepath.Join(d.dir, fmt.Sprintf("%s_%s.json", now.Format("20060102_150405.000"), sanitizeFilename(name)))

	raw, err := json.MarshalIndent(devRecord{Message: msg, Timestamp: now}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrFailedToSendEmail, path, err)
	}
	return nil
}

// sanitizeFilename keeps ASCII letters, digits, '-', '_' and '.'; spaces become '_'.
func sanitizeFilename(s string) string {
	const maxLength = 80
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
		if b.Len() >= maxLength {
			break
		}
	}
	if b.Len() == 0 {
		return "email"
	}
	return b.String()
}
