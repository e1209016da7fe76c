package draft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/sequenceit/proposaldesk/pkg/proposal"
)

// LocalFile is the JSON file a user downloads to keep a draft on disk.
type LocalFile struct {
	Title     string            `json:"title"`
	Timestamp time.Time         `json:"timestamp"`
	Data      proposal.Document `json:"data"`
}

func NewLocalFile(doc proposal.Document, now time.Time) LocalFile {
	return LocalFile{Title: doc.Title(), Timestamp: now.UTC(), Data: doc}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// FileName suggests a file name such as draft_2026-10-16_Tour_Guide_Website.json.
func (f LocalFile) FileName() string {
	return fmt.Sprintf("draft_%s_%s.json", f.Timestamp.Format(time.DateOnly), unsafeFileChars.ReplaceAllString(f.Title, "_"))
}

func (f LocalFile) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// ReadLocalFile reads a saved draft file. A bare proposal document without the
// file envelope is accepted as well.
func ReadLocalFile(r io.Reader) (LocalFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LocalFile{}, fmt.Errorf("failed to read draft file: %w", err)
	}

	var envelope struct {
		Title     string          `json:"title"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return LocalFile{}, fmt.Errorf("invalid draft file: %w", err)
		}
	}

	content := data
	if raw := bytes.TrimSpace(envelope.Data); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		content = envelope.Data
	}
	doc, err := proposal.Parse(content)
	if err != nil {
		return LocalFile{}, err
	}

	file := LocalFile{Title: envelope.Title, Data: doc}
	if file.Title == "" {
		file.Title = doc.Title()
	}
	if ts, err := time.Parse(time.RFC3339Nano, envelope.Timestamp); err == nil {
		file.Timestamp = ts
	}
	return file, nil
}
