package export

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sequenceit/proposaldesk/internal/event_bus"
	"github.com/sequenceit/proposaldesk/internal/utils"
	"github.com/sequenceit/proposaldesk/pkg/draft"
	"github.com/sequenceit/proposaldesk/pkg/proposal"
	log "github.com/sirupsen/logrus"
)

type Format string

const (
	PDF   Format = "pdf"
	Excel Format = "xlsx"
	CSV   Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat defaults to PDF when s is empty.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return PDF, nil
	case "xlsx", "excel":
		return Excel, nil
	case "csv":
		return CSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case Excel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case CSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/pdf"
	}
}

func Render(f Format, data Data) ([]byte, error) {
	switch f {
	case PDF:
		return GeneratePDF(data)
	case Excel:
		return GenerateExcel(data)
	case CSV:
		return GenerateCSV(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// File is a rendered export ready to be sent as a download.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]`)

func fileName(data Data, f Format) string {
	return fmt.Sprintf("proposal_%s.%s", unsafeFileChars.ReplaceAllString(data.Title, "_"), f)
}

// Drafts is the part of the draft service an export needs.
type Drafts interface {
	Get(ctx context.Context, id string) (draft.Draft, error)
}

type Service interface {
	ExportDraft(ctx context.Context, draftId string, f Format) (File, error)
	ExportDocument(ctx context.Context, doc proposal.Document, f Format) (File, error)
}

type ServiceImpl struct {
	drafts   Drafts
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(drafts Drafts, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{drafts: drafts, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) ExportDraft(ctx context.Context, draftId string, f Format) (File, error) {
	d, err := s.drafts.Get(ctx, draftId)
	if err != nil {
		return File{}, err
	}
	return s.ExportDocument(ctx, d.Document, f)
}

func (s *ServiceImpl) ExportDocument(ctx context.Context, doc proposal.Document, f Format) (File, error) {
	data := Build(ctx, doc, s.clock.Now())
	content, err := Render(f, data)
	if err != nil {
		return File{}, err
	}

	if s.eventBus != nil {
		err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.DocumentExportedEvent, event_bus.DocumentExported{
			DocumentId: data.DocumentId,
			Format:     string(f),
		}))
		if err != nil {
			log.Warnf("failed to publish export event: %v", err)
		}
	}
	return File{Name: fileName(data, f), ContentType: f.ContentType(), Content: content}, nil
}
