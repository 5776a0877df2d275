package analyses

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/bryanwahyu/wafr-accelerator/internal/application"
	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

const (
	minDescriptionLen = 3
	minReviewOwnerLen = 3
	defaultPageSize   = 100
)

// Service implements the submission pipeline and record browsing.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	Records  domain.RecordStore
	Objects  domain.ObjectStore
	Queue    domain.WorkQueue
	Registry domain.WorkloadRegistry
	Bucket   string
	Clock    application.Clock
	Logger   *slog.Logger

	// NewID overrides analysis id generation in tests.
	NewID func() domain.AnalysisID
}

// Document is the uploaded file attached to a submission.
type Document struct {
	Name        string
	ContentType string
	Content     []byte
}

// SubmitCommand carries the already-validated form fields of a submission.
type SubmitCommand struct {
	Title        string
	Description  string
	ReviewOwner  string
	Lens         string
	Environment  string
	IndustryType string
	ReviewType   string
	Pillars      []string
}

type SubmitResult struct {
	AnalysisID domain.AnalysisID `json:"analysis_id"`
	MessageID  string            `json:"message_id"`
}

// Submit validates the command, rejects duplicate titles, stores the
// document, enqueues the work item and finally writes the record. A record is
// only written after both the upload and the enqueue succeeded.
func (s *Service) Submit(ctx context.Context, sess Session, cmd SubmitCommand, doc Document) (SubmitResult, error) {
	if err := s.checkPreconditions(ctx, cmd, doc); err != nil {
		return SubmitResult{}, err
	}

	submitter := sess.Submitter()
	rec := &domain.AnalysisRecord{
		ID:              s.newID(),
		Title:           cmd.Title,
		Submitter:       submitter,
		Owner:           submitter,
		ReviewOwner:     cmd.ReviewOwner,
		Description:     cmd.Description,
		Lens:            cmd.Lens,
		LensARN:         domain.LensARN(cmd.Lens),
		Environment:     cmd.Environment,
		IndustryType:    cmd.IndustryType,
		ReviewType:      reviewType(cmd.ReviewType),
		SelectedPillars: uniquePillars(cmd.Pillars),
		Status:          domain.StatusSubmitted,
	}

	key := DocumentKey(submitter, rec.ID, doc.Name)
	ref, err := s.Objects.Put(ctx, s.Bucket, key, doc.Content, doc.ContentType)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %w", domain.ErrUpload, err)
	}
	rec.Document = ref

	payload, err := json.Marshal(domain.NewWorkItem(rec))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: encode work item: %w", domain.ErrStartAnalysis, err)
	}
	msgID, err := s.Queue.Send(ctx, payload)
	if err != nil {
		s.logger().WarnContext(ctx, "enqueue failed, document left without record",
			"analysis_id", rec.ID, "bucket", ref.Bucket, "key", ref.Key, "error", err)
		return SubmitResult{}, fmt.Errorf("%w: enqueue: %w", domain.ErrStartAnalysis, err)
	}

	rec.CreatedAt = s.now()
	if err := s.Records.PutItem(ctx, rec); err != nil {
		s.logger().ErrorContext(ctx, "record write failed after enqueue",
			"analysis_id", rec.ID, "message_id", msgID, "error", err)
		return SubmitResult{}, fmt.Errorf("%w: write record: %w", domain.ErrStartAnalysis, err)
	}

	s.logger().InfoContext(ctx, "analysis submitted",
		"analysis_id", rec.ID,
		"title", rec.Title,
		"submitter", submitter,
		"document", ref.Key,
		"document_size", humanize.Bytes(uint64(len(doc.Content))),
		"message_id", msgID,
	)

	return SubmitResult{AnalysisID: rec.ID, MessageID: msgID}, nil
}

// checkPreconditions runs the checks in order; the first failure wins.
func (s *Service) checkPreconditions(ctx context.Context, cmd SubmitCommand, doc Document) error {
	switch {
	case cmd.Title == "":
		return domain.ErrTitleRequired
	case utf8.RuneCountInString(cmd.Description) < minDescriptionLen:
		return domain.ErrDescriptionTooShort
	case utf8.RuneCountInString(cmd.ReviewOwner) < minReviewOwnerLen:
		return domain.ErrReviewOwnerTooShort
	case len(cmd.Pillars) == 0:
		return domain.ErrNoPillars
	case len(doc.Content) == 0:
		return domain.ErrNoDocument
	}
	if err := checkLengths(cmd, doc); err != nil {
		return err
	}

	taken, err := s.TitleTaken(ctx, cmd.Title)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateTitle
	}

	exists, err := s.WorkloadExists(ctx, cmd.Title)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateWorkload
	}
	return nil
}

// checkLengths rejects values the record store cannot hold. It runs before
// anything is uploaded or enqueued.
func checkLengths(cmd SubmitCommand, doc Document) error {
	switch {
	case utf8.RuneCountInString(cmd.Title) > domain.MaxTitleLen:
		return domain.ErrTitleTooLong
	case utf8.RuneCountInString(cmd.Description) > domain.MaxDescriptionLen:
		return domain.ErrDescriptionTooLong
	case utf8.RuneCountInString(cmd.ReviewOwner) > domain.MaxReviewOwnerLen:
		return domain.ErrReviewOwnerTooLong
	case utf8.RuneCountInString(cmd.ReviewType) > domain.MaxReviewTypeLen:
		return domain.ErrReviewTypeTooLong
	case utf8.RuneCountInString(filepath.Base(doc.Name)) > domain.MaxDocumentNameLen:
		return domain.ErrDocumentNameTooLong
	}
	return nil
}

// List returns every record, following page cursors until exhausted.
func (s *Service) List(ctx context.Context) ([]*domain.AnalysisRecord, error) {
	var (
		out   []*domain.AnalysisRecord
		after domain.AnalysisID
	)
	for {
		page, next, err := s.Records.Page(ctx, after, defaultPageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: list analyses: %w", domain.ErrDependency, err)
		}
		out = append(out, page...)
		if next == "" {
			return out, nil
		}
		after = next
	}
}

// Get ambil 1 analysis by id
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.AnalysisRecord, error) {
	return s.Records.Get(ctx, id)
}

// DocumentKey is the object key of an uploaded document. It is derived only
// from submitter, analysis id and the original file name.
func DocumentKey(submitter string, id domain.AnalysisID, filename string) string {
	return path.Join(submitter, "analyses", string(id), filepath.Base(filename))
}

func (s *Service) newID() domain.AnalysisID {
	if s.NewID != nil {
		return s.NewID()
	}
	return domain.AnalysisID(uuid.New().String())
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func reviewType(t string) string {
	if strings.TrimSpace(t) == "" {
		return domain.ReviewTypeQuick
	}
	return t
}

// uniquePillars drops repeated pillars, keeping first-seen order.
func uniquePillars(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
