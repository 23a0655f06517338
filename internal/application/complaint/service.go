package complaint

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/complaints-api/internal/domain"
	"github.com/complaints-api/internal/infrastructure/sns"
	"github.com/complaints-api/internal/pkg/filecheck"
	"github.com/complaints-api/internal/pkg/id"
	"github.com/complaints-api/internal/pkg/sanitize"
)

// maxWalkBatch caps how many keys a single skip query asks for while walking
// to the requested page.
const maxWalkBatch = 500

// evidenceURLTTL bounds how long a generated evidence link stays valid.
const evidenceURLTTL = 15 * time.Minute

// EvidenceUpload carries a decoded multipart attachment into Create.
type EvidenceUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ListResult pairs a page of complaints with its pagination envelope.
type ListResult struct {
	Items      []domain.Complaint
	Pagination domain.Pagination
}

// Service implements the complaint lifecycle: filing, triage updates,
// comments, deletion and the audit trail.
type Service interface {
	Create(ctx context.Context, owner *domain.Profile, req domain.CreateComplaintRequest, ev *EvidenceUpload) (*domain.Complaint, error)
	Get(ctx context.Context, complaintID string) (*domain.Complaint, error)
	List(ctx context.Context, q domain.ComplaintQuery) (*ListResult, error)
	Update(ctx context.Context, caller *domain.Profile, complaintID string, req domain.UpdateComplaintRequest) (*domain.Complaint, error)
	Delete(ctx context.Context, caller *domain.Profile, complaintID string) error
	AddComment(ctx context.Context, caller *domain.Profile, complaintID, content string) (*domain.Comment, error)
	Activity(ctx context.Context, caller *domain.Profile, complaintID string) ([]domain.ActivityLog, error)
	EvidenceURL(ctx context.Context, complaintID string) (string, error)
}

type complaintStore interface {
	Put(ctx context.Context, c *domain.Complaint) error
	Get(ctx context.Context, complaintID string) (*domain.Complaint, error)
	Update(ctx context.Context, complaintID string, updates map[string]interface{}) error
	Delete(ctx context.Context, complaintID string) error
	AppendComment(ctx context.Context, complaintID string, c domain.Comment) error
	QueryPage(ctx context.Context, q domain.ComplaintQuery, limit int32, cursor string) ([]domain.Complaint, string, error)
	Count(ctx context.Context, q domain.ComplaintQuery) (int, error)
}

type activityStore interface {
	Put(ctx context.Context, l *domain.ActivityLog) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ActivityLog, error)
}

type evidenceStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	complaints complaintStore
	activity   activityStore
	evidence   evidenceStore
	events     sns.EventPublisher // optional
	logger     *slog.Logger
}

type ServiceDeps struct {
	ComplaintRepo complaintStore
	ActivityRepo  activityStore
	EvidenceStore evidenceStore
	Events        sns.EventPublisher
	Logger        *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		complaints: deps.ComplaintRepo,
		activity:   deps.ActivityRepo,
		evidence:   deps.EvidenceStore,
		events:     deps.Events,
		logger:     logger,
	}
}

func (s *service) Create(ctx context.Context, owner *domain.Profile, req domain.CreateComplaintRequest, ev *EvidenceUpload) (*domain.Complaint, error) {
	now := time.Now().UTC()
	c := &domain.Complaint{
		ComplaintID: id.New(),
		Title:       sanitize.StripTags(req.Title),
		Description: sanitize.StripTags(req.Description),
		Location:    sanitize.StripTags(req.Location),
		Status:      domain.StatusPending,
		UserID:      owner.UserID,
		Category:    req.Category,
		Priority:    req.Priority,
		Comments:    []domain.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Category == "" {
		c.Category = "general"
	}
	if c.Priority == "" {
		c.Priority = "medium"
	}

	if ev != nil {
		if err := filecheck.Verify(ev.Data, ev.ContentType); err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
		}
		key := fmt.Sprintf("evidence/%s/%s-%s", owner.UserID, c.ComplaintID, sanitizeFilename(ev.Filename))
		if err := s.evidence.Upload(ctx, key, ev.Data, ev.ContentType); err != nil {
			return nil, fmt.Errorf("store evidence: %w", domain.ErrUnavailable)
		}
		c.Evidence = &domain.Evidence{
			Object:      key,
			ContentType: ev.ContentType,
			Filename:    ev.Filename,
			Size:        int64(len(ev.Data)),
		}
	}

	if err := s.complaints.Put(ctx, c); err != nil {
		// Do not leave an orphaned object behind the failed document write.
		if c.Evidence != nil {
			if derr := s.evidence.Delete(ctx, c.Evidence.Object); derr != nil {
				s.logger.Warn("orphaned evidence object", "key", c.Evidence.Object, "error", derr)
			}
		}
		return nil, err
	}

	s.record(ctx, domain.ActionCreate, c.ComplaintID, owner.UserID, "complaint filed: "+c.Title)
	return c, nil
}

func (s *service) Get(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	return s.complaints.Get(ctx, complaintID)
}

// List pages through the collection. Page numbers are emulated over the
// store's cursors: reaching page N means walking past (N-1)*pageSize keys.
// Deep pages are linear in N.
func (s *service) List(ctx context.Context, q domain.ComplaintQuery) (*ListResult, error) {
	if err := normalizeQuery(&q); err != nil {
		return nil, err
	}

	total, err := s.complaints.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	totalPages := (total + q.PageSize - 1) / q.PageSize

	if total == 0 {
		if q.Page > 1 {
			return nil, fmt.Errorf("page %d out of range: %w", q.Page, domain.ErrBadRequest)
		}
		return &ListResult{
			Items:      []domain.Complaint{},
			Pagination: domain.Pagination{CurrentPage: 1, TotalPages: 0, TotalItems: 0, HasMore: false},
		}, nil
	}
	if q.Page > totalPages {
		return nil, fmt.Errorf("page %d out of range: %w", q.Page, domain.ErrBadRequest)
	}

	cursor := ""
	skip := (q.Page - 1) * q.PageSize
	for skip > 0 {
		batch := skip
		if batch > maxWalkBatch {
			batch = maxWalkBatch
		}
		items, next, err := s.complaints.QueryPage(ctx, q, int32(batch), cursor)
		if err != nil {
			return nil, err
		}
		skip -= len(items)
		cursor = next
		// The collection shrank under us since Count.
		if cursor == "" && skip > 0 {
			return nil, fmt.Errorf("page %d out of range: %w", q.Page, domain.ErrBadRequest)
		}
	}
	if q.Page > 1 && cursor == "" {
		return nil, fmt.Errorf("page %d out of range: %w", q.Page, domain.ErrBadRequest)
	}

	items, _, err := s.complaints.QueryPage(ctx, q, int32(q.PageSize), cursor)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items: items,
		Pagination: domain.Pagination{
			CurrentPage: q.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasMore:     q.Page < totalPages,
		},
	}, nil
}

func (s *service) Update(ctx context.Context, caller *domain.Profile, complaintID string, req domain.UpdateComplaintRequest) (*domain.Complaint, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	// Mutation stays with the owner; role never widens write access.
	if c.UserID != caller.UserID {
		return nil, fmt.Errorf("not the complaint owner: %w", domain.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = sanitize.StripTags(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = sanitize.StripTags(*req.Description)
	}
	if req.Location != nil {
		updates["location"] = sanitize.StripTags(*req.Location)
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrBadRequest)
		}
		updates["status"] = *req.Status
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}

	if err := s.complaints.Update(ctx, complaintID, updates); err != nil {
		return nil, err
	}
	s.record(ctx, domain.ActionUpdate, complaintID, caller.UserID, updateDetails(updates))

	return s.complaints.Get(ctx, complaintID)
}

func (s *service) Delete(ctx context.Context, caller *domain.Profile, complaintID string) error {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	if c.UserID != caller.UserID {
		return fmt.Errorf("not the complaint owner: %w", domain.ErrForbidden)
	}

	// The audit entry is written before the document disappears.
	s.record(ctx, domain.ActionDelete, complaintID, caller.UserID, "complaint deleted: "+c.Title)

	if err := s.complaints.Delete(ctx, complaintID); err != nil {
		return err
	}
	if c.Evidence != nil {
		if err := s.evidence.Delete(ctx, c.Evidence.Object); err != nil {
			s.logger.Warn("orphaned evidence object", "key", c.Evidence.Object, "error", err)
		}
	}
	return nil
}

func (s *service) AddComment(ctx context.Context, caller *domain.Profile, complaintID, content string) (*domain.Comment, error) {
	if _, err := s.complaints.Get(ctx, complaintID); err != nil {
		return nil, err
	}
	comment := domain.Comment{
		Content:   sanitize.StripTags(content),
		UserID:    caller.UserID,
		UserName:  caller.FullName(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.complaints.AppendComment(ctx, complaintID, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *service) Activity(ctx context.Context, caller *domain.Profile, complaintID string) ([]domain.ActivityLog, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if !canReview(caller, c) {
		return nil, fmt.Errorf("not the complaint owner: %w", domain.ErrForbidden)
	}
	return s.activity.ListByComplaint(ctx, complaintID)
}

func (s *service) EvidenceURL(ctx context.Context, complaintID string) (string, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return "", err
	}
	if c.Evidence == nil {
		return "", fmt.Errorf("complaint has no evidence: %w", domain.ErrNotFound)
	}
	url, err := s.evidence.PresignedURL(ctx, c.Evidence.Object, evidenceURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign evidence: %w", domain.ErrUnavailable)
	}
	return url, nil
}

// record appends the audit entry and publishes the lifecycle event. Both are
// best effort: a mutation never fails because its side channels did.
func (s *service) record(ctx context.Context, action, complaintID, userID, details string) {
	entry := &domain.ActivityLog{
		LogID:       id.New(),
		Action:      action,
		ComplaintID: complaintID,
		UserID:      userID,
		Details:     details,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.activity.Put(ctx, entry); err != nil {
		s.logger.Warn("activity log append failed", "action", action, "complaint_id", complaintID, "error", err)
	}
	if s.events != nil {
		ev := sns.ComplaintEvent{
			Action:      action,
			ComplaintID: complaintID,
			UserID:      userID,
			Details:     details,
			OccurredAt:  entry.Timestamp,
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Warn("event publish failed", "action", action, "complaint_id", complaintID, "error", err)
		}
	}
}

// canReview gates the read-only audit trail: managers and admins may inspect
// any complaint's history, citizens only their own.
func canReview(caller *domain.Profile, c *domain.Complaint) bool {
	if caller.Role == domain.RoleManager || caller.Role == domain.RoleAdmin {
		return true
	}
	return c.UserID == caller.UserID
}

func validStatus(s string) bool {
	switch s {
	case domain.StatusPending, domain.StatusInProgress, domain.StatusResolved, domain.StatusRejected:
		return true
	}
	return false
}

func normalizeQuery(q *domain.ComplaintQuery) error {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 10
	}
	if q.Page < 1 || q.PageSize < 1 || q.PageSize > 100 {
		return fmt.Errorf("invalid pagination parameters: %w", domain.ErrBadRequest)
	}
	if q.SortField == "" {
		q.SortField = "created_at"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	if q.SortField != "created_at" && q.SortField != "updated_at" {
		return fmt.Errorf("unsupported sort field %q: %w", q.SortField, domain.ErrBadRequest)
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		return fmt.Errorf("unsupported sort order %q: %w", q.SortOrder, domain.ErrBadRequest)
	}
	if q.Status != "" && !validStatus(q.Status) {
		return fmt.Errorf("unknown status %q: %w", q.Status, domain.ErrBadRequest)
	}
	return nil
}

func updateDetails(updates map[string]interface{}) string {
	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return "updated fields: " + strings.Join(fields, ", ")
}

// sanitizeFilename keeps object keys to a safe character set.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
