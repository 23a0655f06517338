package complaint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/complaints-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockComplaintStore struct{ mock.Mock }

func (m *mockComplaintStore) Put(ctx context.Context, c *domain.Complaint) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockComplaintStore) Get(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Complaint), args.Error(1)
}

func (m *mockComplaintStore) Update(ctx context.Context, complaintID string, updates map[string]interface{}) error {
	return m.Called(ctx, complaintID, updates).Error(0)
}

func (m *mockComplaintStore) Delete(ctx context.Context, complaintID string) error {
	return m.Called(ctx, complaintID).Error(0)
}

func (m *mockComplaintStore) AppendComment(ctx context.Context, complaintID string, c domain.Comment) error {
	return m.Called(ctx, complaintID, c).Error(0)
}

func (m *mockComplaintStore) QueryPage(ctx context.Context, q domain.ComplaintQuery, limit int32, cursor string) ([]domain.Complaint, string, error) {
	args := m.Called(ctx, q, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]domain.Complaint), args.String(1), args.Error(2)
}

func (m *mockComplaintStore) Count(ctx context.Context, q domain.ComplaintQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

type mockActivityStore struct{ mock.Mock }

func (m *mockActivityStore) Put(ctx context.Context, l *domain.ActivityLog) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockActivityStore) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

type mockEvidenceStore struct{ mock.Mock }

func (m *mockEvidenceStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *mockEvidenceStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockEvidenceStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func newTestService(complaints *mockComplaintStore, activity *mockActivityStore, evidence *mockEvidenceStore) Service {
	return NewService(ServiceDeps{
		ComplaintRepo: complaints,
		ActivityRepo:  activity,
		EvidenceStore: evidence,
	})
}

var (
	citizen = &domain.Profile{UserID: "u1", FirstName: "Jane", LastName: "Doe", Role: domain.RoleUser}
	triager = &domain.Profile{UserID: "m1", FirstName: "Max", LastName: "Lead", Role: domain.RoleManager}
)

func TestCreate_Defaults(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	svc := newTestService(complaints, activity, new(mockEvidenceStore))

	complaints.On("Put", mock.Anything, mock.MatchedBy(func(c *domain.Complaint) bool {
		return c.Status == domain.StatusPending &&
			c.Category == "general" &&
			c.Priority == "medium" &&
			c.UserID == "u1" &&
			c.Comments != nil &&
			c.ComplaintID != ""
	})).Return(nil)
	activity.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.ActivityLog) bool {
		return l.Action == domain.ActionCreate && l.UserID == "u1"
	})).Return(nil)

	c, err := svc.Create(context.Background(), citizen, domain.CreateComplaintRequest{
		Title:       "<h1>Broken streetlight</h1>",
		Description: "The light on 5th and Main has been out for a week.",
		Location:    "5th and Main",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Broken streetlight", c.Title)
	activity.AssertExpectations(t)
}

func TestCreate_WithEvidence(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	evidence := new(mockEvidenceStore)
	svc := newTestService(complaints, activity, evidence)

	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)

	evidence.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > 0
	}), png, "image/png").Return(nil)
	complaints.On("Put", mock.Anything, mock.Anything).Return(nil)
	activity.On("Put", mock.Anything, mock.Anything).Return(nil)

	c, err := svc.Create(context.Background(), citizen, domain.CreateComplaintRequest{
		Title:       "Pothole on Elm Street",
		Description: "Deep pothole damaging car wheels near number 42.",
		Location:    "Elm Street 42",
	}, &EvidenceUpload{Data: png, Filename: "photo 1.png", ContentType: "image/png"})
	require.NoError(t, err)
	require.NotNil(t, c.Evidence)
	assert.Equal(t, "image/png", c.Evidence.ContentType)
	assert.Equal(t, "photo 1.png", c.Evidence.Filename)
	assert.Equal(t, int64(len(png)), c.Evidence.Size)
	evidence.AssertExpectations(t)
}

func TestCreate_RejectsSpoofedEvidence(t *testing.T) {
	complaints := new(mockComplaintStore)
	evidence := new(mockEvidenceStore)
	svc := newTestService(complaints, new(mockActivityStore), evidence)

	// PE executable header declared as an image.
	exe := append([]byte{0x4D, 0x5A, 0x90, 0x00}, make([]byte, 64)...)

	_, err := svc.Create(context.Background(), citizen, domain.CreateComplaintRequest{
		Title:       "Pothole on Elm Street",
		Description: "Deep pothole damaging car wheels near number 42.",
		Location:    "Elm Street 42",
	}, &EvidenceUpload{Data: exe, Filename: "photo.png", ContentType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	evidence.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	complaints.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_AuditFailureDoesNotFailRequest(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	svc := newTestService(complaints, activity, new(mockEvidenceStore))

	complaints.On("Put", mock.Anything, mock.Anything).Return(nil)
	activity.On("Put", mock.Anything, mock.Anything).Return(errors.New("table throttled"))

	_, err := svc.Create(context.Background(), citizen, domain.CreateComplaintRequest{
		Title:       "Pothole on Elm Street",
		Description: "Deep pothole damaging car wheels near number 42.",
		Location:    "Elm Street 42",
	}, nil)
	assert.NoError(t, err)
}

func TestUpdate_OwnerMismatch(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "someone-else"}, nil)

	_, err := svc.Update(context.Background(), citizen, "c1", domain.UpdateComplaintRequest{
		Title: strPtr("A different title"),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	complaints.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_ManagerNotOwnerForbidden(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	stored := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Status: domain.StatusPending}
	complaints.On("Get", mock.Anything, "c1").Return(stored, nil)

	// Roles never widen write access: a manager mutates only their own filings.
	_, err := svc.Update(context.Background(), triager, "c1", domain.UpdateComplaintRequest{
		Status:     strPtr(domain.StatusInProgress),
		AssignedTo: strPtr("m1"),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	complaints.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_OwnerSetsStatus(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	svc := newTestService(complaints, activity, new(mockEvidenceStore))

	stored := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Status: domain.StatusPending}
	complaints.On("Get", mock.Anything, "c1").Return(stored, nil)
	complaints.On("Update", mock.Anything, "c1", map[string]interface{}{
		"status": domain.StatusResolved,
	}).Return(nil)
	activity.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.ActivityLog) bool {
		return l.Action == domain.ActionUpdate && l.UserID == "u1"
	})).Return(nil)

	_, err := svc.Update(context.Background(), citizen, "c1", domain.UpdateComplaintRequest{
		Status: strPtr(domain.StatusResolved),
	})
	require.NoError(t, err)
	complaints.AssertExpectations(t)
}

func TestUpdate_UnknownStatus(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "u1"}, nil)

	_, err := svc.Update(context.Background(), citizen, "c1", domain.UpdateComplaintRequest{
		Status: strPtr("escalated"),
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_NoFields(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "u1"}, nil)

	_, err := svc.Update(context.Background(), citizen, "c1", domain.UpdateComplaintRequest{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestDelete(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	evidence := new(mockEvidenceStore)
	svc := newTestService(complaints, activity, evidence)

	stored := &domain.Complaint{
		ComplaintID: "c1",
		UserID:      "u1",
		Title:       "Pothole on Elm Street",
		Evidence:    &domain.Evidence{Object: "evidence/u1/c1-photo.png"},
	}
	complaints.On("Get", mock.Anything, "c1").Return(stored, nil)
	activity.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.ActivityLog) bool {
		return l.Action == domain.ActionDelete
	})).Return(nil)
	complaints.On("Delete", mock.Anything, "c1").Return(nil)
	evidence.On("Delete", mock.Anything, "evidence/u1/c1-photo.png").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), citizen, "c1"))
	complaints.AssertExpectations(t)
	activity.AssertExpectations(t)
	evidence.AssertExpectations(t)
}

func TestDelete_ManagerNotOwnerForbidden(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	svc := newTestService(complaints, activity, new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "u1"}, nil)

	err := svc.Delete(context.Background(), triager, "c1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	complaints.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	activity.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestDelete_NotFound(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	err := svc.Delete(context.Background(), citizen, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "other"}, nil)
	complaints.On("AppendComment", mock.Anything, "c1", mock.MatchedBy(func(c domain.Comment) bool {
		return c.Content == "Any progress on this?" && c.UserID == "u1" && c.UserName == "Jane Doe"
	})).Return(nil)

	comment, err := svc.AddComment(context.Background(), citizen, "c1", "<i>Any progress on this?</i>")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", comment.UserName)
	complaints.AssertExpectations(t)
}

func TestActivity_OwnerMismatch(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	svc := newTestService(complaints, activity, new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "other"}, nil)

	_, err := svc.Activity(context.Background(), citizen, "c1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	activity.AssertNotCalled(t, "ListByComplaint", mock.Anything, mock.Anything)
}

func TestActivity_ManagerSeesAnyComplaint(t *testing.T) {
	complaints := new(mockComplaintStore)
	activity := new(mockActivityStore)
	svc := newTestService(complaints, activity, new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "u1"}, nil)
	activity.On("ListByComplaint", mock.Anything, "c1").Return([]domain.ActivityLog{}, nil)

	_, err := svc.Activity(context.Background(), triager, "c1")
	require.NoError(t, err)
	activity.AssertExpectations(t)
}

func TestEvidenceURL_NoEvidence(t *testing.T) {
	complaints := new(mockComplaintStore)
	svc := newTestService(complaints, new(mockActivityStore), new(mockEvidenceStore))

	complaints.On("Get", mock.Anything, "c1").Return(&domain.Complaint{ComplaintID: "c1", UserID: "u1"}, nil)

	_, err := svc.EvidenceURL(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// pagedStore serves QueryPage/Count from a fixed slice; cursors are indexes.
type pagedStore struct {
	mockComplaintStore
	items []domain.Complaint
}

func (f *pagedStore) Count(ctx context.Context, q domain.ComplaintQuery) (int, error) {
	return len(f.items), nil
}

func (f *pagedStore) QueryPage(ctx context.Context, q domain.ComplaintQuery, limit int32, cursor string) ([]domain.Complaint, string, error) {
	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, "", err
		}
	}
	end := start + int(limit)
	if end > len(f.items) {
		end = len(f.items)
	}
	next := ""
	if end < len(f.items) {
		next = strconv.Itoa(end)
	}
	return f.items[start:end], next, nil
}

func newPagedStore(n int) *pagedStore {
	items := make([]domain.Complaint, n)
	for i := range items {
		items[i] = domain.Complaint{ComplaintID: fmt.Sprintf("c%03d", i)}
	}
	return &pagedStore{items: items}
}

func TestList_FirstPage(t *testing.T) {
	store := newPagedStore(25)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	out, err := svc.List(context.Background(), domain.ComplaintQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, out.Items, 10)
	assert.Equal(t, "c000", out.Items[0].ComplaintID)
	assert.Equal(t, domain.Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 25, HasMore: true}, out.Pagination)
}

func TestList_LastPageIsShort(t *testing.T) {
	store := newPagedStore(25)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	out, err := svc.List(context.Background(), domain.ComplaintQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, out.Items, 5)
	assert.Equal(t, "c020", out.Items[0].ComplaintID)
	assert.False(t, out.Pagination.HasMore)
}

func TestList_PageBeyondEnd(t *testing.T) {
	store := newPagedStore(25)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	_, err := svc.List(context.Background(), domain.ComplaintQuery{Page: 4, PageSize: 10})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestList_EmptyCollection(t *testing.T) {
	store := newPagedStore(0)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	out, err := svc.List(context.Background(), domain.ComplaintQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, domain.Pagination{CurrentPage: 1, TotalPages: 0, TotalItems: 0, HasMore: false}, out.Pagination)
}

func TestList_DefaultsApplied(t *testing.T) {
	store := newPagedStore(5)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	out, err := svc.List(context.Background(), domain.ComplaintQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pagination.CurrentPage)
	assert.Len(t, out.Items, 5)
}

func TestList_RejectsUnknownSortField(t *testing.T) {
	store := newPagedStore(5)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	_, err := svc.List(context.Background(), domain.ComplaintQuery{SortField: "title"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	store := newPagedStore(5)
	svc := NewService(ServiceDeps{ComplaintRepo: store, ActivityRepo: new(mockActivityStore), EvidenceStore: new(mockEvidenceStore)})

	_, err := svc.List(context.Background(), domain.ComplaintQuery{Status: "escalated"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func strPtr(s string) *string { return &s }
