package domain

import "time"

// Complaint statuses. The lifecycle starts at pending; managers move
// complaints forward during triage.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Complaint is a citizen-filed report. doc_type is a constant partition
// attribute so the full collection can be listed in index order.
type Complaint struct {
	ComplaintID string     `json:"id" dynamodbav:"complaint_id"`
	DocType     string     `json:"-" dynamodbav:"doc_type"` // always "complaint"
	Title       string     `json:"title" dynamodbav:"title"`
	Description string     `json:"description" dynamodbav:"description"`
	Location    string     `json:"location" dynamodbav:"location"`
	Status      string     `json:"status" dynamodbav:"status"`
	UserID      string     `json:"userId" dynamodbav:"user_id"`
	Category    string     `json:"category" dynamodbav:"category"`
	Priority    string     `json:"priority" dynamodbav:"priority"`
	AssignedTo  *string    `json:"assignedTo" dynamodbav:"assigned_to"`
	Comments    []Comment  `json:"comments" dynamodbav:"comments"`
	Evidence    *Evidence  `json:"evidenceData,omitempty" dynamodbav:"evidence"`
	CreatedAt   time.Time  `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" dynamodbav:"updated_at"`
}

// Comment is an append-only entry on a complaint.
type Comment struct {
	Content   string    `json:"content" dynamodbav:"content"`
	UserID    string    `json:"userId" dynamodbav:"user_id"`
	UserName  string    `json:"userName" dynamodbav:"user_name"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// Evidence describes an uploaded attachment. The payload itself lives in the
// object store under Object; the document keeps metadata only.
type Evidence struct {
	Object      string `json:"object" dynamodbav:"object"`
	ContentType string `json:"contentType" dynamodbav:"content_type"`
	Filename    string `json:"filename" dynamodbav:"filename"`
	Size        int64  `json:"size" dynamodbav:"size"`
}

// CreateComplaintRequest carries the multipart form fields of a new complaint.
type CreateComplaintRequest struct {
	Title       string `validate:"required,min=5,max=100"`
	Description string `validate:"required,min=10,max=1000"`
	Location    string `validate:"required"`
	Category    string
	Priority    string
}

// UpdateComplaintRequest is a partial update; nil fields are left untouched.
type UpdateComplaintRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=5,max=100"`
	Description *string `json:"description" validate:"omitempty,min=10,max=1000"`
	Location    *string `json:"location" validate:"omitempty,min=1"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	AssignedTo  *string `json:"assignedTo"`
}

// AddCommentRequest appends a comment to a complaint.
type AddCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// ComplaintQuery selects, orders and pages the complaint collection.
// Page numbering is 1-based and emulated over cursors.
type ComplaintQuery struct {
	Status    string // equality filter, empty = all
	OwnerID   string // equality filter, empty = all
	Page      int
	PageSize  int
	SortField string // created_at | updated_at
	SortOrder string // asc | desc
}

// Pagination is the page envelope returned with every listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalComplaints"`
	HasMore     bool `json:"hasMore"`
}
