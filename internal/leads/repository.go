package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead submission storage. Submissions
// are append-only: there is no update or delete.
type Repository interface {
	Create(ctx context.Context, req *CreateSubmissionRequest) (*Submission, error)
	Count(ctx context.Context) (int64, error)
}

// InMemoryRepository keeps submissions in process memory. Used for local
// development without DATABASE_URL and in tests.
type InMemoryRepository struct {
	mu          sync.RWMutex
	submissions []*Submission
	now         func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: time.Now}
}

// Create stores a validated submission and assigns its id and timestamp.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateSubmissionRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub := &Submission{
		ID:          uuid.New().String(),
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		ServiceType: req.ServiceType,
		Location:    req.Location,
		Message:     req.Message,
		Status:      StatusNew,
		SubmittedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.submissions = append(r.submissions, sub)
	r.mu.Unlock()

	return sub, nil
}

// Count returns the number of stored submissions.
func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.submissions)), nil
}

// All returns a copy of every stored submission in insertion order.
func (r *InMemoryRepository) All() []Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Submission, len(r.submissions))
	for i, s := range r.submissions {
		out[i] = *s
	}
	return out
}
