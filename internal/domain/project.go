package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project-specific validation errors
var (
	ErrProjectIDEmpty    = errors.New("project ID cannot be empty")
	ErrProjectOwnerEmpty = errors.New("project owner ID cannot be empty")
	ErrProjectNameEmpty  = errors.New("project name cannot be empty")
)

// Project groups tasks under a single owner. Like Task, only the fields
// the notification core needs are modeled here.
type Project struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a new Project owned by the given user.
// Returns an error if validation fails.
func NewProject(ownerID uuid.UUID, name string) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	return project, nil
}

// Validate checks if the Project has valid data.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return ErrProjectIDEmpty
	}

	if p.OwnerID == uuid.Nil {
		return ErrProjectOwnerEmpty
	}

	if strings.TrimSpace(p.Name) == "" {
		return ErrProjectNameEmpty
	}

	return nil
}
