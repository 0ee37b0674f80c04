package portal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, a *Account) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
