package surgery

import (
	"context"

	"github.com/google/uuid"
)

type RecordRepository interface {
	Create(ctx context.Context, r *SurgeryRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*SurgeryRecord, error)
	Update(ctx context.Context, r *SurgeryRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*SurgeryRecord, int, error)
	// Procedures
	AddProcedure(ctx context.Context, p *SurgeryProcedure) error
	GetProcedures(ctx context.Context, surgeryID uuid.UUID) ([]*SurgeryProcedure, error)
	RemoveProcedure(ctx context.Context, surgeryID, id uuid.UUID) error
}
