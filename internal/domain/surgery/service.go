package surgery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/phone"
)

const dateLayout = "2006-01-02"

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true,
	StatusCancelled: true, StatusPostponed: true,
}

var validLateralities = map[string]bool{
	"left": true, "right": true, "bilateral": true,
}

// TxFunc runs fn inside one database transaction.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	records RecordRepository
	logger  zerolog.Logger
	now     func() time.Time
	inTx    TxFunc
}

type Option func(*Service)

// WithTransactions makes multi-step writes atomic.
func WithTransactions(tx TxFunc) Option {
	return func(s *Service) { s.inTx = tx }
}

func NewService(records RecordRepository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		records: records,
		logger:  logger.With().Str("component", "surgery").Logger(),
		now:     time.Now,
		inTx:    func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -- Surgery Record --

func (s *Service) Create(ctx context.Context, accountID uuid.UUID, in RecordInput) (*SurgeryRecord, error) {
	if accountID == uuid.Nil {
		return nil, apperr.Invalid("account_id", "is required")
	}
	r := &SurgeryRecord{AccountID: accountID}
	if err := s.apply(r, in); err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info().Str("surgery_id", r.ID.String()).Str("account_id", accountID.String()).Msg("surgery record created")
	return r, nil
}

// Get returns the record only when accountID owns it. Records of other
// accounts are reported as not found.
func (s *Service) Get(ctx context.Context, accountID, id uuid.UUID) (*SurgeryRecord, error) {
	r, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.AccountID != accountID {
		return nil, fmt.Errorf("surgery record: %w", apperr.ErrNotFound)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*SurgeryRecord, int, error) {
	return s.records.ListByAccount(ctx, accountID, limit, offset)
}

func (s *Service) Update(ctx context.Context, accountID, id uuid.UUID, in RecordInput) (*SurgeryRecord, error) {
	r, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(r, in); err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	if _, err := s.Get(ctx, accountID, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("surgery_id", id.String()).Msg("surgery record deleted")
	return nil
}

// apply validates in and copies it onto r.
func (s *Service) apply(r *SurgeryRecord, in RecordInput) error {
	display := strings.TrimSpace(in.ProcedureDisplay)
	if display == "" {
		return apperr.Invalid("procedure_display", "is required")
	}
	status := in.Status
	if status == "" {
		status = StatusScheduled
	}
	if !validStatuses[status] {
		return apperr.Invalid("status", "invalid status: %s", status)
	}
	if in.Laterality != nil && !validLateralities[*in.Laterality] {
		return apperr.Invalid("laterality", "invalid laterality: %s", *in.Laterality)
	}

	var scheduled *time.Time
	if v := strings.TrimSpace(in.ScheduledDate); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return apperr.Invalid("scheduled_date", "must be in the form YYYY-MM-DD")
		}
		scheduled = &d
	}
	if in.PerformedAt != nil && in.PerformedAt.After(s.now()) {
		return apperr.Invalid("performed_at", "cannot be in the future")
	}
	if status == StatusCompleted && in.PerformedAt == nil && scheduled == nil {
		return apperr.Invalid("performed_at", "is required for a completed surgery")
	}

	intl, country, err := facilityPhone(in.FacilityPhone)
	if err != nil {
		return err
	}

	r.ProcedureCode = in.ProcedureCode
	r.ProcedureDisplay = display
	r.Status = status
	r.ScheduledDate = scheduled
	r.PerformedAt = in.PerformedAt
	r.SurgeonName = in.SurgeonName
	r.FacilityName = in.FacilityName
	r.FacilityPhone, r.FacilityPhoneCountry = intl, country
	r.Laterality = in.Laterality
	r.Note = in.Note
	return nil
}

func facilityPhone(v *phone.Value) (international, country string, err error) {
	if v == nil || phone.Digits(v.National) == "" {
		return "", "", nil
	}
	c, ok := phone.Lookup(v.Country)
	if !ok {
		return "", "", apperr.Invalid("facility_phone.country", "must be a supported country code")
	}
	if !phone.IsComplete(c.Code, v.National) {
		return "", "", apperr.Invalid("facility_phone.national", "is not a complete %s number", c.Name)
	}
	return phone.Combine(c.Code, v.National), c.Code, nil
}

// -- Procedures --

func (s *Service) AddProcedure(ctx context.Context, accountID, surgeryID uuid.UUID, in ProcedureInput) (*SurgeryProcedure, error) {
	if _, err := s.Get(ctx, accountID, surgeryID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Code) == "" {
		return nil, apperr.Invalid("code", "is required")
	}
	if strings.TrimSpace(in.Display) == "" {
		return nil, apperr.Invalid("display", "is required")
	}
	if in.Sequence < 0 {
		return nil, apperr.Invalid("sequence", "cannot be negative")
	}
	p := &SurgeryProcedure{
		SurgeryID: surgeryID,
		Code:      strings.TrimSpace(in.Code),
		Display:   strings.TrimSpace(in.Display),
		BodySite:  in.BodySite,
		IsPrimary: in.IsPrimary,
		Sequence:  in.Sequence,
	}
	err := s.inTx(ctx, func(ctx context.Context) error {
		if p.Sequence == 0 {
			existing, err := s.records.GetProcedures(ctx, surgeryID)
			if err != nil {
				return err
			}
			for _, e := range existing {
				p.Sequence = max(p.Sequence, e.Sequence)
			}
			p.Sequence++
		}
		return s.records.AddProcedure(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListProcedures(ctx context.Context, accountID, surgeryID uuid.UUID) ([]*SurgeryProcedure, error) {
	if _, err := s.Get(ctx, accountID, surgeryID); err != nil {
		return nil, err
	}
	return s.records.GetProcedures(ctx, surgeryID)
}

func (s *Service) RemoveProcedure(ctx context.Context, accountID, surgeryID, id uuid.UUID) error {
	if _, err := s.Get(ctx, accountID, surgeryID); err != nil {
		return err
	}
	return s.records.RemoveProcedure(ctx, surgeryID, id)
}
