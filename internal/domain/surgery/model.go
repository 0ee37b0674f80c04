package surgery

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/portal/internal/platform/phone"
)

// Record statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusPostponed = "postponed"
)

// SurgeryRecord maps to the surgery_record table. It belongs to one portal
// account and is only ever visible to that account.
type SurgeryRecord struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	AccountID            uuid.UUID  `db:"account_id" json:"account_id"`
	ProcedureCode        *string    `db:"procedure_code" json:"procedure_code,omitempty"`
	ProcedureDisplay     string     `db:"procedure_display" json:"procedure_display"`
	Status               string     `db:"status" json:"status"`
	ScheduledDate        *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	PerformedAt          *time.Time `db:"performed_at" json:"performed_at,omitempty"`
	SurgeonName          *string    `db:"surgeon_name" json:"surgeon_name,omitempty"`
	FacilityName         *string    `db:"facility_name" json:"facility_name,omitempty"`
	FacilityPhone        string     `db:"facility_phone" json:"facility_phone,omitempty"`
	FacilityPhoneCountry string     `db:"facility_phone_country" json:"facility_phone_country,omitempty"`
	Laterality           *string    `db:"laterality" json:"laterality,omitempty"`
	Note                 *string    `db:"note" json:"note,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// FacilityPhoneValue splits the stored facility phone back into its pair.
func (r *SurgeryRecord) FacilityPhoneValue() phone.Value {
	return phone.Split(r.FacilityPhone, phone.Trusted(r.FacilityPhoneCountry))
}

// SurgeryProcedure maps to the surgery_procedure table.
type SurgeryProcedure struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SurgeryID uuid.UUID `db:"surgery_id" json:"surgery_id"`
	Code      string    `db:"code" json:"code"`
	Display   string    `db:"display" json:"display"`
	BodySite  *string   `db:"body_site" json:"body_site,omitempty"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	Sequence  int       `db:"sequence" json:"sequence"`
}

// RecordInput is the body of create and update requests.
type RecordInput struct {
	ProcedureCode    *string      `json:"procedure_code" validate:"omitempty,max=64"`
	ProcedureDisplay string       `json:"procedure_display" validate:"required,max=255"`
	Status           string       `json:"status" validate:"omitempty,oneof=scheduled completed cancelled postponed"`
	ScheduledDate    string       `json:"scheduled_date" validate:"omitempty,datetime=2006-01-02"`
	PerformedAt      *time.Time   `json:"performed_at"`
	SurgeonName      *string      `json:"surgeon_name" validate:"omitempty,max=200"`
	FacilityName     *string      `json:"facility_name" validate:"omitempty,max=200"`
	FacilityPhone    *phone.Value `json:"facility_phone"`
	Laterality       *string      `json:"laterality" validate:"omitempty,oneof=left right bilateral"`
	Note             *string      `json:"note" validate:"omitempty,max=2000"`
}

type ProcedureInput struct {
	Code      string  `json:"code" validate:"required,max=64"`
	Display   string  `json:"display" validate:"required,max=255"`
	BodySite  *string `json:"body_site" validate:"omitempty,max=100"`
	IsPrimary bool    `json:"is_primary"`
	Sequence  int     `json:"sequence" validate:"min=0"`
}

// RecordView is a record as the API returns it.
type RecordView struct {
	*SurgeryRecord
	FacilityPhoneDisplay string              `json:"facility_phone_display,omitempty"`
	Procedures           []*SurgeryProcedure `json:"procedures,omitempty"`
}

func NewRecordView(r *SurgeryRecord, procs []*SurgeryProcedure) *RecordView {
	v := &RecordView{SurgeryRecord: r, Procedures: procs}
	if r.FacilityPhone != "" {
		v.FacilityPhoneDisplay = phone.Display(r.FacilityPhoneValue())
	}
	return v
}
