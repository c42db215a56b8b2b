package models

import "time"

// ConnectionStatus represents the state of a doctor-patient connection.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionApproved ConnectionStatus = "approved"
	ConnectionDenied   ConnectionStatus = "denied"
)

// IsValid reports whether the status is one of the known ledger states.
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionPending, ConnectionApproved, ConnectionDenied:
		return true
	}
	return false
}

// Connection is the consent relationship between one doctor and one patient.
// There is at most one row per pair (unique index on doctor_id + patient_id),
// so approval is a single-row state flip and both sides always read the same
// truth. A denied connection stays in place and is flipped back to pending
// when the doctor requests again.
type Connection struct {
	BaseModel
	DoctorID   string           `gorm:"size:36;not null;uniqueIndex:idx_connections_pair" json:"doctorId"`
	PatientID  string           `gorm:"size:36;not null;uniqueIndex:idx_connections_pair" json:"patientId"`
	Status     ConnectionStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ResolvedAt *time.Time       `json:"resolvedAt,omitempty"`

	// Relations (not always preloaded)
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
}
