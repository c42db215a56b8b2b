package models

import "time"

// RecordType represents the category of a health record
type RecordType string

const (
	RecordTypePrescription RecordType = "prescription"
	RecordTypeLabReport    RecordType = "lab_report"
	RecordTypeAllergy      RecordType = "allergy"
	RecordTypeNote         RecordType = "note"
)

// IsValid reports whether the record type is one of the four categories.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypePrescription, RecordTypeLabReport, RecordTypeAllergy, RecordTypeNote:
		return true
	}
	return false
}

// HealthRecord represents one clinical entry owned by a patient.
// Records are append-only: they are never updated or deleted once created.
type HealthRecord struct {
	BaseModel
	PatientID  string     `gorm:"size:36;index;not null" json:"patientId"`
	Type       RecordType `gorm:"size:30;not null" json:"type"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	RecordDate time.Time  `gorm:"not null;index" json:"date"`

	// Optional vitals snapshot taken at the time of the entry
	BloodPressure string `gorm:"size:20" json:"bloodPressure,omitempty"`
	PulseRate     *int   `json:"pulseRate,omitempty"`

	// Durable URL of a single uploaded attachment, if any
	AttachmentURL string `gorm:"size:512" json:"attachmentUrl,omitempty"`

	// Relations (not always preloaded)
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
}
