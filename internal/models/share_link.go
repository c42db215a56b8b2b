package models

// ShareLink maps an opaque bearer token to a patient. Anyone holding the
// token may read that patient's entire record set. The token is the primary
// key and is generated from crypto/rand, never from the UUID hook.
// No expiry or revocation is modelled.
type ShareLink struct {
	BaseModel
	PatientID string `gorm:"size:36;index;not null" json:"patientId"`

	Patient User `gorm:"foreignKey:PatientID" json:"-"`
}
