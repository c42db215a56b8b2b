package models

import (
	"math"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// IsValid reports whether the role is one of the two account roles.
func (r Role) IsValid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User represents an account in the system. Patients additionally carry
// clinical vitals; the BMI column is always derived, never set directly.
type User struct {
	BaseModel
	Email     string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName string `gorm:"size:100" json:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName"`
	Role      Role   `gorm:"size:20;not null;index" json:"role"`

	// Clinical vitals (patient accounts only, all optional)
	WeightKg   *float64 `json:"weight,omitempty"`
	HeightCm   *float64 `json:"height,omitempty"`
	BMI        *float64 `json:"bmi,omitempty"`
	BloodGroup string   `gorm:"size:10" json:"bloodGroup,omitempty"`

	// Relations (not always preloaded)
	RefreshTokens      []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	HealthRecords      []HealthRecord `gorm:"foreignKey:PatientID" json:"-"`
	DoctorConnections  []Connection   `gorm:"foreignKey:DoctorID" json:"-"`
	PatientConnections []Connection   `gorm:"foreignKey:PatientID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Role       Role      `json:"role"`
	WeightKg   *float64  `json:"weight,omitempty"`
	HeightCm   *float64  `json:"height,omitempty"`
	BMI        *float64  `json:"bmi,omitempty"`
	BloodGroup string    `json:"bloodGroup,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// RecalculateBMI derives BMI from weight and height: weight / (height/100)^2,
// rounded to 2 decimals. Clears BMI when either input is missing.
func (u *User) RecalculateBMI() {
	if u.WeightKg == nil || u.HeightCm == nil || *u.HeightCm <= 0 {
		u.BMI = nil
		return
	}
	meters := *u.HeightCm / 100
	bmi := math.Round(*u.WeightKg/(meters*meters)*100) / 100
	u.BMI = &bmi
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		WeightKg:   u.WeightKg,
		HeightCm:   u.HeightCm,
		BMI:        u.BMI,
		BloodGroup: u.BloodGroup,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
