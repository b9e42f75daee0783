package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// BirthDateLayout is the wire format of UserProfile.BirthDate
const BirthDateLayout = "2006-01-02"

// UserProfile is the public profile of a user (collection "users"), keyed by Firebase UID
type UserProfile struct {
	UID         string    `json:"uid" firestore:"uid" gorm:"primaryKey;size:128"`
	Email       string    `json:"email" firestore:"email" gorm:"size:255;index"`
	DisplayName string    `json:"displayName" firestore:"displayName"`
	Address     string    `json:"address,omitempty" firestore:"address,omitempty"`
	BirthDate   string    `json:"birthDate,omitempty" firestore:"birthDate,omitempty" gorm:"size:10"`
	Age         *int      `json:"age,omitempty" firestore:"age,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// TableName keeps the SQL table aligned with the document collection name
func (UserProfile) TableName() string { return "users" }

// UpdateProfileRequest holds the optional profile fields a user may edit
type UpdateProfileRequest struct {
	Address   string `json:"address" validate:"omitempty,max=255"`
	BirthDate string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

// AgeOn returns the age in whole years at now for a birth date in BirthDateLayout. The result
// is stored, not recomputed, so it goes stale as time passes.
func AgeOn(birthDate string, now time.Time) (int, error) {
	born, err := time.Parse(BirthDateLayout, birthDate)
	if err != nil {
		return 0, err
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, nil
}

// SessionRequest is the optional body of a session exchange. The Firebase ID token itself
// travels in the Authorization header.
type SessionRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=80"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}
