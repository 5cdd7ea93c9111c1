package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Doctor struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password" json:"-"` // Hide from JSON responses
	Phone           string               `bson:"phone" json:"phone"`
	ChamberLocation string               `bson:"chamberLocation" json:"chamberLocation"`
	LicenceNo       string               `bson:"licenceNo" json:"licenceNo"`
	Degree          string               `bson:"degree" json:"degree"`
	IsAdmin         bool                 `bson:"isAdmin" json:"isAdmin"`
	Tipses          []primitive.ObjectID `bson:"tipses" json:"tipses"`
}

// Author is the doctor view embedded in tips responses. Password and
// licence number are withheld.
type Author struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	ChamberLocation string             `json:"chamberLocation"`
	Degree          string             `json:"degree"`
	IsAdmin         bool               `json:"isAdmin"`
}

// PublicAuthor projects the doctor into its embeddable form.
func (d Doctor) PublicAuthor() Author {
	return Author{
		ID:              d.ID,
		Name:            d.Name,
		Email:           d.Email,
		Phone:           d.Phone,
		ChamberLocation: d.ChamberLocation,
		Degree:          d.Degree,
		IsAdmin:         d.IsAdmin,
	}
}

// DoctorProfile is the profile-fetch response body: the doctor without its
// password, with authored tips expanded in place of the id list.
type DoctorProfile struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	ChamberLocation string             `json:"chamberLocation"`
	LicenceNo       string             `json:"licenceNo"`
	Degree          string             `json:"degree"`
	IsAdmin         bool               `json:"isAdmin"`
	Tipses          []TipsWithAuthor   `json:"tipses"`
}

// Counts holds the aggregate totals shown to admins on their profile.
type Counts struct {
	TotalUsers     int64 `json:"total users"`
	TotalTips      int64 `json:"total tips"`
	TotalMedicines int64 `json:"total medicines"`
}

// DeleteResult reports how many documents a delete removed.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}
