package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medtips/medtips-api/internal/models"
)

type Claims struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// DoctorID parses the id claim back into an ObjectID.
func (c *Claims) DoctorID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.ID)
}

// TokenManager signs and verifies bearer tokens. The secret and lifetime
// come from the service configuration, not from ambient environment lookups.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Generate creates a signed token embedding the doctor's identity.
func (tm *TokenManager) Generate(doctor models.Doctor) (string, error) {
	claims := &Claims{
		ID:      doctor.ID.Hex(),
		Name:    doctor.Name,
		Email:   doctor.Email,
		IsAdmin: doctor.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate parses a token string and returns its claims if the signature
// and expiry check out.
func (tm *TokenManager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
