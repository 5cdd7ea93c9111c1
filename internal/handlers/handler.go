package handlers

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medtips/medtips-api/internal/utils"
)

// Collection names in the backing database. The medicines collection is
// populated elsewhere; this service only counts its documents.
const (
	DoctorsCollection   = "doctors"
	TipsesCollection    = "tipses"
	MedicinesCollection = "medicines"
)

// Handler carries the shared dependencies of every endpoint.
type Handler struct {
	DB     *mongo.Database
	Tokens *utils.TokenManager
}

func NewHandler(db *mongo.Database, tokens *utils.TokenManager) *Handler {
	return &Handler{
		DB:     db,
		Tokens: tokens,
	}
}
