package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medtips/medtips-api/internal/middleware"
	"github.com/medtips/medtips-api/internal/models"
	"github.com/medtips/medtips-api/internal/utils"
	"github.com/medtips/medtips-api/internal/validation"
)

type RegisterDoctorRequest struct {
	Name            string `json:"name" validate:"required,min=5"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	Phone           string `json:"phone" validate:"required,e164"`
	LicenceNo       string `json:"licenceNo" validate:"required"`
	Degree          string `json:"degree" validate:"required"`
	ChamberLocation string `json:"chamberLocation"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginData is the identity payload returned alongside the token. It holds
// the same fields the token itself embeds.
type LoginData struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	IsAdmin bool               `json:"isAdmin"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	Data  LoginData `json:"data"`
}

type ProfileResponse struct {
	Profile models.DoctorProfile `json:"profile"`
	Counts  *models.Counts       `json:"counts,omitempty"`
}

type DeleteUserRequest struct {
	ID string `json:"id"`
}

type DeleteUserResponse struct {
	Resp models.DeleteResult `json:"resp"`
	Tips models.DeleteResult `json:"tips"`
}

// RegisterDoctor creates a new doctor account. The admin flag is never
// taken from the request.
func (h *Handler) RegisterDoctor(c *gin.Context) {
	var req RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := validation.Check("createDoctor", &req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Something Went Wrong"})
		return
	}

	doctor := models.Doctor{
		ID:              primitive.NewObjectID(),
		Name:            req.Name,
		Email:           validation.NormalizeEmail(req.Email),
		Password:        hashedPassword,
		Phone:           req.Phone,
		ChamberLocation: req.ChamberLocation,
		LicenceNo:       req.LicenceNo,
		Degree:          req.Degree,
		IsAdmin:         false,
		Tipses:          []primitive.ObjectID{},
	}

	collection := h.DB.Collection(DoctorsCollection)
	if _, err := collection.InsertOne(context.TODO(), doctor); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"msg": "User already Exists"})
			return
		}
		log.Println("RegisterDoctor: insert failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Something Went Wrong"})
		return
	}

	c.JSON(http.StatusCreated, doctor)
}

// Login verifies credentials and issues a signed token. An unknown email
// and a wrong password both answer 404 so a caller cannot tell which one
// failed.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if errs := validation.Check("checkDoctor", &req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	var doctor models.Doctor
	collection := h.DB.Collection(DoctorsCollection)
	err := collection.FindOne(context.TODO(), bson.M{"email": validation.NormalizeEmail(req.Email)}).Decode(&doctor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, doctor.Password) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	token, err := h.Tokens.Generate(doctor)
	if err != nil {
		log.Println("Login: token generation failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		Data: LoginData{
			ID:      doctor.ID,
			Name:    doctor.Name,
			Email:   doctor.Email,
			IsAdmin: doctor.IsAdmin,
		},
	})
}

// Profile returns a doctor with authored tips expanded. Admins additionally
// get the platform totals. Missing doctor and store errors both answer 404.
func (h *Handler) Profile(c *gin.Context) {
	doctorID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var doctor models.Doctor
	collection := h.DB.Collection(DoctorsCollection)
	if err := collection.FindOne(context.TODO(), bson.M{"_id": doctorID}).Decode(&doctor); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	tips, err := h.findTipsByIDs(context.TODO(), doctor.Tipses)
	if err != nil {
		log.Println("Profile: loading tips failed:", err)
		c.Status(http.StatusNotFound)
		return
	}

	author := doctor.PublicAuthor()
	expanded := make([]models.TipsWithAuthor, 0, len(tips))
	for _, t := range tips {
		expanded = append(expanded, t.WithAuthor(author))
	}

	resp := ProfileResponse{
		Profile: models.DoctorProfile{
			ID:              doctor.ID,
			Name:            doctor.Name,
			Email:           doctor.Email,
			Phone:           doctor.Phone,
			ChamberLocation: doctor.ChamberLocation,
			LicenceNo:       doctor.LicenceNo,
			Degree:          doctor.Degree,
			IsAdmin:         doctor.IsAdmin,
			Tipses:          expanded,
		},
	}

	if doctor.IsAdmin {
		counts, err := h.platformCounts(context.TODO())
		if err != nil {
			log.Println("Profile: counting failed:", err)
			c.Status(http.StatusNotFound)
			return
		}
		resp.Counts = counts
	}

	c.JSON(http.StatusOK, resp)
}

// ListUsers returns every non-admin doctor. Admin only.
func (h *Handler) ListUsers(c *gin.Context) {
	if !c.GetBool(middleware.CtxIsAdmin) {
		c.Status(http.StatusUnauthorized)
		return
	}

	collection := h.DB.Collection(DoctorsCollection)
	cursor, err := collection.Find(context.TODO(), bson.M{"isAdmin": false})
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer cursor.Close(context.TODO())

	var doctors []models.Doctor
	if err := cursor.All(context.TODO(), &doctors); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if doctors == nil {
		doctors = make([]models.Doctor, 0)
	}

	c.JSON(http.StatusOK, doctors)
}

// DeleteUser removes a doctor and every tip it authored. Admin only.
func (h *Handler) DeleteUser(c *gin.Context) {
	if !c.GetBool(middleware.CtxIsAdmin) {
		c.Status(http.StatusUnauthorized)
		return
	}

	var req DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	collection := h.DB.Collection(DoctorsCollection)

	var target models.Doctor
	if err := collection.FindOne(context.TODO(), bson.M{"_id": targetID}).Decode(&target); err != nil {
		if err == mongo.ErrNoDocuments {
			// Nothing to delete; report zero outcomes.
			c.JSON(http.StatusOK, DeleteUserResponse{})
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	// Tips go first so a failure never leaves tips pointing at a doctor
	// that no longer exists.
	tipsResult, err := h.deleteAllTipsOfAuthor(context.TODO(), targetID)
	if err != nil {
		log.Println("DeleteUser: deleting tips failed:", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	resp, err := collection.DeleteOne(context.TODO(), bson.M{"_id": targetID})
	if err != nil {
		log.Println("DeleteUser: deleting doctor failed:", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, DeleteUserResponse{
		Resp: models.DeleteResult{DeletedCount: resp.DeletedCount},
		Tips: models.DeleteResult{DeletedCount: tipsResult.DeletedCount},
	})
}

func (h *Handler) platformCounts(ctx context.Context) (*models.Counts, error) {
	totalUsers, err := h.DB.Collection(DoctorsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	totalTips, err := h.DB.Collection(TipsesCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	totalMedicines, err := h.DB.Collection(MedicinesCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return &models.Counts{
		TotalUsers:     totalUsers,
		TotalTips:      totalTips,
		TotalMedicines: totalMedicines,
	}, nil
}
