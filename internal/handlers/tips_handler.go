package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medtips/medtips-api/internal/middleware"
	"github.com/medtips/medtips-api/internal/models"
	"github.com/medtips/medtips-api/internal/validation"
)

type CreateTipsRequest struct {
	Title string `json:"title" validate:"required,min=10"`
	Desc  string `json:"desc" validate:"required,min=100"`
}

// CreateTips publishes a tip for the authenticated caller. The author is
// always the verified token identity, never a body field.
func (h *Handler) CreateTips(c *gin.Context) {
	authorID, err := primitive.ObjectIDFromHex(c.GetString(middleware.CtxDoctorID))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	var req CreateTipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if errs := validation.Check("createTips", &req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	tip := models.Tips{
		ID:        primitive.NewObjectID(),
		Title:     req.Title,
		Desc:      req.Desc,
		Author:    authorID,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := h.DB.Collection(TipsesCollection).InsertOne(context.TODO(), tip); err != nil {
		log.Println("CreateTips: insert failed:", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	// Append to the author's back-reference list. $push keeps concurrent
	// creates from losing each other's appends; the tips collection stays
	// authoritative if this step fails after the insert above.
	_, err = h.DB.Collection(DoctorsCollection).UpdateOne(
		context.TODO(),
		bson.M{"_id": authorID},
		bson.M{"$push": bson.M{"tipses": tip.ID}},
	)
	if err != nil {
		log.Println("CreateTips: author update failed:", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, tip)
}

// GetAllTips lists every tip with its author resolved, minus the author's
// password and licence number.
func (h *Handler) GetAllTips(c *gin.Context) {
	cursor, err := h.DB.Collection(TipsesCollection).Find(context.TODO(), bson.M{})
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer cursor.Close(context.TODO())

	var tips []models.Tips
	if err := cursor.All(context.TODO(), &tips); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	authors, err := h.findAuthors(context.TODO(), tips)
	if err != nil {
		log.Println("GetAllTips: resolving authors failed:", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	expanded := make([]models.TipsWithAuthor, 0, len(tips))
	for _, t := range tips {
		expanded = append(expanded, t.WithAuthor(authors[t.Author]))
	}

	c.JSON(http.StatusOK, expanded)
}

// GetTipsDetail returns one tip with its author resolved.
func (h *Handler) GetTipsDetail(c *gin.Context) {
	tipID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var tip models.Tips
	if err := h.DB.Collection(TipsesCollection).FindOne(context.TODO(), bson.M{"_id": tipID}).Decode(&tip); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var author models.Doctor
	if err := h.DB.Collection(DoctorsCollection).FindOne(context.TODO(), bson.M{"_id": tip.Author}).Decode(&author); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, tip.WithAuthor(author.PublicAuthor()))
}

// deleteAllTipsOfAuthor removes every tip authored by the given doctor.
// Used by the admin delete-user flow.
func (h *Handler) deleteAllTipsOfAuthor(ctx context.Context, author primitive.ObjectID) (*mongo.DeleteResult, error) {
	return h.DB.Collection(TipsesCollection).DeleteMany(ctx, bson.M{"author": author})
}

// findTipsByIDs loads the tips named by a doctor's back-reference list.
func (h *Handler) findTipsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Tips, error) {
	if len(ids) == 0 {
		return []models.Tips{}, nil
	}

	cursor, err := h.DB.Collection(TipsesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tips []models.Tips
	if err := cursor.All(ctx, &tips); err != nil {
		return nil, err
	}
	return tips, nil
}

// findAuthors resolves the distinct authors of a tips slice into their
// embeddable views.
func (h *Handler) findAuthors(ctx context.Context, tips []models.Tips) (map[primitive.ObjectID]models.Author, error) {
	authors := make(map[primitive.ObjectID]models.Author)
	if len(tips) == 0 {
		return authors, nil
	}

	ids := make([]primitive.ObjectID, 0, len(tips))
	seen := make(map[primitive.ObjectID]bool)
	for _, t := range tips {
		if !seen[t.Author] {
			seen[t.Author] = true
			ids = append(ids, t.Author)
		}
	}

	cursor, err := h.DB.Collection(DoctorsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	for _, d := range doctors {
		authors[d.ID] = d.PublicAuthor()
	}
	return authors, nil
}
