package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medtips/medtips-api/internal/middleware"
	"github.com/medtips/medtips-api/internal/utils"
)

// The handler tests run against a real MongoDB. Set MONGO_TEST_URI to enable
// them; each run uses a throwaway database that is dropped afterwards.
func setupTest(t *testing.T) (*gin.Engine, *mongo.Database) {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set; skipping handler integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("medtips_test_" + primitive.NewObjectID().Hex())
	_, err = db.Collection(DoctorsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	tokens, err := utils.NewTokenManager("handler-test-secret", time.Hour)
	require.NoError(t, err)

	h := NewHandler(db, tokens)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", h.RegisterDoctor)
	r.POST("/auth/login", h.Login)
	r.GET("/tips", h.GetAllTips)
	r.GET("/tips/:id", h.GetTipsDetail)
	r.GET("/doctors/:id", h.Profile)
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		api.POST("/tips", h.CreateTips)
		api.GET("/users", h.ListUsers)
		api.DELETE("/users", h.DeleteUser)
	}
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"name":            "Alice Doe",
		"email":           email,
		"password":        "secret1",
		"phone":           "+8801712345678",
		"licenceNo":       "L1",
		"degree":          "MBBS",
		"chamberLocation": "Dhaka",
	}
}

func uniqueEmail() string {
	return fmt.Sprintf("%s@x.com", primitive.NewObjectID().Hex())
}

func register(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody(email), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created.ID
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func promoteToAdmin(t *testing.T, db *mongo.Database, idHex string) {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(idHex)
	require.NoError(t, err)
	_, err = db.Collection(DoctorsCollection).UpdateOne(context.Background(),
		bson.M{"_id": id}, bson.M{"$set": bson.M{"isAdmin": true}})
	require.NoError(t, err)
}

func tipBody(title string) map[string]string {
	return map[string]string{
		"title": title,
		"desc":  strings.Repeat("d", 100),
	}
}

func TestRegisterStoresHashAndLoginSucceeds(t *testing.T) {
	r, db := setupTest(t)
	email := uniqueEmail()
	register(t, r, email)

	var stored struct {
		Password string `bson:"password"`
	}
	err := db.Collection(DoctorsCollection).FindOne(context.Background(),
		bson.M{"email": email}).Decode(&stored)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Password)

	login(t, r, email, "secret1")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	r, _ := setupTest(t)
	email := uniqueEmail()
	register(t, r, email)

	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody(email), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User already Exists")
}

func TestRegisterValidation(t *testing.T) {
	r, _ := setupTest(t)
	body := registerBody(uniqueEmail())
	body["name"] = "Ally"
	body["password"] = "short"

	w := doJSON(t, r, http.MethodPost, "/auth/register", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "username must be at least 5 characters long")
	assert.Contains(t, w.Body.String(), "password must be at least 6 characters long")
}

func TestLoginMissesAnswerNotFound(t *testing.T) {
	r, _ := setupTest(t)
	email := uniqueEmail()
	register(t, r, email)

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"email": email, "password": "wrong1",
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTipValidation(t *testing.T) {
	r, _ := setupTest(t)
	email := uniqueEmail()
	register(t, r, email)
	token := login(t, r, email, "secret1")

	w := doJSON(t, r, http.MethodPost, "/api/tips", tipBody(strings.Repeat("t", 9)), token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title needs to be at least 10 characters long")

	w = doJSON(t, r, http.MethodPost, "/api/tips", tipBody(strings.Repeat("t", 10)), token)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateTipRequiresAuth(t *testing.T) {
	r, _ := setupTest(t)
	w := doJSON(t, r, http.MethodPost, "/api/tips", tipBody("ten chars!"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTipAppearsInProfileWithProjectedAuthor(t *testing.T) {
	r, _ := setupTest(t)
	email := uniqueEmail()
	doctorID := register(t, r, email)
	token := login(t, r, email, "secret1")

	w := doJSON(t, r, http.MethodPost, "/api/tips", tipBody("a proper tip title"), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/doctors/"+doctorID, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Profile struct {
			ID     string                   `json:"id"`
			Tipses []map[string]interface{} `json:"tipses"`
		} `json:"profile"`
		Counts map[string]int64 `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, doctorID, resp.Profile.ID)
	require.Len(t, resp.Profile.Tipses, 1)
	assert.Equal(t, "a proper tip title", resp.Profile.Tipses[0]["title"])
	assert.Nil(t, resp.Counts)

	author, ok := resp.Profile.Tipses[0]["author"].(map[string]interface{})
	require.True(t, ok, "tip author should be expanded")
	assert.Equal(t, doctorID, author["id"])
	assert.NotContains(t, author, "password")
	assert.NotContains(t, author, "licenceNo")
}

func TestTipsListAndDetailProjectAuthor(t *testing.T) {
	r, _ := setupTest(t)
	email := uniqueEmail()
	register(t, r, email)
	token := login(t, r, email, "secret1")

	w := doJSON(t, r, http.MethodPost, "/api/tips", tipBody("a proper tip title"), token)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodGet, "/tips", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)

	w = doJSON(t, r, http.MethodGet, "/tips/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	author, ok := detail["author"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, author, "password")
	assert.NotContains(t, author, "licenceNo")
}

func TestTipDetailMissingAnswersNotFound(t *testing.T) {
	r, _ := setupTest(t)
	w := doJSON(t, r, http.MethodGet, "/tips/"+primitive.NewObjectID().Hex(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNonAdminGetsUnauthorized(t *testing.T) {
	r, _ := setupTest(t)
	email := uniqueEmail()
	targetID := register(t, r, email)
	token := login(t, r, email, "secret1")

	w := doJSON(t, r, http.MethodGet, "/api/users", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/users", map[string]string{"id": targetID}, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminListsOnlyNonAdmins(t *testing.T) {
	r, db := setupTest(t)
	adminEmail := uniqueEmail()
	adminID := register(t, r, adminEmail)
	promoteToAdmin(t, db, adminID)
	adminToken := login(t, r, adminEmail, "secret1")

	otherEmail := uniqueEmail()
	otherID := register(t, r, otherEmail)

	w := doJSON(t, r, http.MethodGet, "/api/users", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, otherID, users[0]["id"])
	assert.NotContains(t, users[0], "password")
}

func TestAdminProfileIncludesCounts(t *testing.T) {
	r, db := setupTest(t)
	adminEmail := uniqueEmail()
	adminID := register(t, r, adminEmail)
	promoteToAdmin(t, db, adminID)

	_, err := db.Collection(MedicinesCollection).InsertOne(context.Background(),
		bson.M{"name": "paracetamol"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/doctors/"+adminID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Counts map[string]int64 `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Counts["total users"])
	assert.Equal(t, int64(0), resp.Counts["total tips"])
	assert.Equal(t, int64(1), resp.Counts["total medicines"])
}

func TestDeleteUserCascadesToTips(t *testing.T) {
	r, db := setupTest(t)
	adminEmail := uniqueEmail()
	adminID := register(t, r, adminEmail)
	promoteToAdmin(t, db, adminID)
	adminToken := login(t, r, adminEmail, "secret1")

	targetEmail := uniqueEmail()
	targetID := register(t, r, targetEmail)
	targetToken := login(t, r, targetEmail, "secret1")

	w := doJSON(t, r, http.MethodPost, "/api/tips", tipBody("a proper tip title"), targetToken)
	require.Equal(t, http.StatusCreated, w.Code)
	var tip struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tip))

	w = doJSON(t, r, http.MethodDelete, "/api/users", map[string]string{"id": targetID}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Resp struct {
			DeletedCount int64 `json:"deletedCount"`
		} `json:"resp"`
		Tips struct {
			DeletedCount int64 `json:"deletedCount"`
		} `json:"tips"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Resp.DeletedCount)
	assert.Equal(t, int64(1), resp.Tips.DeletedCount)

	w = doJSON(t, r, http.MethodGet, "/tips/"+tip.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/doctors/"+targetID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
