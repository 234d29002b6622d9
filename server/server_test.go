package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/apitienda/store-api/auth"
	resetrepofake "github.com/apitienda/store-api/auth/reset/repofake"
	"github.com/apitienda/store-api/email/emailfake"
	"github.com/apitienda/store-api/internal/config"
	"github.com/apitienda/store-api/products"
	productrepofake "github.com/apitienda/store-api/products/repofake"
	"github.com/apitienda/store-api/server"
	"github.com/apitienda/store-api/token"
	ledgerrepofake "github.com/apitienda/store-api/token/ledger/repofake"
	"github.com/apitienda/store-api/users"
	userrepofake "github.com/apitienda/store-api/users/repofake"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "password123"
	testAdminEmail   = "admin@example.com"
)

type testServer struct {
	srv         *server.Server
	userRepo    *userrepofake.FakeUserRepo
	productRepo *productrepofake.FakeProductRepo
	mailer      *emailfake.FakeSender
	userID      uuid.UUID
	adminID     uuid.UUID
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	t.Setenv("JWT_KEY", "test-signing-key-1234")
	t.Setenv("ENV", "TEST")
	cfg := config.New()

	ts := &testServer{
		userRepo:    userrepofake.NewFakeUserRepo(),
		productRepo: productrepofake.NewFakeProductRepo(),
		mailer:      emailfake.NewFakeSender(),
		userID:      uuid.New(),
		adminID:     uuid.New(),
	}

	ts.createUser(t, ts.userID, testUserEmail, users.RoleCustomer)
	ts.createUser(t, ts.adminID, testAdminEmail, users.RoleAdmin)

	issuer := token.NewIssuer(cfg)
	sessions, err := auth.NewSessionService(
		auth.Repos{
			Users:  ts.userRepo,
			Ledger: ledgerrepofake.NewFakeLedgerRepo(),
			Resets: resetrepofake.NewFakeResetRepo(),
		},
		issuer,
		ts.mailer,
	)
	require.NoError(t, err)

	srv, err := server.New(cfg, sessions, issuer, ts.userRepo, ts.productRepo)
	require.NoError(t, err)
	ts.srv = srv

	return ts
}

func (ts *testServer) createUser(t *testing.T, id uuid.UUID, email string, role users.RoleType) {
	t.Helper()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	err = ts.userRepo.Create(context.Background(), &users.User{
		ID:            id,
		Email:         email,
		Username:      email,
		PasswordHash:  hash,
		Role:          string(role),
		DateJoined:    time.Now().UTC(),
		Active:        true,
		EmailVerified: true,
	})
	require.NoError(t, err)
}

// do sends a JSON request through the full middleware stack and decodes the
// JSON response into out (when out is non-nil).
func (ts *testServer) do(t *testing.T, method, path, bearer string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)

	if out != nil && rec.Code < http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

type tokenResponse struct {
	AccessToken              string `json:"access_token"`
	RefreshToken             string `json:"refresh_token"`
	AccessTokenExpiresInMins int    `json:"access_token_expires_in_minutes"`
	RefreshTokenExpiresDays  int    `json:"refresh_token_expires_in_days"`
}

func (ts *testServer) login(t *testing.T, email string) tokenResponse {
	t.Helper()

	var resp tokenResponse
	rec := ts.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": email, "password": testUserPassword}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("success", func(t *testing.T) {
		resp := ts.login(t, testUserEmail)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.Equal(t, 15, resp.AccessTokenExpiresInMins)
		require.Equal(t, 7, resp.RefreshTokenExpiresDays)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"email": testUserEmail, "password": "wrongpassword1"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"email": testUserEmail}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	session := ts.login(t, testUserEmail)

	t.Run("success", func(t *testing.T) {
		var resp tokenResponse
		rec := ts.do(t, http.MethodPost, "/api/auth/refresh", "",
			map[string]string{"refresh_token": session.RefreshToken}, &resp)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, resp.RefreshToken)
		require.NotEqual(t, session.RefreshToken, resp.RefreshToken)
	})

	t.Run("reused token is rejected", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/refresh", "",
			map[string]string{"refresh_token": session.RefreshToken}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/refresh", "",
			map[string]string{"refresh_token": "not-a-jwt"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	session := ts.login(t, testUserEmail)

	t.Run("success", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/logout", "",
			map[string]string{"refresh_token": session.RefreshToken}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("repeat logout", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/logout", "",
			map[string]string{"refresh_token": session.RefreshToken}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/logout", "",
			map[string]string{"refresh_token": "not-a-jwt"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/auth/request-password-reset", "",
		map[string]string{"email": testUserEmail}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.mailer.Sent(), 1)
	tokenStr := ts.mailer.Sent()[0].Token

	t.Run("unknown email", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/request-password-reset", "",
			map[string]string{"email": "nobody@example.com"}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("weak new password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/reset-password", "",
			map[string]string{"token": tokenStr, "new_password": "short1"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("redeem and login with new password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/reset-password", "",
			map[string]string{"token": tokenStr, "new_password": "newpassword1"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		loginRec := ts.do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"email": testUserEmail, "password": "newpassword1"}, nil)
		require.Equal(t, http.StatusOK, loginRec.Code)
	})

	t.Run("replayed token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/auth/reset-password", "",
			map[string]string{"token": tokenStr, "new_password": "anotherpassword1"}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.login(t, testAdminEmail)
	customer := ts.login(t, testUserEmail)

	var createdID uuid.UUID
	t.Run("create", func(t *testing.T) {
		var created users.User
		rec := ts.do(t, http.MethodPost, "/api/users/", "", map[string]string{
			"email":    "jane.doe@example.com",
			"username": "janedoe",
			"password": "password123",
		}, &created)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, string(users.RoleCustomer), created.Role)
		require.True(t, created.Active)
		createdID = created.ID
	})

	t.Run("create with weak password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/users/", "", map[string]string{
			"email":    "weak@example.com",
			"username": "weakpw",
			"password": "short",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "bad_request", body["error"])
	})

	t.Run("create duplicate email", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/users/", "", map[string]string{
			"email":    "jane.doe@example.com",
			"username": "janedoe2",
			"password": "password123",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get requires token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/users/"+createdID.String(), "", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("get with token", func(t *testing.T) {
		var got users.User
		rec := ts.do(t, http.MethodGet, "/api/users/"+createdID.String(), customer.AccessToken, nil, &got)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "jane.doe@example.com", got.Email)
	})

	t.Run("list is admin only", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/users/", customer.AccessToken, nil, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		var list []users.User
		rec = ts.do(t, http.MethodGet, "/api/users/", admin.AccessToken, nil, &list)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, list, 3)
	})

	t.Run("deactivate then activate", func(t *testing.T) {
		path := fmt.Sprintf("/api/users/%s/deactivate", createdID)
		rec := ts.do(t, http.MethodPatch, path, admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Deactivating twice is a no-op error
		rec = ts.do(t, http.MethodPatch, path, admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/users/%s/activate", createdID), admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("verify email twice fails", func(t *testing.T) {
		path := fmt.Sprintf("/api/users/%s/verify-email", createdID)
		rec := ts.do(t, http.MethodPost, path, admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodPost, path, admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("soft delete and restore", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/api/users/"+createdID.String(), admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// Gone from normal lookups
		rec = ts.do(t, http.MethodGet, "/api/users/"+createdID.String(), admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/users/%s/restore", createdID), admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodGet, "/api/users/"+createdID.String(), admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("change password is self only", func(t *testing.T) {
		body := map[string]string{
			"current_password": testUserPassword,
			"new_password":     "newpassword1",
			"confirm_password": "newpassword1",
		}

		rec := ts.do(t, http.MethodPost, fmt.Sprintf("/api/users/%s/change-password", ts.adminID), customer.AccessToken, body, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/users/%s/change-password", ts.userID), customer.AccessToken, body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

// erroringUserRepo fails every email lookup with a store-level error.
type erroringUserRepo struct {
	users.Repo
}

func (erroringUserRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestCreateUser_StoreFailureIsNotTreatedAsEmailFree(t *testing.T) {
	t.Setenv("JWT_KEY", "test-signing-key-1234")
	t.Setenv("ENV", "TEST")
	cfg := config.New()

	userRepo := erroringUserRepo{Repo: userrepofake.NewFakeUserRepo()}
	issuer := token.NewIssuer(cfg)
	sessions, err := auth.NewSessionService(
		auth.Repos{
			Users:  userRepo,
			Ledger: ledgerrepofake.NewFakeLedgerRepo(),
			Resets: resetrepofake.NewFakeResetRepo(),
		},
		issuer,
		emailfake.NewFakeSender(),
	)
	require.NoError(t, err)

	srv, err := server.New(cfg, sessions, issuer, userRepo, productrepofake.NewFakeProductRepo())
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"email":    "jane.doe@example.com",
		"username": "janedoe",
		"password": "password123",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/users/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	// A broken store must not let creation proceed as if the email were free
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProductEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.login(t, testAdminEmail)
	customer := ts.login(t, testUserEmail)

	var created products.Product
	t.Run("create is admin only", func(t *testing.T) {
		body := map[string]any{"name": "Espresso Machine", "text": "Pump driven", "price": 249.99}

		rec := ts.do(t, http.MethodPost, "/api/products/", "", body, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = ts.do(t, http.MethodPost, "/api/products/", customer.AccessToken, body, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = ts.do(t, http.MethodPost, "/api/products/", admin.AccessToken, body, &created)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "Espresso Machine", created.Name)
	})

	t.Run("get is public", func(t *testing.T) {
		var got products.Product
		rec := ts.do(t, http.MethodGet, "/api/products/"+created.ID.String(), "", nil, &got)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/products/"+uuid.NewString(), "", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("patch keeps absent fields", func(t *testing.T) {
		var updated products.Product
		rec := ts.do(t, http.MethodPatch, "/api/products/"+created.ID.String(), admin.AccessToken,
			map[string]any{"price": 199.99}, &updated)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 199.99, updated.Price)
		require.Equal(t, "Espresso Machine", updated.Name)
		require.Equal(t, "Pump driven", updated.Text)
	})

	t.Run("search", func(t *testing.T) {
		var list []products.Product
		rec := ts.do(t, http.MethodGet, "/api/products/search?q=Espresso", "", nil, &list)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, list, 1)

		rec = ts.do(t, http.MethodGet, "/api/products/search", "", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("price range", func(t *testing.T) {
		var list []products.Product
		rec := ts.do(t, http.MethodGet, "/api/products/price?min=100&max=300", "", nil, &list)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, list, 1)

		rec = ts.do(t, http.MethodGet, "/api/products/price?min=300&max=100", "", nil, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/api/products/"+created.ID.String(), admin.AccessToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodGet, "/api/products/"+created.ID.String(), "", nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
