package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/internal/utils"
	"github.com/apitienda/store-api/users"
)

const defaultPageSize = 50

type createUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateUserHandler registers a new customer account. The password is
// strength-checked and stored as a bcrypt hash; the role is always
// "customer" - admins are provisioned out of band.
func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, "bad_request", "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Username == "" {
			writeJSONError(w, "bad_request", "Email and username are required", http.StatusBadRequest)
			return
		}
		if err := users.ValidatePasswordStrength(req.Password); err != nil {
			writeServiceError(w, errors.Wrapf(errors.ErrWeakPassword, "[CreateUser] %v", err))
			return
		}

		_, err := s.users.GetByEmail(r.Context(), req.Email)
		switch {
		case err == nil:
			writeJSONError(w, "bad_request", "A user with that email already exists", http.StatusBadRequest)
			return
		case !errors.Is(err, errors.ErrNotFound):
			writeServiceError(w, err)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		user := &users.User{
			ID:           uuid.New(),
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         string(users.RoleCustomer),
			DateJoined:   time.Now().UTC(),
			Active:       true,
		}
		if err := s.users.Create(r.Context(), user); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeJSONError(w, "bad_request", "Invalid user id", http.StatusBadRequest)
			return
		}

		user, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := pagination(r)
		list, err := s.users.List(r.Context(), offset, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DeleteUserHandler soft-deletes a user. The record stays behind for the
// audit trail and can be restored later.
func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateUserState(w, r, true, func(user *users.User, now time.Time) error {
			if user.Deleted {
				return errors.Wrapf(errors.ErrBadRequest, "[DeleteUser] user already deleted")
			}
			user.Deleted = true
			user.DeletedAt = utils.Ptr(now)
			user.Active = false
			return nil
		})
	}
}

func (s *Server) RestoreUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateUserState(w, r, true, func(user *users.User, _ time.Time) error {
			if !user.Deleted {
				return errors.Wrapf(errors.ErrBadRequest, "[RestoreUser] user is not deleted")
			}
			user.Deleted = false
			user.DeletedAt = nil
			return nil
		})
	}
}

func (s *Server) ActivateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateUserState(w, r, false, func(user *users.User, _ time.Time) error {
			if user.Active {
				return errors.Wrapf(errors.ErrBadRequest, "[ActivateUser] user already active")
			}
			user.Active = true
			return nil
		})
	}
}

func (s *Server) DeactivateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateUserState(w, r, false, func(user *users.User, _ time.Time) error {
			if !user.Active {
				return errors.Wrapf(errors.ErrBadRequest, "[DeactivateUser] user already inactive")
			}
			user.Active = false
			return nil
		})
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateUserState(w, r, false, func(user *users.User, now time.Time) error {
			if user.EmailVerified {
				return errors.Wrapf(errors.ErrAlreadyVerified, "[VerifyEmail] email already verified")
			}
			user.EmailVerified = true
			user.EmailVerifiedAt = utils.Ptr(now)
			return nil
		})
	}
}

// updateUserState loads a user by path id, applies mutate, and persists the
// result. includeDeleted controls whether soft-deleted users can be loaded
// (restore needs them, the state toggles do not).
func (s *Server) updateUserState(w http.ResponseWriter, r *http.Request, includeDeleted bool, mutate func(*users.User, time.Time) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, "bad_request", "Invalid user id", http.StatusBadRequest)
		return
	}

	var user *users.User
	if includeDeleted {
		user, err = s.users.GetByIDIncludeDeleted(r.Context(), id)
	} else {
		user, err = s.users.GetByID(r.Context(), id)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := mutate(user, time.Now().UTC()); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.users.Update(r.Context(), user); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePasswordHandler lets an authenticated user rotate their own
// password. The path id must match the access token's subject.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeJSONError(w, "bad_request", "Invalid user id", http.StatusBadRequest)
			return
		}

		callerID, ok := r.Context().Value(ContextKeyUserID).(uuid.UUID)
		if !ok || callerID != id {
			writeJSONError(w, "forbidden", "Cannot change another user's password", http.StatusForbidden)
			return
		}

		var req changePasswordRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, "bad_request", "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.sessions.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
	}
}

func pagination(r *http.Request) (offset, limit int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return offset, limit
}
