package server

import (
	"net/http"

	"github.com/apitienda/store-api/token"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken              string `json:"access_token"`
	RefreshToken             string `json:"refresh_token"`
	AccessTokenExpiresInMins int    `json:"access_token_expires_in_minutes"`
	RefreshTokenExpiresDays  int    `json:"refresh_token_expires_in_days"`
}

func (s *Server) tokenResponseFromPair(pair *token.Pair) tokenResponse {
	return tokenResponse{
		AccessToken:              pair.AccessToken,
		RefreshToken:             pair.RefreshToken,
		AccessTokenExpiresInMins: pair.AccessExpiryMinutes,
		RefreshTokenExpiresDays:  s.config.GetRefreshTokenExpiryDays(),
	}
}

// LoginHandler exchanges email/password credentials for a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, "bad_request", "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSONError(w, "bad_request", "Email and password are required", http.StatusBadRequest)
			return
		}

		pair, err := s.sessions.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, s.tokenResponseFromPair(pair))
	}
}

// RefreshHandler exchanges a live refresh token for a fresh token pair,
// revoking the presented token in the process.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSONBody(r, &req); err != nil || req.RefreshToken == "" {
			writeJSONError(w, "bad_request", "A refresh_token is required", http.StatusBadRequest)
			return
		}

		pair, err := s.sessions.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, s.tokenResponseFromPair(pair))
	}
}

// LogoutHandler revokes the presented refresh token, ending the session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSONBody(r, &req); err != nil || req.RefreshToken == "" {
			writeJSONError(w, "bad_request", "A refresh_token is required", http.StatusBadRequest)
			return
		}

		if err := s.sessions.Logout(r.Context(), req.RefreshToken); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

// RequestPasswordResetHandler generates a reset token for the account and
// mails a reset link to its address.
func (s *Server) RequestPasswordResetHandler() http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSONBody(r, &req); err != nil || req.Email == "" {
			writeJSONError(w, "bad_request", "An email address is required", http.StatusBadRequest)
			return
		}

		if err := s.sessions.RequestPasswordReset(r.Context(), req.Email); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
	}
}

// ResetPasswordHandler consumes a reset token and stores the new password.
func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	type request struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSONBody(r, &req); err != nil || req.Token == "" || req.NewPassword == "" {
			writeJSONError(w, "bad_request", "A token and new_password are required", http.StatusBadRequest)
			return
		}

		if err := s.sessions.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
	}
}
