package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

type registerRequest struct {
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form payload"})
			return
		}
		req.Email = r.PostFormValue("email")
		req.DisplayName = r.PostFormValue("display_name")
		req.Password = r.PostFormValue("password")
		req.PasswordConfirm = r.PostFormValue("password_confirm")
	}

	cookieValue, err := s.auth.Register(r.Context(), req.Email, req.DisplayName, req.Password, req.PasswordConfirm)
	if err != nil {
		if isJSONRequest(r) {
			s.apiError(w, r, nil, err)
			return
		}
		setFlash(w, err.Error())
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	setSessionCookie(w, cookieValue)
	if isJSONRequest(r) {
		writeJSON(w, http.StatusCreated, struct {
			Redirect string `json:"redirect"`
		}{Redirect: "/login_spotify"})
		return
	}
	http.Redirect(w, r, "/login_spotify", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form payload"})
			return
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	}

	cookieValue, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if isJSONRequest(r) {
			s.apiError(w, r, nil, err)
			return
		}
		setFlash(w, err.Error())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	setSessionCookie(w, cookieValue)
	if isJSONRequest(r) {
		writeJSON(w, http.StatusOK, struct {
			Redirect string `json:"redirect"`
		}{Redirect: "/login_spotify"})
		return
	}
	http.Redirect(w, r, "/login_spotify", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.session(r); err == nil {
		if err := s.auth.Logout(r.Context(), sess); err != nil {
			s.apiError(w, r, sess, err)
			return
		}
	}

	clearSessionCookie(w)
	setFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
