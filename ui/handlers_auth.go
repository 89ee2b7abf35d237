package ui

import (
	"net/http"
	"strings"

	"femstat/internal/errors"
	"femstat/models"
)

// Auth pages exchange credentials for a token that is stored locally and
// shown in the nav. The token is not attached to analysis or report
// calls; the backend contract leaves that gap open.

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "login.html", AuthView{BaseView: a.base("Sign in", "login")})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	creds := models.UserLogin{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}

	token, err := a.client.Login(r.Context(), creds)
	if err != nil {
		view := AuthView{
			BaseView: a.base("Sign in", "login"),
			Email:    creds.Email,
			Error:    errors.UserMessage(err),
		}
		w.WriteHeader(http.StatusUnauthorized)
		a.renderTemplate(w, "login.html", view)
		return
	}

	if err := a.registry.SaveToken(token.AccessToken, creds.Email); err != nil {
		a.logger.Error("saving token: %v", err)
	}
	a.redirect(w, r, "/")
}

func (a *App) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "signup.html", AuthView{BaseView: a.base("Sign up", "signup")})
}

func (a *App) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	user := models.UserCreate{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Name:     strings.TrimSpace(r.PostForm.Get("name")),
		Password: r.PostForm.Get("password"),
	}

	token, err := a.client.Signup(r.Context(), user)
	if err != nil {
		view := AuthView{
			BaseView: a.base("Sign up", "signup"),
			Email:    user.Email,
			Error:    errors.UserMessage(err),
		}
		w.WriteHeader(http.StatusBadRequest)
		a.renderTemplate(w, "signup.html", view)
		return
	}

	if err := a.registry.SaveToken(token.AccessToken, user.Email); err != nil {
		a.logger.Error("saving token: %v", err)
	}
	a.redirect(w, r, "/")
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.registry.ClearToken(); err != nil {
		a.logger.Error("clearing token: %v", err)
	}
	a.redirect(w, r, "/")
}
