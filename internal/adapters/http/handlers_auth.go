package web

import (
	"errors"
	"net/http"

	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/application/apperr"
	"motoclub/internal/application/orchestrators"
	"motoclub/internal/logging"
)

func loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{UserStore: stores.AccountStore, Now: timeNow}
}

func signupDeps() orchestrators.SignupDeps {
	return orchestrators.SignupDeps{UserStore: stores.AccountStore, GenerateID: generateID, Now: timeNow}
}

func userDeps() orchestrators.UserDeps {
	return orchestrators.UserDeps{UserStore: stores.AccountStore, GenerateID: generateID, Now: timeNow}
}

// startSession signs a token for the user and sets the cookie.
func startSession(w http.ResponseWriter, userID, email, name, role string) error {
	token, err := sessions.Create(userID, email, name, role)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token, sessions.Lifetime(), secureCookies)
	return nil
}

// loginStatus maps login failures; they are plain errors so the caller cannot
// tell an unknown email from a wrong password.
func loginStatus(err error) int {
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, orchestrators.ErrAccountLocked):
		return http.StatusLocked
	default:
		return statusFor(err)
	}
}

func loginMessage(err error) string {
	if apperr.KindOf(err) != 0 {
		return apperr.MessageOf(err)
	}
	return err.Error()
}

// handleLoginPage handles GET /login
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "login.html", map[string]any{})
}

// handleLogin handles POST /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.LoginInput{Email: r.FormValue("email"), Password: r.FormValue("password")}
	result, err := orchestrators.ExecuteLogin(r.Context(), input, loginDeps())
	if err != nil {
		renderTemplateStatus(w, r, loginStatus(err), "login.html", map[string]any{
			"Error": loginMessage(err),
			"Email": input.Email,
		})
		return
	}
	if err := startSession(w, result.UserID, result.Email, result.Name, result.Role); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSignupPage handles GET /signup
func handleSignupPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "signup.html", map[string]any{})
}

// handleSignup handles POST /signup
func handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SignupInput{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
	}
	user, err := orchestrators.ExecuteSignup(r.Context(), input, signupDeps())
	if err != nil {
		formError(w, r, "signup.html", err, map[string]any{"Name": input.Name, "Email": input.Email})
		return
	}
	if err := startSession(w, user.ID, user.Email, user.Name, user.Role); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		logging.Info().Str("event", "logout").Str("email", sess.Email).Msg("auth_event")
	}
	middleware.ClearSessionCookie(w, secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleProfilePage handles GET /profile
func handleProfilePage(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	user, err := stores.AccountStore.GetByID(r.Context(), sess.AccountID)
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "profile.html", map[string]any{"User": user, "Saved": r.URL.Query().Get("saved") == "1"})
}

// handleProfileUpdate handles POST /profile
func handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	input := orchestrators.UpdateProfileInput{UserID: sess.AccountID, Name: r.FormValue("name")}
	user, err := orchestrators.ExecuteUpdateProfile(r.Context(), input, userDeps())
	if err != nil {
		current, _ := stores.AccountStore.GetByID(r.Context(), sess.AccountID)
		formError(w, r, "profile.html", err, map[string]any{"User": current})
		return
	}
	// the session carries the display name, so reissue it
	if err := startSession(w, user.ID, user.Email, user.Name, user.Role); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/profile?saved=1", http.StatusSeeOther)
}
