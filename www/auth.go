package www

import (
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"courierd/store"
)

const sessionName = "courierd-session"

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "courierd-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false // agent serves the driver app over localhost
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) isAuthenticated(r *http.Request) bool {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	auth, ok := session.Values["authenticated"].(bool)
	return ok && auth
}

func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAuthenticated(r) {
			h.jsonError(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ensureDriver seeds the configured driver with a default password on
// first run.
func (h *Handlers) ensureDriver(db *store.DB, driverID string) {
	d, err := db.GetDriver(driverID)
	if err != nil || d != nil {
		return
	}
	hash, err := hashPassword("courier")
	if err != nil {
		return
	}
	db.CreateDriver(&store.Driver{ID: driverID, Name: driverID, PasswordHash: hash})
}
