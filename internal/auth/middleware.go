package auth

import (
	"net/http"
	"net/url"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

// RequireOperator redirects anonymous requests to the login page.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.OperatorFromContext(r.Context()) != "" {
			next.ServeHTTP(w, r)
			return
		}
		target := "/auth/login"
		if r.Method == http.MethodGet {
			target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
