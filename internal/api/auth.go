package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/diagramquest/engine/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

type authConfig struct {
	adminUser    string
	adminPass    string
	operatorUser string
	operatorPass string
	enabled      bool
}

var auth *authConfig

// InitAuth loads credentials from DIAGRAMQUEST_* env vars, honoring
// the *_FILE convention. With no admin credentials set, auth is
// disabled entirely, which keeps local development friction-free.
func InitAuth() {
	adminUser, err := config.ResolveSecret("DIAGRAMQUEST_ADMIN_USER")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve DIAGRAMQUEST_ADMIN_USER")
	}
	adminPass, err := config.ResolveSecret("DIAGRAMQUEST_ADMIN_PASS")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve DIAGRAMQUEST_ADMIN_PASS")
	}
	operatorUser, err := config.ResolveSecret("DIAGRAMQUEST_OPERATOR_USER")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve DIAGRAMQUEST_OPERATOR_USER")
	}
	operatorPass, err := config.ResolveSecret("DIAGRAMQUEST_OPERATOR_PASS")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve DIAGRAMQUEST_OPERATOR_PASS")
	}

	auth = &authConfig{
		adminUser:    adminUser,
		adminPass:    adminPass,
		operatorUser: operatorUser,
		operatorPass: operatorPass,
		enabled:      adminUser != "" && adminPass != "",
	}
}

// IsAuthEnabled reports whether authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate checks basic auth credentials and returns the matched
// role, or "" when the credentials are invalid.
func authenticate(r *http.Request) Role {
	if auth == nil || !auth.enabled {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}

	if auth.adminUser != "" && auth.adminPass != "" {
		if secureCompare(user, auth.adminUser) && secureCompare(pass, auth.adminPass) {
			return RoleAdmin
		}
	}
	if auth.operatorUser != "" && auth.operatorPass != "" {
		if secureCompare(user, auth.operatorUser) && secureCompare(pass, auth.operatorPass) {
			return RoleOperator
		}
	}
	return ""
}

// secureCompare performs constant-time comparison.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="DiagramQuest"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and requires one of the given roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole requires admin or operator.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleOperator)
}

// RequireAdmin requires the admin role.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
