package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// Empty, or the single entry "*", allows all origins.
	AllowOrigins []string

	// AllowMethods defaults to "GET, POST, PUT, DELETE, OPTIONS" when empty.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. When empty the
	// preflight echoes back Access-Control-Request-Headers.
	AllowHeaders []string

	// AllowCredentials switches off the wildcard origin: browsers reject
	// credentialed responses with "*", so the specific origin is echoed.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the header.
	MaxAge int
}

// CORS returns a middleware that answers preflight requests and sets the
// CORS response headers on actual requests.
func CORS(cfg CORSConfig) Middleware {
	allowAll := len(cfg.AllowOrigins) == 0
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}
	if cfg.AllowCredentials {
		// Wildcard + credentials is forbidden; echo the specific origin.
		allowAll = false
	}

	methods := strings.Join(cfg.AllowMethods, ", ")
	if methods == "" {
		methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	headers := strings.Join(cfg.AllowHeaders, ", ")

	allowOrigin := func(origin string) string {
		if allowAll {
			return "*"
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			ao := allowOrigin(origin)

			// Preflight.
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Add("Vary", "Access-Control-Request-Method")
				w.Header().Add("Vary", "Access-Control-Request-Headers")

				if ao != "" {
					w.Header().Set("Access-Control-Allow-Origin", ao)
					w.Header().Set("Access-Control-Allow-Methods", methods)
					if headers != "" {
						w.Header().Set("Access-Control-Allow-Headers", headers)
					} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
						w.Header().Set("Access-Control-Allow-Headers", rh)
					}
					if cfg.AllowCredentials {
						w.Header().Set("Access-Control-Allow-Credentials", "true")
					}
					if cfg.MaxAge > 0 {
						w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if ao != "" {
				w.Header().Set("Access-Control-Allow-Origin", ao)
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
