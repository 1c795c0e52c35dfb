package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "admin_session"
	tokenIssuer       = "telegram-event-bot"
	bearerPrefix      = "bearer "
)

var errNoToken = errors.New("missing token")
var errBadToken = errors.New("invalid token")

// AuthConfig describes how admin session tokens are signed and carried.
type AuthConfig struct {
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

// AuthManager mints and validates the admin session JWT. The same token is
// accepted as a Bearer header or as the session cookie, so the dashboard and
// scripted API clients share one login flow.
type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret string, secure bool, domain string, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret:   []byte(secret),
		CookieName:   sessionCookieName,
		CookieDomain: domain, // "" keeps the cookie host-only
		SecureCookie: secure, // true behind TLS
		TTL:          ttl,
	}}
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthManager) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

// Mint signs a fresh admin token, sets it as the session cookie and returns
// it so clients can also send it as a Bearer token.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
		},
	})
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, a.sessionCookie(signed, int(a.cfg.TTL.Seconds())))
	return signed, nil
}

// Clear expires the session cookie. Bearer tokens already handed out remain
// valid until their exp; the TTL keeps that window short.
func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, a.sessionCookie("", -1))
}

// ParseFromRequest extracts the token from the Authorization header first,
// then from the session cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), bearerPrefix) {
			return a.parse(strings.TrimSpace(hdr[len(bearerPrefix):]))
		}
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errNoToken
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims,
		func(t *jwt.Token) (any, error) { return a.cfg.HMACSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil || !parsed.Valid {
		return nil, errBadToken
	}
	return claims, nil
}
