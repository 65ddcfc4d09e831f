package auth

import (
	"net/http"
	"time"

	"github.com/masjidku/masjidku-web/internal/models"
)

// SessionCookieName holds the signed backend token in the browser
const SessionCookieName = "masjidku_session"

// CookieStore is the browser-side TokenStore. It reads the token from the
// incoming request and writes Set-Cookie headers on the response. Writes made
// during the request are visible to later reads in the same request.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	codec  *TokenCodec
	secure bool

	overridden bool
	claims     *CookieClaims
}

// NewCookieStore binds a store to one request/response pair
func NewCookieStore(w http.ResponseWriter, r *http.Request, codec *TokenCodec, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, codec: codec, secure: secure}
}

func (s *CookieStore) current() *CookieClaims {
	if s.overridden {
		return s.claims
	}
	ck, err := s.r.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	claims, err := s.codec.Decode(ck.Value)
	if err != nil {
		return nil
	}
	return claims
}

func (s *CookieStore) SaveToken(token string, role models.Role) error {
	value, err := s.codec.Encode(token, role)
	if err != nil {
		return err
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.codec.TTL()),
	})

	s.overridden = true
	s.claims = &CookieClaims{Token: token, Role: role}
	return nil
}

func (s *CookieStore) LoadToken() (string, error) {
	claims := s.current()
	if claims == nil {
		return "", ErrNoToken
	}
	return claims.Token, nil
}

func (s *CookieStore) DeleteToken() error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})

	s.overridden = true
	s.claims = nil
	return nil
}

// ForwardedCookies returns the request cookies that belong to the backend,
// i.e. everything except our own session cookie.
func ForwardedCookies(r *http.Request) []*http.Cookie {
	var out []*http.Cookie
	for _, ck := range r.Cookies() {
		if ck.Name == SessionCookieName {
			continue
		}
		out = append(out, ck)
	}
	return out
}
