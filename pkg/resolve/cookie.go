package resolve

import (
	"net/http"
	"time"
)

// CookieAttribute mutates an outgoing cookie.
type CookieAttribute interface {
	Visit(c *http.Cookie)
}

// CookieAttributeFunc adapts a function to CookieAttribute.
type CookieAttributeFunc func(c *http.Cookie)

// Visit implements CookieAttribute.
func (f CookieAttributeFunc) Visit(c *http.Cookie) { f(c) }

// Path sets the cookie path.
func Path(path string) CookieAttribute {
	return CookieAttributeFunc(func(c *http.Cookie) { c.Path = path })
}

// Domain sets the cookie domain.
func Domain(domain string) CookieAttribute {
	return CookieAttributeFunc(func(c *http.Cookie) { c.Domain = domain })
}

// MaxAge sets the cookie lifetime. Non-positive durations expire the cookie.
func MaxAge(d time.Duration) CookieAttribute {
	return CookieAttributeFunc(func(c *http.Cookie) {
		secs := int(d / time.Second)
		if secs <= 0 {
			c.MaxAge = -1
			return
		}
		c.MaxAge = secs
	})
}

// Secure marks the cookie secure.
func Secure() CookieAttribute {
	return CookieAttributeFunc(func(c *http.Cookie) { c.Secure = true })
}

// HTTPOnly hides the cookie from scripts.
func HTTPOnly() CookieAttribute {
	return CookieAttributeFunc(func(c *http.Cookie) { c.HttpOnly = true })
}

// SameSite sets the SameSite mode.
func SameSite(mode http.SameSite) CookieAttribute {
	return CookieAttributeFunc(func(c *http.Cookie) { c.SameSite = mode })
}
