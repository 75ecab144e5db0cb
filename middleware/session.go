package middleware

import (
	"github.com/gin-gonic/gin"

	"drive-rag-chatbot/services"
)

// SessionCookie is the cookie carrying the opaque session id.
const SessionCookie = "rag_session"

const sessionContextKey = "session"

// Session resolves the request's session from its cookie, creating a new
// session (and setting the cookie) when none exists or the id has expired.
func Session(store *services.SessionStore) gin.HandlerFunc {
	maxAge := int(store.TTL().Seconds())
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookie)
		sess := store.Get(id)
		if sess.ID != id {
			c.SetCookie(SessionCookie, sess.ID, maxAge, "/", "", false, true)
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// GetSession returns the session attached by the Session middleware.
func GetSession(c *gin.Context) *services.Session {
	sess, _ := c.MustGet(sessionContextKey).(*services.Session)
	return sess
}
