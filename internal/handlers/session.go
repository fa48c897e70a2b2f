package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKeyField = "sid"

// sessionKey returns the stable per-browser key used to scope engine sessions,
// minting and persisting one on first contact.
func sessionKey(c *gin.Context) string {
	session := sessions.Default(c)
	if v, ok := session.Get(sessionKeyField).(string); ok && v != "" {
		return v
	}
	key := uuid.NewString()
	session.Set(sessionKeyField, key)
	if err := session.Save(); err != nil {
		// Cookie write failed; fall back to a request-scoped key so the
		// request still works, at the cost of engine state reuse.
		return key
	}
	return key
}
