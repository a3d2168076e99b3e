package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the authenticated user's ID in the context.
const userIDKey = contextKey("userID")

// organizationIDKey is the key used to store the caller's organization ID in
// the context. Every tenant-scoped query filters by it.
const organizationIDKey = contextKey("organizationID")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		userIDVal := c.Request.Context().Value(userIDKey)
		if userIDVal != nil {
			return userIDVal.(string), true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}

// GetOrganizationIDFromContext retrieves the caller's organization ID from the
// Gin context. It returns the organization ID and a boolean indicating if it
// was found.
func GetOrganizationIDFromContext(c *gin.Context) (string, bool) {
	orgIDVal, exists := c.Get(string(organizationIDKey))
	if !exists {
		orgIDVal := c.Request.Context().Value(organizationIDKey)
		if orgIDVal != nil {
			return orgIDVal.(string), true
		}
		return "", false
	}

	orgID, ok := orgIDVal.(string)
	if !ok {
		return "", false
	}

	return orgID, true
}
