package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard/internal/identity"
)

const accountKey = "account"

// Resolver maps a token subject to a full account.
type Resolver interface {
	Resolve(ctx context.Context, accountID string) (identity.Account, error)
}

// RequireAccount enforces bearer JWT tokens signed with HS256 and resolves
// the caller once per request.
func RequireAccount(signingKey, issuer string, resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		acct, err := resolver.Resolve(c.Request.Context(), claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			return
		}
		c.Set(accountKey, acct)
		c.Next()
	}
}

// Caller returns the account resolved by RequireAccount.
func Caller(c *gin.Context) (identity.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return identity.Account{}, false
	}
	acct, ok := v.(identity.Account)
	return acct, ok
}
