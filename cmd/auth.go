package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// authMiddleware validates the bearer token on mutating endpoints. When no
// signing key is configured, auth is disabled for local development.
func (svc *ServiceContext) authMiddleware(c *gin.Context) {
	if svc.JWTKey == "" {
		c.Next()
		return
	}

	authHdr := c.GetHeader("Authorization")
	tokenStr := strings.TrimPrefix(authHdr, "Bearer ")
	if tokenStr == "" || tokenStr == authHdr {
		log.Printf("ERROR: request to %s is missing a bearer token", c.Request.URL.Path)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(svc.JWTKey), nil
	})
	if err != nil {
		log.Printf("ERROR: request to %s has an invalid bearer token: %s", c.Request.URL.Path, err.Error())
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}
