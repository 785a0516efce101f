package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"courier-booking/constants"
	"courier-booking/logger"
	"courier-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	signingKeyMu sync.Mutex
	signingKey   *rsa.PublicKey
)

// verificationKey returns the RSA public key tokens are verified against,
// fetching it from PUBLIC_KEY_URL on first use and caching it for the life of
// the process. A failed fetch is not cached, so a temporarily unreachable SSO
// service only fails the requests made while it is down.
func verificationKey() (*rsa.PublicKey, error) {
	signingKeyMu.Lock()
	defer signingKeyMu.Unlock()

	if signingKey != nil {
		return signingKey, nil
	}

	key, err := fetchPublicKey(os.Getenv("PUBLIC_KEY_URL"))
	if err != nil {
		return nil, err
	}
	signingKey = key
	return signingKey, nil
}

// fetchPublicKey retrieves the PEM-encoded RSA public key from the SSO
// service. The endpoint answers with a JSON object carrying the key under
// "key".
func fetchPublicKey(url string) (*rsa.PublicKey, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	keyResponse := struct {
		Key string `json:"key"`
	}{}
	if err := json.Unmarshal(body, &keyResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key response: %w", err)
	}

	block, _ := pem.Decode([]byte(keyResponse.Key))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.New("failed to decode PEM block containing public key")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPubKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPubKey, nil
}

// VerifyJWT validates a bearer token against the SSO public key and returns
// its claims.
func VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	key, err := verificationKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load verification key: %w", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid JWT token")
	}
	return claims, nil
}

// grantedClaims verifies the token and checks it carries at least one of the
// required permissions. constants.PermAny short-circuits the permission check
// so authentication-only routes share the same path.
func grantedClaims(jwtToken string, requiredPermissions []string) (map[string]interface{}, bool) {
	claims, err := VerifyJWT(jwtToken)
	if err != nil {
		logger.Warning("JWT verification failed: " + err.Error())
		return nil, false
	}

	for _, requiredPerm := range requiredPermissions {
		if requiredPerm == constants.PermAny {
			return claims, true
		}
	}

	granted, ok := claims["permissions"].([]interface{})
	if !ok {
		return claims, false
	}

	permissionSet := make(map[string]bool, len(granted))
	for _, p := range granted {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}

	for _, requiredPerm := range requiredPermissions {
		if permissionSet[requiredPerm] {
			return claims, true
		}
	}
	return claims, false
}

// bearerToken extracts the JWT from the Authorization header, falling back to
// the access cookie.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return "", errors.New("Invalid authorization header format")
		}
		return tokenParts[1], nil
	}

	if token := c.Cookies("access"); token != "" {
		return token, nil
	}
	return "", errors.New("Authorization token missing")
}

// Claims returns the JWT claims IsAuthenticated stored for the request. This
// is the one place the locals value is type-asserted; everything downstream
// goes through it.
func Claims(c *fiber.Ctx) (map[string]interface{}, bool) {
	claims, ok := c.Locals("user").(map[string]interface{})
	return claims, ok
}

// IsAuthenticated is a middleware that checks for a valid JWT token carrying
// one of the required permissions, and attaches the claims to the context.
func IsAuthenticated(requiredPermissions []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  err.Error(),
			})
		}

		decodedClaims, hasAccess := grantedClaims(token, requiredPermissions)
		if !hasAccess {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error":  "Insufficient permissions",
			})
		}

		if decodedClaims["username"] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals("user", decodedClaims)
		return c.Next()
	}
}
