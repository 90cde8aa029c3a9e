// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD path-template" to the required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"GET /healthz":               SecurityPublic,
	"GET /bookings/active-items": SecurityPublic,
	"GET /uploads/ping":          SecurityPublic,
	"GET /uploads/files/{key}":   SecurityPublic,

	// Bookings
	"POST /bookings":        SecurityAccess,
	"GET /bookings":         SecurityAccess,
	"GET /bookings/pending": SecurityAccess,
	"GET /bookings/{id}":    SecurityAccess,
	"PATCH /bookings/{id}":  SecurityAccess,

	// Disputes
	"POST /disputes":        SecurityAccess,
	"GET /disputes":         SecurityAccess,
	"GET /disputes/{id}":    SecurityAccess,
	"PATCH /disputes/{id}":  SecurityAccess,
	"DELETE /disputes/{id}": SecurityAccess,

	// Wallet
	"GET /wallet/balance":      SecurityAccess,
	"POST /wallet/topup":       SecurityAccess,
	"GET /wallet/transactions": SecurityAccess,

	// Uploads
	"POST /uploads/images": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+pathTemplate]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
