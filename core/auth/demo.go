// Package auth checks client credentials that are not stored in the database.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// DemoApplicationID is the application identity given to requests made with
// the public demo key.
const DemoApplicationID int64 = 2

const demoKeyLength = 16

// DemoClientAPIKey derives the demo key that is valid on the given day (UTC).
func DemoClientAPIKey(secret string, day time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("demo-client-api-key:" + day.UTC().Format("2006-01-02")))
	key := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return key[:demoKeyLength]
}

// CheckDemoClientAPIKey accepts today's key and yesterday's, so a key handed
// out just before midnight keeps working.
func CheckDemoClientAPIKey(secret, apiKey string, now time.Time) bool {
	if secret == "" || len(apiKey) != demoKeyLength {
		return false
	}
	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		if hmac.Equal([]byte(apiKey), []byte(DemoClientAPIKey(secret, day))) {
			return true
		}
	}
	return false
}
