// Package venue implements the authenticated REST client for the perp
// venue: request signing, rate limiting, retries, and the circuit
// breaker wrapping the transport.
package venue

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const recvWindowMS = 5000

// Auth holds the API key pair used to sign every authenticated request.
// This venue has a single HMAC-SHA256 signing layer: there is no
// on-chain signer, no typed-data domain, no derive-key bootstrap step.
type Auth struct {
	apiKey    string
	apiSecret string
}

// NewAuth builds an Auth from a configured key pair.
func NewAuth(apiKey, apiSecret string) *Auth {
	return &Auth{apiKey: apiKey, apiSecret: apiSecret}
}

// Headers computes the X-API-KEY/X-TIMESTAMP/X-RECV-WINDOW/X-SIGN header
// set for one request. payload must be byte-identical to what is actually
// transmitted: the literal query string for GET, the literal JSON body
// for POST. Passing a re-serialized or re-ordered payload here produces a
// signature that the venue will reject even though the request "looks"
// the same.
func (a *Auth) Headers(payload string) map[string]string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	sign := a.sign(timestamp, payload)
	return map[string]string{
		"X-API-KEY":     a.apiKey,
		"X-TIMESTAMP":   timestamp,
		"X-RECV-WINDOW": strconv.Itoa(recvWindowMS),
		"X-SIGN":        sign,
	}
}

// sign computes HMAC_SHA256(secret, timestamp + api_key + recv_window + payload)
// as lower-hex.
func (a *Auth) sign(timestamp, payload string) string {
	message := timestamp + a.apiKey + strconv.Itoa(recvWindowMS) + payload
	mac := hmac.New(sha256.New, []byte(a.apiSecret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
