// Package claim issues signed reward claim keys. One key is minted per ad
// slot and travels with the reward request as its idempotency key, so a
// retried request can never credit the same slot twice.
package claim

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("invalid claim")
	ErrExpired = errors.New("claim expired")
)

// payload structure for encoding/decoding
type payload struct {
	SessionID  string `json:"s"`
	UserID     string `json:"u"`
	CampaignID string `json:"c"`
	ContentID  string `json:"ct"`
	Seq        int    `json:"n"` // ad slot number within the session
	TS         int64  `json:"t"`
}

// Claim is the decoded content of a verified key.
type Claim struct {
	SessionID  string
	UserID     string
	CampaignID string
	ContentID  string
	Seq        int
	IssuedAt   time.Time
}

// Generate creates a signed claim key for one ad slot.
func Generate(sessionID, userID, campaignID, contentID string, seq int, secret []byte) string {
	pl := payload{
		SessionID:  sessionID,
		UserID:     userID,
		CampaignID: campaignID,
		ContentID:  contentID,
		Seq:        seq,
		TS:         time.Now().Unix(),
	}
	// a struct of strings and ints always marshals
	data, _ := json.Marshal(pl)
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	sig := mac.Sum(nil)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(sig)
}

// Verify checks the key's signature and age. A zero ttl disables the age check.
// It is the ledger-side counterpart of Generate: the session service only
// issues keys, and a ledger sharing the secret uses Verify to reject forged
// or replayed-after-expiry claims.
func Verify(key string, secret []byte, ttl time.Duration) (Claim, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return Claim{}, ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return Claim{}, ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return Claim{}, ErrInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return Claim{}, ErrInvalid
	}

	var pl payload
	if err := json.Unmarshal(data, &pl); err != nil {
		return Claim{}, ErrInvalid
	}
	issued := time.Unix(pl.TS, 0)
	if ttl > 0 && time.Since(issued) > ttl {
		return Claim{}, ErrExpired
	}
	return Claim{
		SessionID:  pl.SessionID,
		UserID:     pl.UserID,
		CampaignID: pl.CampaignID,
		ContentID:  pl.ContentID,
		Seq:        pl.Seq,
		IssuedAt:   issued,
	}, nil
}
