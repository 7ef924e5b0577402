// Package confirmation issues and verifies stateless confirmation codes.
//
// A code is "<timestamp base36>-<mac>" where mac is an HMAC over the user's
// mutable state and the timestamp. Activating the account, logging in,
// changing the password or the email all alter that state, so any code
// issued before the change stops verifying.
package confirmation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"imdb/proj/internal/domain/models"
)

const (
	keySalt    = "imdb.confirmation.Generator"
	macLength  = 20
	DefaultTTL = 72 * time.Hour
)

type Generator struct {
	key     []byte
	timeout time.Duration
	now     func() time.Time
}

func New(secret string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTTL
	}
	sum := sha256.Sum256([]byte(keySalt + secret))
	return &Generator{key: sum[:], timeout: timeout, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	cp := *g
	cp.now = now
	return &cp
}

func (g *Generator) MakeToken(user *models.User) string {
	return g.makeTokenWithTimestamp(user, g.now().Unix())
}

func (g *Generator) CheckToken(user *models.User, code string) bool {
	if user == nil || code == "" {
		return false
	}
	tsPart, _, found := strings.Cut(code, "-")
	if !found {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}
	expected := g.makeTokenWithTimestamp(user, ts)
	if !hmac.Equal([]byte(expected), []byte(code)) {
		return false
	}
	age := g.now().Unix() - ts
	if age < 0 || time.Duration(age)*time.Second > g.timeout {
		return false
	}
	return true
}

func (g *Generator) makeTokenWithTimestamp(user *models.User, ts int64) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(hashValue(user, ts)))
	sum := hex.EncodeToString(mac.Sum(nil))[:macLength]
	return strconv.FormatInt(ts, 36) + "-" + sum
}

func hashValue(user *models.User, ts int64) string {
	lastLogin := ""
	if user.LastLogin != nil {
		lastLogin = strconv.FormatInt(user.LastLogin.UTC().Unix(), 10)
	}
	return strings.Join([]string{
		strconv.FormatInt(user.ID, 10),
		user.PasswordHash,
		lastLogin,
		strconv.FormatInt(ts, 10),
		user.Email,
		strconv.FormatBool(user.IsActive),
	}, "\x00")
}
