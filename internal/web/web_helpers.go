package web

import (
	"crypto/rand"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
)

// badBots are lowercase User-Agent fragments rejected by BotDetectionMiddleware
var badBots = []string{"acunetix", "ahref", "census", "chatgpt", "crawler", "curl", "deepseek",
	"go-http", "httrack", "mj12", "paloalto", "python", "semrush", "wget"}

func isBadBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, pattern := range badBots {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

// normalizeFormName trims a submitted name and folds it to NFC so the same
// name typed with combining marks logs identically.
func normalizeFormName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return norm.NFC.String(name)
}

const (
	roleHost        = "host"
	roleParticipant = "participant"

	meetingIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	meetingIDLength   = 6
)

// newMeetingID returns six random uppercase base36 characters
func newMeetingID() string {
	// largest multiple of 36 below 256, higher bytes would bias the alphabet
	const limit = 256 - 256%len(meetingIDAlphabet)
	id := make([]byte, 0, meetingIDLength)
	buf := make([]byte, meetingIDLength*2)
	for len(id) < meetingIDLength {
		rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit || len(id) == meetingIDLength {
				continue
			}
			id = append(id, meetingIDAlphabet[int(b)%len(meetingIDAlphabet)])
		}
	}
	return string(id)
}

// normalizeMeetingID uppercases a typed meeting ID and drops anything outside the ID alphabet
func normalizeMeetingID(id string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if strings.ContainsRune(meetingIDAlphabet, r) {
			return r
		}
		return -1
	}, id)
}

// normalizeRole maps anything but "host" to participant
func normalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), roleHost) {
		return roleHost
	}
	return roleParticipant
}

// limitFormBody caps the request body before gin parses the form
func limitFormBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormBodyBytes)
}

// redirectHome ends a form submission
func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}
