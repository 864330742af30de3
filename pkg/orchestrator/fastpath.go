package orchestrator

import (
	"regexp"
	"strings"
)

// Greeting inputs get a canned reply without an LLM round trip.
var greetings = map[string]string{
	"hi":        "Hi there! I can help you find PC parts, manage your cart, track orders, or build a custom PC. What can I do for you?",
	"hello":     "Hello! I can help you find PC parts, manage your cart, track orders, or build a custom PC. What can I do for you?",
	"hey":       "Hey! I can help you find PC parts, manage your cart, track orders, or build a custom PC. What can I do for you?",
	"help":      "I can search products, manage your cart, place and track orders, apply coupons, and walk you through building a custom PC. Just tell me what you need.",
	"thanks":    "You're welcome! Anything else I can help with?",
	"thank you": "You're welcome! Anything else I can help with?",
	"ok":        "Great. Let me know if there's anything else you need.",
}

// greetingReply returns the canned reply for a bare greeting, if the input
// is one.
func greetingReply(input string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.TrimRight(normalized, "!. ")
	reply, ok := greetings[normalized]
	return reply, ok
}

// Tracking code shapes, checked in order. The generic shape only fires for a
// single bare token so product names never match.
var (
	trackingTHRe      = regexp.MustCompile(`^TH-[A-Z0-9]{4,20}$`)
	trackingDigitsRe  = regexp.MustCompile(`^\d{3,20}$`)
	trackingGenericRe = regexp.MustCompile(`^[A-Z0-9-]{4,20}$`)
)

var questionWords = []string{"what", "where", "how", "why", "when", "who", "?"}

// detectTrackingCode reports whether the whole input is a bare tracking code
// and returns the normalized code.
func detectTrackingCode(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
		return "", false
	}

	lowered := strings.ToLower(trimmed)
	for _, w := range questionWords {
		if strings.Contains(lowered, w) {
			return "", false
		}
	}

	upper := strings.ToUpper(trimmed)
	if trackingTHRe.MatchString(upper) || trackingDigitsRe.MatchString(upper) || trackingGenericRe.MatchString(upper) {
		return upper, true
	}
	return "", false
}
