package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := newResponseCache(time.Minute, 10)

	_, hit := c.get("what are your hours?", "")
	assert.False(t, hit)

	c.put("what are your hours?", "", "9 to 6")
	answer, hit := c.get("  What ARE your hours?  ", "")
	require.True(t, hit, "keying must normalize case and whitespace")
	assert.Equal(t, "9 to 6", answer)

	_, hit = c.get("what are your hours?", "different-context")
	assert.False(t, hit, "context summary is part of the key")
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newResponseCache(time.Minute, 10)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("q", "", "a")
	now = now.Add(2 * time.Minute)
	_, hit := c.get("q", "")
	assert.False(t, hit)
	assert.Equal(t, 0, c.len(), "expired entry is dropped on lookup")
}

func TestCacheEvictsOldest(t *testing.T) {
	c := newResponseCache(time.Hour, 2)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("one", "", "1")
	now = now.Add(time.Second)
	c.put("two", "", "2")
	now = now.Add(time.Second)
	c.put("three", "", "3")

	assert.Equal(t, 2, c.len())
	_, hit := c.get("one", "")
	assert.False(t, hit, "oldest entry must be evicted")
	_, hit = c.get("three", "")
	assert.True(t, hit)
}

func TestCacheSkipKeywords(t *testing.T) {
	c := newResponseCache(time.Minute, 10)

	assert.True(t, c.shouldSkip("what's in my cart?"))
	assert.True(t, c.shouldSkip("I want to BUY this"))
	assert.True(t, c.shouldSkip("apply coupon SAVE10"))
	assert.False(t, c.shouldSkip("what are your opening hours?"))
	assert.False(t, c.shouldSkip("do you ship internationally?"))
}

func TestGreetingReply(t *testing.T) {
	for _, input := range []string{"hi", "Hello!", " HEY ", "thanks", "thank you", "ok"} {
		_, ok := greetingReply(input)
		assert.True(t, ok, "input %q should be a greeting", input)
	}
	for _, input := range []string{"hi there, do you sell GPUs?", "okay then", "thanks for nothing, where is my order"} {
		_, ok := greetingReply(input)
		assert.False(t, ok, "input %q should not be a greeting", input)
	}
}

func TestDetectTrackingCode(t *testing.T) {
	code, ok := detectTrackingCode("TH-AB12CD34EF")
	require.True(t, ok)
	assert.Equal(t, "TH-AB12CD34EF", code)

	code, ok = detectTrackingCode("  th-ab12cd34ef ")
	require.True(t, ok, "lowercase codes are normalized")
	assert.Equal(t, "TH-AB12CD34EF", code)

	_, ok = detectTrackingCode("123456")
	assert.True(t, ok, "bare order numbers are tracking codes")

	_, ok = detectTrackingCode("where is TH-AB12CD34EF")
	assert.False(t, ok, "multi-word inputs are not bare codes")

	_, ok = detectTrackingCode("12")
	assert.False(t, ok, "too short for an order number")
}

func TestCartGuard(t *testing.T) {
	snapshot := `{"success":true,"cart":{"items":[{"name":"Corsair Vengeance 16GB DDR5","quantity":1}]},"item_count":1}`

	answer, substituted := cartGuard("Your cart is empty.", "what's in my cart?", snapshot)
	require.True(t, substituted)
	assert.Contains(t, answer, "Corsair")

	_, substituted = cartGuard("Your cart is empty.", "what's in my cart?", "")
	assert.False(t, substituted, "no snapshot, nothing to substitute")

	_, substituted = cartGuard("Your cart is empty.", "proceed to checkout of my cart", snapshot)
	assert.False(t, substituted, "checkout requests are left alone")

	_, substituted = cartGuard("Your cart is empty.", "what time do you open?", snapshot)
	assert.False(t, substituted, "input must actually ask about the cart")

	emptySnapshot := `{"success":true,"cart":{"items":[]},"item_count":0}`
	_, substituted = cartGuard("Your cart is empty.", "what's in my cart?", emptySnapshot)
	assert.False(t, substituted, "a genuinely empty cart is not a hallucination")

	_, substituted = cartGuard("You have one item in your cart.", "what's in my cart?", snapshot)
	assert.False(t, substituted, "non-empty claims pass through")
}
