package orchestrator

import "strings"

// Session context key holding the most recent cart tool result.
const contextKeyLastCart = "last_cart_tool"

var emptyCartClaims = []string{
	"cart is empty",
	"your cart is empty",
	"no items in your cart",
	"nothing in your cart",
	"empty cart",
}

var cartQuestionWords = []string{"cart", "basket"}

// cartGuard substitutes the last real cart tool result when the model claims
// an empty cart that contradicts what the tools actually returned. Models
// sometimes ignore tool output late in a long conversation; the stored
// snapshot is the ground truth.
func cartGuard(answer, input, lastCartResult string) (string, bool) {
	if lastCartResult == "" {
		return answer, false
	}

	loweredAnswer := strings.ToLower(answer)
	claims := false
	for _, c := range emptyCartClaims {
		if strings.Contains(loweredAnswer, c) {
			claims = true
			break
		}
	}
	if !claims {
		return answer, false
	}

	loweredInput := strings.ToLower(input)
	asksAboutCart := false
	for _, w := range cartQuestionWords {
		if strings.Contains(loweredInput, w) {
			asksAboutCart = true
			break
		}
	}
	if !asksAboutCart || strings.Contains(loweredInput, "checkout") {
		return answer, false
	}

	// The snapshot itself may legitimately describe an empty cart.
	loweredSnapshot := strings.ToLower(lastCartResult)
	if strings.Contains(loweredSnapshot, `"items":[]`) || strings.Contains(loweredSnapshot, `"item_count":0`) {
		return answer, false
	}

	return "Here's what your cart actually contains:\n" + lastCartResult, true
}
