package flow

import "strings"

// Decision is the route chosen for an inbound message.
type Decision string

const (
	DecisionGeneral       Decision = "general"
	DecisionCheckout      Decision = "checkout"
	DecisionCheckoutEntry Decision = "checkout_entry"
	DecisionBuilder       Decision = "pc_builder"
	DecisionBuilderEntry  Decision = "pc_builder_entry"
)

// Trigger phrases for flow entry. Matching is case-insensitive substring.
var (
	builderTriggers = []string{
		"build a pc",
		"build pc",
		"custom pc",
		"pc builder",
		"i want to build a pc",
		"help me build a pc",
	}

	checkoutTriggers = []string{
		"proceed to checkout",
		"checkout",
		"start checkout",
		"buy now",
		"purchase now",
		"go to checkout",
	}
)

// Route decides which path handles the input. It is side-effect-free; entry
// decisions are applied by the caller as an explicit transition. Priority:
// active builder flag, active checkout flag, builder trigger, checkout
// trigger, general.
func Route(meta *Metadata, input string) Decision {
	if meta.Active == KindPCBuilder {
		return DecisionBuilder
	}
	if meta.Active == KindCheckout {
		return DecisionCheckout
	}

	lowered := strings.ToLower(strings.TrimSpace(input))
	for _, trigger := range builderTriggers {
		if strings.Contains(lowered, trigger) {
			return DecisionBuilderEntry
		}
	}
	for _, trigger := range checkoutTriggers {
		if strings.Contains(lowered, trigger) {
			return DecisionCheckoutEntry
		}
	}
	return DecisionGeneral
}
