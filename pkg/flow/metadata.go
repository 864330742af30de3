// Package flow implements the per-session flow state machine: routing each
// inbound message to the general path, the checkout flow, or the PC-builder
// flow, and running the deterministic step machines for the latter two.
package flow

import "shopassist/pkg/commerce"

// Kind identifies which flow, if any, is active for a session.
type Kind string

const (
	KindNone      Kind = ""
	KindCheckout  Kind = "checkout"
	KindPCBuilder Kind = "pc_builder"
)

// Checkout steps. The persisted step always reflects the state expected for
// the next inbound message.
type CheckoutStep string

const (
	CheckoutStepShipping  CheckoutStep = "shipping"
	CheckoutStepCoupon    CheckoutStep = "coupon"
	CheckoutStepReview    CheckoutStep = "review"
	CheckoutStepOrder     CheckoutStep = "order"
	CheckoutStepCompleted CheckoutStep = "completed"
)

// PC-builder steps, in selection order.
type BuilderStep string

const (
	BuilderStepRAM         BuilderStep = "ram"
	BuilderStepSSD         BuilderStep = "ssd"
	BuilderStepCPU         BuilderStep = "cpu"
	BuilderStepGPU         BuilderStep = "gpu"
	BuilderStepPSU         BuilderStep = "psu"
	BuilderStepMotherboard BuilderStep = "motherboard"
	BuilderStepAirCooler   BuilderStep = "aircooler"
	BuilderStepCase        BuilderStep = "case"
	BuilderStepCompleted   BuilderStep = "completed"
)

// BuilderStepOrder lists the component selection steps in sequence.
var BuilderStepOrder = []BuilderStep{
	BuilderStepRAM,
	BuilderStepSSD,
	BuilderStepCPU,
	BuilderStepGPU,
	BuilderStepPSU,
	BuilderStepMotherboard,
	BuilderStepAirCooler,
	BuilderStepCase,
}

// CheckoutData is the checkout flow's working state.
type CheckoutData struct {
	AddressID    string             `json:"address_id,omitempty"`
	AddressLabel string             `json:"address_label,omitempty"`
	CouponCode   string             `json:"coupon_code,omitempty"`
	Addresses    []commerce.Address `json:"addresses,omitempty"`
	Coupons      []commerce.Coupon  `json:"coupons,omitempty"`
}

// BuilderData is the PC-builder flow's working state. Candidates holds the
// product menu rendered for the current persisted step.
type BuilderData struct {
	BuildID    string             `json:"build_id,omitempty"`
	Candidates []commerce.Product `json:"candidates,omitempty"`
}

// Metadata is the flow state persisted with a session. At most one flow is
// active at a time; entering one clears the other.
type Metadata struct {
	Active       Kind         `json:"active,omitempty"`
	CheckoutStep CheckoutStep `json:"checkout_step,omitempty"`
	Checkout     CheckoutData `json:"checkout,omitempty"`
	BuilderStep  BuilderStep  `json:"builder_step,omitempty"`
	Builder      BuilderData  `json:"builder,omitempty"`
}

// Reset clears all flow state.
func (m *Metadata) Reset() {
	*m = Metadata{}
}

// EnterCheckout activates the checkout flow, clearing any builder state.
func (m *Metadata) EnterCheckout() {
	m.Reset()
	m.Active = KindCheckout
	m.CheckoutStep = CheckoutStepShipping
}

// EnterBuilder activates the PC-builder flow, clearing any checkout state.
func (m *Metadata) EnterBuilder() {
	m.Reset()
	m.Active = KindPCBuilder
	m.BuilderStep = BuilderStepRAM
}
