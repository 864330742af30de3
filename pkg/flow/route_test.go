package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutePriority(t *testing.T) {
	tests := []struct {
		name  string
		meta  Metadata
		input string
		want  Decision
	}{
		{"active builder wins over checkout trigger", Metadata{Active: KindPCBuilder}, "proceed to checkout", DecisionBuilder},
		{"active checkout wins over builder trigger", Metadata{Active: KindCheckout}, "build a pc", DecisionCheckout},
		{"builder trigger beats checkout trigger", Metadata{}, "I want to build a pc and then checkout", DecisionBuilderEntry},
		{"checkout trigger", Metadata{}, "proceed to checkout", DecisionCheckoutEntry},
		{"bare checkout word", Metadata{}, "Checkout", DecisionCheckoutEntry},
		{"buy now", Metadata{}, "buy now please", DecisionCheckoutEntry},
		{"plain question is general", Metadata{}, "what laptops do you have?", DecisionGeneral},
		{"empty input is general", Metadata{}, "", DecisionGeneral},
		{"case insensitive trigger", Metadata{}, "HELP ME BUILD A PC", DecisionBuilderEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(&tt.meta, tt.input))
		})
	}
}

func TestMetadataMutualExclusion(t *testing.T) {
	var meta Metadata

	meta.EnterCheckout()
	assert.Equal(t, KindCheckout, meta.Active)
	assert.Equal(t, CheckoutStepShipping, meta.CheckoutStep)

	meta.EnterBuilder()
	assert.Equal(t, KindPCBuilder, meta.Active)
	assert.Equal(t, BuilderStepRAM, meta.BuilderStep)
	assert.Empty(t, meta.CheckoutStep, "entering builder clears checkout state")

	meta.Reset()
	assert.Equal(t, KindNone, meta.Active)
}

func TestIsQuestion(t *testing.T) {
	assert.True(t, isQuestion("which one is better?"))
	assert.True(t, isQuestion("what's the difference between these"))
	assert.True(t, isQuestion("can you recommend something"))
	assert.True(t, isQuestion("go back"))
	assert.False(t, isQuestion("2"))
	assert.False(t, isQuestion("0"))
	assert.False(t, isQuestion("skip"))
	assert.False(t, isQuestion(""))
}
