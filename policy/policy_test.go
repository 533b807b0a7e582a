package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()

	p, err := New(ctx, "")
	assert.NoError(t, err)

	operator := Input{
		Subject:   "ops",
		Audiences: []string{"operators"},
	}

	for _, action := range []string{"pause", "resume", "next", "previous", "reload"} {
		operator.Action = action
		assert.True(t, p.Allow(ctx, operator), action)
	}

	chair := Input{
		Subject:   "chair",
		Audiences: []string{"chairs"},
	}

	chair.Action = "pause"
	assert.True(t, p.Allow(ctx, chair))

	chair.Action = "reload"
	assert.False(t, p.Allow(ctx, chair), "chairs cannot reload the program")

	nobody := Input{
		Subject: "guest",
		Action:  "pause",
	}
	assert.False(t, p.Allow(ctx, nobody))
}

func TestCustomPolicyFile(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, "does/not/exist.rego")
	assert.Error(t, err)
}
