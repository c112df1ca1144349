package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrainerDisplayName(t *testing.T) {
	assert.Equal(t, "Dana", (&TrainerContact{FirstName: "Dana", FullName: "Dana Reyes"}).DisplayName())
	assert.Equal(t, "Dana Reyes", (&TrainerContact{FullName: "Dana Reyes"}).DisplayName())
	assert.Equal(t, "Trainer", (&TrainerContact{Email: "coach@example.com"}).DisplayName())
}
