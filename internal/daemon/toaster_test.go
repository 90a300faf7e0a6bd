package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToaster_Send(t *testing.T) {
	sender := &fakeSender{}
	toaster := NewToaster(sender, nil)

	assert.True(t, toaster.Send(context.Background(), "Comment saved!"))
	assert.Equal(t, []string{"Comment saved!"}, sender.sent())
}

func TestToaster_RateLimit(t *testing.T) {
	sender := &fakeSender{}
	toaster := NewToaster(sender, nil)
	toaster.SetMinInterval(time.Second)

	now := time.Now()
	toaster.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, toaster.Send(ctx, "Comment saved!"))
	assert.False(t, toaster.Send(ctx, "Comment saved!"))
	// A different message is not limited.
	assert.True(t, toaster.Send(ctx, "No song playing"))

	now = now.Add(time.Second)
	assert.True(t, toaster.Send(ctx, "Comment saved!"))

	assert.Equal(t, []string{"Comment saved!", "No song playing", "Comment saved!"}, sender.sent())
}

func TestToaster_Disabled(t *testing.T) {
	sender := &fakeSender{}
	toaster := NewToaster(sender, nil)
	toaster.SetEnabled(false)

	assert.False(t, toaster.Send(context.Background(), "Comment saved!"))
	assert.Empty(t, sender.sent())

	assert.False(t, NewToaster(nil, nil).Send(context.Background(), "x"))
}

func TestToaster_SenderError(t *testing.T) {
	sender := &fakeSender{err: errors.New("no server")}
	toaster := NewToaster(sender, nil)

	assert.False(t, toaster.Send(context.Background(), "Comment saved!"))
}

func TestToaster_ToastIsAsync(t *testing.T) {
	sender := &fakeSender{}
	toaster := NewToaster(sender, nil)

	toaster.Toast("Comment saved!")
	assert.Eventually(t, func() bool {
		return len(sender.sent()) == 1
	}, time.Second, 5*time.Millisecond)
}
