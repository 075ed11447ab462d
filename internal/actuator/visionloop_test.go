package actuator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpilot/internal/bus"
	"deskpilot/internal/capability/sim"
)

// fakePlanner answers navigation requests with scripted decisions.
func fakePlanner(t *testing.T, b *bus.Bus, decisions []bus.VisionAction) {
	t.Helper()
	go func() {
		for _, decision := range decisions {
			reqMsg, err := b.Receive(context.Background(), bus.TopicVisionRequest, 5*time.Second)
			if err != nil || reqMsg == nil {
				return
			}
			respMsg, err := b.ReceiveByID(context.Background(), bus.TopicVisionResponse, reqMsg.ID, 5*time.Second)
			if err != nil || respMsg == nil {
				return
			}
			var resp bus.VisionResponse
			if respMsg.Decode(&resp) != nil || resp.ScreenshotBase64 == "" {
				return
			}
			decision.RequestID = reqMsg.ID
			actionMsg, err := bus.Reply(reqMsg, bus.TypeVisionAction, decision)
			if err != nil {
				return
			}
			_ = b.Send(bus.TopicVisionAction, actionMsg)
		}
	}()
}

func newLoop(t *testing.T) (*NavigationLoop, *bus.Bus, *sim.Surface) {
	t.Helper()
	b := bus.New(t.TempDir(), bus.WithPollTick(10*time.Millisecond))
	require.NoError(t, b.EnsureTopics())
	surface := sim.New()
	loop := NewNavigationLoop(b, surface, surface, surface)
	loop.ActionWait = 5 * time.Second
	return loop, b, surface
}

func TestNavigateSingleRound(t *testing.T) {
	loop, b, surface := newLoop(t)
	fakePlanner(t, b, []bus.VisionAction{
		{Action: bus.NavClick, Coordinates: &bus.Position{X: 300, Y: 400}, RequestFollowup: false},
	})

	res, err := loop.Navigate(context.Background(), "dismiss banner", "banner gone", 5)
	require.NoError(t, err)

	out := res.(map[string]any)
	assert.Equal(t, "complete", out["status"])
	assert.Equal(t, 1, out["iterations"])

	names := surface.CallNames()
	assert.Contains(t, names, "pointer.move")
	assert.Contains(t, names, "pointer.click")

	// The outcome is reported on the result topic.
	resultMsg, err := b.Receive(context.Background(), bus.TopicVisionResult, time.Second)
	require.NoError(t, err)
	require.NotNil(t, resultMsg)
	var result bus.VisionResult
	require.NoError(t, resultMsg.Decode(&result))
	assert.Equal(t, bus.VisionStatusSuccess, result.Status)
	assert.NotEmpty(t, result.ScreenshotBase64)
}

func TestNavigateIteratesOnFollowup(t *testing.T) {
	loop, b, surface := newLoop(t)
	fakePlanner(t, b, []bus.VisionAction{
		{Action: bus.NavClick, Coordinates: &bus.Position{X: 100, Y: 100}, RequestFollowup: true},
		{Action: bus.NavType, Text: "hello", RequestFollowup: false},
	})

	res, err := loop.Navigate(context.Background(), "fill the form", "form submitted", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.(map[string]any)["iterations"])

	names := surface.CallNames()
	assert.Contains(t, names, "pointer.click")
	assert.Contains(t, names, "keyboard.type")
}

func TestNavigateStopsAtIterationCap(t *testing.T) {
	loop, b, _ := newLoop(t)
	fakePlanner(t, b, []bus.VisionAction{
		{Action: bus.NavClick, Coordinates: &bus.Position{X: 1, Y: 1}, RequestFollowup: true},
		{Action: bus.NavClick, Coordinates: &bus.Position{X: 2, Y: 2}, RequestFollowup: true},
	})

	res, err := loop.Navigate(context.Background(), "task", "goal", 2)
	require.NoError(t, err)

	out := res.(map[string]any)
	assert.Equal(t, "max_iterations", out["status"])
	assert.Equal(t, 2, out["iterations"])
}

func TestNavigateTimesOutWithoutDecision(t *testing.T) {
	loop, b, _ := newLoop(t)
	loop.ActionWait = 100 * time.Millisecond

	_, err := loop.Navigate(context.Background(), "task", "goal", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	// Drain the request so nothing lingers, then confirm the timeout was
	// reported.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg, rerr := b.Receive(context.Background(), bus.TopicVisionResult, 100*time.Millisecond)
		require.NoError(t, rerr)
		if msg == nil {
			continue
		}
		var result bus.VisionResult
		require.NoError(t, msg.Decode(&result))
		assert.Equal(t, bus.VisionStatusTimeout, result.Status)
		return
	}
	t.Fatal("no timeout result published")
}
