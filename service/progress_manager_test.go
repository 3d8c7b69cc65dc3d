package service

import (
	"bytes"
	"testing"

	"github.com/ludo-technologies/sdlcguard/domain"
)

func TestNewProgressManager_Disabled(t *testing.T) {
	pm := NewProgressManager(false)
	if pm.IsInteractive() {
		t.Error("expected non-interactive progress manager when disabled")
	}
}

func TestIsInteractiveEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	if IsInteractiveEnvironment() {
		t.Error("CI environments must not be interactive")
	}
}

func TestNoOpProgressManager(t *testing.T) {
	pm := &NoOpProgressManager{}
	task := pm.StartTask("checks", 3)
	if task == nil {
		t.Fatal("expected non-nil task from StartTask")
	}
	task.Increment(1)
	task.Describe("branch-compliance")
	task.Complete()
	pm.Close()
}

func TestProgressManagerImpl_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	pm := NewProgressManagerWithWriter(&buf)

	task := pm.StartTask("Running checks", 2)
	task.Increment(1)
	task.Increment(1)
	task.Complete()
	pm.Close()

	if buf.Len() == 0 {
		t.Error("expected progress output")
	}

	var _ domain.ProgressManager = pm
	var _ domain.TaskProgress = &TaskProgressImpl{}
}
