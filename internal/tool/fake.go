package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ludo-technologies/sdlcguard/domain"
)

// FakeResponse is the canned outcome for one tool name
type FakeResponse struct {
	Result *domain.ToolResult
	Err    error
}

// Fake is an in-memory domain.ExternalTool. Unregistered tools behave as
// missing.
type Fake struct {
	mu        sync.Mutex
	responses map[string]FakeResponse
	calls     []domain.ToolInvocation
}

// NewFake creates an empty fake
func NewFake() *Fake {
	return &Fake{responses: make(map[string]FakeResponse)}
}

// Exit registers a tool that exits with code and stdout
func (f *Fake) Exit(name string, code int, stdout string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = FakeResponse{Result: &domain.ToolResult{ExitCode: code, Stdout: stdout}}
	return f
}

// Fail registers a tool that returns err
func (f *Fake) Fail(name string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = FakeResponse{Err: err}
	return f
}

// Run implements domain.ExternalTool
func (f *Fake) Run(_ context.Context, inv domain.ToolInvocation) (*domain.ToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)

	resp, ok := f.responses[inv.Name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", inv.Name, domain.ErrToolMissing)
	}
	if resp.Err != nil {
		return &domain.ToolResult{ExitCode: -1}, resp.Err
	}
	copied := *resp.Result
	return &copied, nil
}

// Calls returns the invocations as "name arg arg" strings
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
	}
	return out
}
