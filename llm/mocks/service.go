package llm_mocks

import (
	"context"

	"github.com/chronos-hq/chronos-agent/llm"
)

// FakeService is a configurable test double for the LLM service.
// GenerateStub receives the full request so tests can script per-prompt
// responses; unset stubs return the Response field.
type FakeService struct {
	GenerateStub func(ctx context.Context, req llm.GenerateRequest) (string, error)

	Response string
	Enabled  bool
	Provider string
	Model    string

	GenerateCallCount int
	Requests          []llm.GenerateRequest
}

func (f *FakeService) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	f.GenerateCallCount++
	f.Requests = append(f.Requests, req)
	if f.GenerateStub != nil {
		return f.GenerateStub(ctx, req)
	}
	return f.Response, nil
}

func (f *FakeService) IsEnabled() bool {
	return f.Enabled
}

func (f *FakeService) GetProvider() string {
	return f.Provider
}

func (f *FakeService) GetModel() string {
	return f.Model
}
