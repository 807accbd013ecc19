package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birralog/enrich-cli/pkg/jina"
)

// fakeJina implements jina.Client.
type fakeJina struct {
	resp *jina.ReadResponse
	err  error
}

func (f *fakeJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	return f.resp, f.err
}

func longContent() string {
	out := ""
	for range 20 {
		out += "Il birrificio produce birre artigianali dal 1996. "
	}
	return out
}

func TestJinaAdapter_Scrape(t *testing.T) {
	a := NewJinaAdapter(&fakeJina{resp: &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Title: "Birrificio", URL: "https://b.example", Content: longContent()},
	}})

	result, err := a.Scrape(context.Background(), "https://b.example")

	require.NoError(t, err)
	assert.Equal(t, "jina", result.Source)
	assert.Equal(t, "Birrificio", result.Page.Title)
}

func TestJinaAdapter_NeedsFallbackOnThinContent(t *testing.T) {
	a := NewJinaAdapter(&fakeJina{resp: &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "short"},
	}})

	_, err := a.Scrape(context.Background(), "https://b.example")
	assert.Error(t, err)
}

func TestJinaAdapter_CircuitBreakerOpens(t *testing.T) {
	a := NewJinaAdapter(&fakeJina{err: errors.New("upstream down")})

	for range 3 {
		_, _ = a.Scrape(context.Background(), "https://b.example")
	}

	assert.False(t, a.Supports("https://b.example"))
	_, err := a.Scrape(context.Background(), "https://b.example")
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestNeedsFallback(t *testing.T) {
	assert.True(t, needsFallback(nil))
	assert.True(t, needsFallback(&jina.ReadResponse{Code: 451}))
	assert.True(t, needsFallback(&jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "access denied"}}))
	assert.False(t, needsFallback(&jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: longContent()}}))
}
