package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// backend is one vendor's API call. It returns the raw reply text; the
// shared vendorProvider turns it into a Response.
type backend interface {
	complete(ctx context.Context, model string, req Request) (reply, error)
}

type reply struct {
	text  string
	usage Usage
	model string
	stop  StopReason
}

// vendorProvider adapts a backend to Provider. It owns request checks,
// structured-output decoding and schema validation for every vendor.
type vendorProvider struct {
	vendor  string
	model   string
	backend backend
}

func newVendorProvider(vendor, model string, b backend) *vendorProvider {
	return &vendorProvider{vendor: vendor, model: model, backend: b}
}

func (p *vendorProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", p.vendor, err)
	}

	r, err := p.backend.complete(ctx, p.model, req)
	if err != nil {
		return nil, err
	}

	content, err := decodeContent(req.Schema, r)
	if err != nil {
		return nil, err
	}

	if r.model == "" {
		r.model = p.model
	}
	if r.usage.TotalTokens == 0 {
		r.usage.TotalTokens = r.usage.InputTokens + r.usage.OutputTokens
	}
	return &Response{Content: content, Usage: r.usage, Model: r.model, StopReason: r.stop}, nil
}

func (p *vendorProvider) ModelID() string {
	return p.model
}

// decodeContent turns reply text into Response content. Schema output may
// arrive wrapped in a Markdown code fence. Invalid output from a reply cut
// at the token limit is reported as ErrMaxTokensExceeded.
func decodeContent(schema *Schema, r reply) (json.RawMessage, error) {
	if schema == nil {
		b, err := json.Marshal(r.text)
		if err != nil {
			return nil, &ErrInvalidResponse{Err: err}
		}
		return b, nil
	}

	raw := json.RawMessage(unfence(r.text))
	if len(raw) == 0 {
		if r.stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{}
		}
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty reply for schema %q", schema.Name)}
	}
	if err := Validate(schema, raw); err != nil {
		if r.stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: raw}
		}
		return nil, err
	}
	return raw, nil
}

// unfence strips a surrounding ``` or ```json fence.
func unfence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names are used as-is.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
