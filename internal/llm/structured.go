package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

const defaultStructuredMaxTokens = 1024

// Structured asks a model for JSON matching the schema of a Go type and
// validates the reply before decoding it.
type Structured struct {
	llm       Completer
	maxTokens int
	logger    *slog.Logger

	schemas sync.Map // reflect.Type -> []byte
}

func NewStructured(llm Completer, logger *slog.Logger) *Structured {
	return &Structured{llm: llm, maxTokens: defaultStructuredMaxTokens, logger: logger}
}

// Invoke fills out, which must be a non-nil pointer to a struct. Every
// failure is returned as an *InferenceError.
func (s *Structured) Invoke(ctx context.Context, op, system, user string, out any) error {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Pointer {
		return &InferenceError{Op: op, Kind: KindSchema, Err: fmt.Errorf("target must be a pointer, got %T", out)}
	}

	schema, err := s.schemaFor(t.Elem())
	if err != nil {
		return &InferenceError{Op: op, Kind: KindSchema, Err: err}
	}

	raw, err := s.llm.Complete(ctx, CompletionRequest{
		System:    system + "\n\nRespond with a single JSON object that validates against this JSON Schema:\n" + string(schema),
		User:      user,
		MaxTokens: s.maxTokens,
		JSON:      true,
	})
	if err != nil {
		return &InferenceError{Op: op, Kind: upstreamKind(ctx, err), Err: err}
	}

	doc := StripCodeFence(raw)
	if err := validate(schema, doc); err != nil {
		s.logger.Warn("structured output rejected", "op", op, "error", err, "raw", raw)
		kind := KindSchema
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			kind = KindMalformed
		}
		return &InferenceError{Op: op, Kind: kind, Err: err}
	}

	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return &InferenceError{Op: op, Kind: KindMalformed, Err: err}
	}
	return nil
}

func (s *Structured) schemaFor(t reflect.Type) ([]byte, error) {
	if cached, ok := s.schemas.Load(t); ok {
		return cached.([]byte), nil
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.ReflectFromType(t)
	schema.Version = ""
	schema.ID = ""

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	s.schemas.Store(t, data)
	return data, nil
}

// SchemaError lists the fields that failed validation.
type SchemaError struct {
	Fields []string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + strings.Join(e.Fields, "; ")
}

func validate(schema []byte, doc string) error {
	if !json.Valid([]byte(doc)) {
		var v any
		return json.Unmarshal([]byte(doc), &v)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &SchemaError{}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Fields = append(verr.Fields, field+": "+desc.Description())
	}
	return verr
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
