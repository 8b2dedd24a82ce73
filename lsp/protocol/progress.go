package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LSP method names the progress bridge speaks.
const (
	MethodWorkDoneProgressCreate = "window/workDoneProgress/create"
	MethodWorkDoneProgressCancel = "window/workDoneProgress/cancel"
	MethodProgress               = "$/progress"
)

// ProgressToken is the `integer | string` token of a progress stream. Value
// is either a string or an int64 after decoding.
type ProgressToken struct {
	Value any
}

func NewStringToken(s string) ProgressToken {
	return ProgressToken{Value: s}
}

func NewIntToken(i int64) ProgressToken {
	return ProgressToken{Value: i}
}

func (t ProgressToken) MarshalJSON() ([]byte, error) {
	switch v := t.Value.(type) {
	case string, int64, int, int32:
		return json.Marshal(v)
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("progress token must be a string or an integer, got %T", v)
	}
}

func (t *ProgressToken) UnmarshalJSON(data []byte) error {
	*t = ProgressToken{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t.Value = s
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("progress token must be a string or an integer: %w", err)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("progress token %s is not an integer", n)
	}
	t.Value = i
	return nil
}

// WorkDoneProgressCreateParams is sent by the server to announce a token.
type WorkDoneProgressCreateParams struct {
	// The token to be used to report progress.
	Token ProgressToken `json:"token"`
}

// WorkDoneProgressCancelParams is sent by the client to abandon a token.
type WorkDoneProgressCancelParams struct {
	// The token to be used to report progress.
	Token ProgressToken `json:"token"`
}

// ProgressParams is the payload of a `$/progress` notification. Value is kept
// raw so it can be decoded by kind.
type ProgressParams struct {
	Token ProgressToken   `json:"token"`
	Value json.RawMessage `json:"value"`
}

// WorkDoneProgressKind discriminates the `$/progress` value.
type WorkDoneProgressKind string

const (
	KindBegin  WorkDoneProgressKind = "begin"
	KindReport WorkDoneProgressKind = "report"
	KindEnd    WorkDoneProgressKind = "end"
)

type WorkDoneProgressBegin struct {
	Kind        WorkDoneProgressKind `json:"kind"`
	Title       string               `json:"title"`
	Cancellable bool                 `json:"cancellable,omitempty"`
	Message     string               `json:"message,omitempty"`
	Percentage  *uint32              `json:"percentage,omitempty"`
}

type WorkDoneProgressReport struct {
	Kind        WorkDoneProgressKind `json:"kind"`
	Cancellable bool                 `json:"cancellable,omitempty"`
	Message     string               `json:"message,omitempty"`
	Percentage  *uint32              `json:"percentage,omitempty"`
}

type WorkDoneProgressEnd struct {
	Kind    WorkDoneProgressKind `json:"kind"`
	Message string               `json:"message,omitempty"`
}

// DecodeWorkDoneProgress decodes a `$/progress` value into one of
// WorkDoneProgressBegin, WorkDoneProgressReport or WorkDoneProgressEnd.
func DecodeWorkDoneProgress(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty progress value")
	}
	var head struct {
		Kind WorkDoneProgressKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("progress value: %w", err)
	}
	switch head.Kind {
	case KindBegin:
		var v WorkDoneProgressBegin
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("progress begin: %w", err)
		}
		return v, nil
	case KindReport:
		var v WorkDoneProgressReport
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("progress report: %w", err)
		}
		return v, nil
	case KindEnd:
		var v WorkDoneProgressEnd
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("progress end: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown progress kind %q", head.Kind)
	}
}
