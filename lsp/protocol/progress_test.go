package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressToken_DecodesBothShapes(t *testing.T) {
	var params ProgressParams
	require.NoError(t, json.Unmarshal([]byte(`{"token":"abc","value":{"kind":"end"}}`), &params))
	assert.Equal(t, "abc", params.Token.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"token":12,"value":{"kind":"end"}}`), &params))
	assert.Equal(t, int64(12), params.Token.Value)

	var missing ProgressParams
	require.NoError(t, json.Unmarshal([]byte(`{"value":{"kind":"end"}}`), &missing))
	assert.Nil(t, missing.Token.Value)

	var fractional ProgressParams
	assert.Error(t, json.Unmarshal([]byte(`{"token":1.5}`), &fractional))
}

func TestProgressToken_Marshal(t *testing.T) {
	b, err := json.Marshal(WorkDoneProgressCancelParams{Token: NewIntToken(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":3}`, string(b))

	b, err = json.Marshal(WorkDoneProgressCancelParams{Token: NewStringToken("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"x"}`, string(b))

	_, err = json.Marshal(ProgressToken{Value: 1.5})
	assert.Error(t, err)
}

func TestDecodeWorkDoneProgress(t *testing.T) {
	v, err := DecodeWorkDoneProgress(json.RawMessage(`{"kind":"begin","title":"Indexing","cancellable":true}`))
	require.NoError(t, err)
	begin, ok := v.(WorkDoneProgressBegin)
	require.True(t, ok)
	assert.Equal(t, "Indexing", begin.Title)
	assert.True(t, begin.Cancellable)
	assert.Nil(t, begin.Percentage)

	v, err = DecodeWorkDoneProgress(json.RawMessage(`{"kind":"report","percentage":50,"message":"half"}`))
	require.NoError(t, err)
	report, ok := v.(WorkDoneProgressReport)
	require.True(t, ok)
	require.NotNil(t, report.Percentage)
	assert.Equal(t, uint32(50), *report.Percentage)
	assert.Equal(t, "half", report.Message)

	v, err = DecodeWorkDoneProgress(json.RawMessage(`{"kind":"end"}`))
	require.NoError(t, err)
	assert.IsType(t, WorkDoneProgressEnd{}, v)

	_, err = DecodeWorkDoneProgress(json.RawMessage(`{"kind":"bogus"}`))
	assert.Error(t, err)
	_, err = DecodeWorkDoneProgress(nil)
	assert.Error(t, err)
}

func TestServerCapabilities_Supports(t *testing.T) {
	var caps ServerCapabilities
	require.NoError(t, json.Unmarshal([]byte(`{"workspaceSymbolProvider":true,"executeCommandProvider":null}`), &caps))

	assert.True(t, caps.Supports("workspace/symbol"))
	assert.False(t, caps.Supports("workspace/executeCommand"))
	assert.True(t, caps.Supports("shutdown"))
	assert.False(t, caps.Supports("textDocument/hover"))
}
