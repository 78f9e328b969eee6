package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		wantErr  string
		wantUser string
	}{
		{
			name:     "what only",
			err:      &Error{What: "something broke"},
			wantErr:  "something broke",
			wantUser: "Error: something broke",
		},
		{
			name:     "what and why",
			err:      &Error{What: "something broke", Why: "bad input"},
			wantErr:  "something broke: bad input",
			wantUser: "Error: something broke\n\nWhy: bad input",
		},
		{
			name:     "with fix",
			err:      &Error{What: "something broke", Why: "bad input", Fix: "try again"},
			wantErr:  "something broke: bad input",
			wantUser: "Error: something broke\n\nWhy: bad input\n\nFix: try again",
		},
		{
			name:     "with cause",
			err:      &Error{What: "something broke", Cause: errors.New("underlying error")},
			wantErr:  "something broke: underlying error",
			wantUser: "Error: something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tt.err.Error())
			assert.Equal(t, tt.wantUser, tt.err.UserMessage())
		})
	}
}

func TestNotification(t *testing.T) {
	title, desc := ErrParse("/cfg/tiler.yaml", errors.New("line 3: bad indent")).Notification()
	assert.Equal(t, "failed to parse configuration", title)
	assert.Equal(t, "/cfg/tiler.yaml: line 3: bad indent", desc)

	title, desc = (&Error{What: "plain"}).Notification()
	assert.Equal(t, "plain", title)
	assert.Empty(t, desc)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityInfo, ErrNotFound("/x").Severity())
	assert.Equal(t, SeverityError, ErrRead("/x", errors.New("denied")).Severity())
	assert.Equal(t, SeverityError, ErrParse("/x", errors.New("bad")).Severity())
	assert.Equal(t, SeverityError, ErrWatch("/x", errors.New("overflow")).Severity())
}

func TestErrorJSON(t *testing.T) {
	err := ErrRead("/cfg/tiler.yaml", errors.New("permission denied"))

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, string(CodeIO), result["code"])
	assert.Equal(t, "/cfg/tiler.yaml", result["path"])
	assert.Equal(t, "permission denied", result["cause"])
}

func TestAsErrorThroughWrapping(t *testing.T) {
	base := ErrNotFound("/cfg/tiler.yaml")
	wrapped := fmt.Errorf("load wm: %w", base)

	got := AsError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Code: CodeNotFound}))
	assert.False(t, errors.Is(wrapped, &Error{Code: CodeIO}))

	assert.Nil(t, AsError(errors.New("plain")))
	assert.Nil(t, AsError(nil))
}

func TestWithCause(t *testing.T) {
	orig := ErrInvalidKey("monitors.x", "not an index")
	cause := errors.New("strconv: bad")
	withCause := orig.WithCause(cause)

	assert.Nil(t, orig.Cause, "original must not be mutated")
	assert.Equal(t, cause, withCause.Cause)
	assert.Equal(t, orig.Code, withCause.Code)
	assert.ErrorIs(t, withCause, cause)
}

func TestErrRevisionNotFound(t *testing.T) {
	err := ErrRevisionNotFound(42)
	assert.Equal(t, CodeRevisionNotFound, err.Code)
	assert.Equal(t, "revision 42 not found", err.What)
	assert.NotEmpty(t, err.Fix)
}
