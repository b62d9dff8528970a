package notifier

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/refs"
)

var (
	ErrTimeout           = errors.New("timeout")
	ErrRequestFailed     = errors.New("request failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// Request is the body posted to the githook endpoint.
// Fields are declared in alphabetical order so that debug dumps list keys sorted.
type Request struct {
	DisableRemoteTransform bool   `json:"disable_remote_transform"`
	Name                   string `json:"name"`
	Remote                 string `json:"remote"`
	Trigger                bool   `json:"trigger,omitempty"`
	Value                  string `json:"value"`
}

// NewRequest returns the request for the given ref update. Only the initial
// request of a run sets trigger, the status requests that follow omit it.
func NewRequest(remote string, update refs.RefUpdate, trigger bool) Request {
	return Request{
		DisableRemoteTransform: true,
		Name:                   update.Ref,
		Remote:                 remote,
		Trigger:                trigger,
		Value:                  update.Value,
	}
}

// Response is the JSON object returned by Critic. The presence of a key
// carries the meaning, its value is mostly informative.
type Response map[string]json.RawMessage

func (r Response) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Text returns the value of key as text: strings are unquoted, other values
// are returned in their JSON form.
func (r Response) Text(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Truthy returns whether the value of key is set to something other than
// false, null, zero or an empty string, array or object.
func (r Response) Truthy(key string) (bool, error) {
	raw, ok := r[key]
	if !ok {
		return false, fmt.Errorf("%w: missing '%s'", ErrMalformedResponse, key)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("%w: invalid '%s': %w", ErrMalformedResponse, key, err)
	}
	switch v := v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		return v != "", nil
	case []interface{}:
		return len(v) > 0, nil
	case map[string]interface{}:
		return len(v) > 0, nil
	default:
		return true, nil
	}
}

// Check returns an error carrying the server message unless the status is "ok".
func (r Response) Check() error {
	if !r.Has("status") {
		return fmt.Errorf("%w: missing 'status'", ErrMalformedResponse)
	}
	if r.Text("status") != "ok" {
		return fmt.Errorf("%w: %s", ErrRequestFailed, r.Text("error"))
	}
	return nil
}
