package kube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
)

type Status string

const (
	StatusCreated Status = "created"
	StatusPatched Status = "patched"
	StatusError   Status = "error"
)

// Outcome is the settled result of one upsert. Failures the API server
// reported are carried here with StatusError instead of being returned.
type Outcome struct {
	Kind   string
	Name   string
	Status Status
	Detail string
}

// MarshalJSON writes {"<kind>":"create ok"}, {"<kind>":"patching ok"} or {"error":"..."}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Status {
	case StatusCreated:
		return json.Marshal(map[string]string{o.Kind: "create ok"})
	case StatusPatched:
		return json.Marshal(map[string]string{o.Kind: "patching ok"})
	default:
		return json.Marshal(map[string]string{"error": o.Detail})
	}
}

// Object is satisfied by every typed API object pointer.
type Object interface {
	metav1.Object
	runtime.Object
}

// ResourceClient is the slice of a typed client-go resource interface the upsert needs.
type ResourceClient[T Object] interface {
	Create(ctx context.Context, obj T, opts metav1.CreateOptions) (T, error)
	Patch(ctx context.Context, name string, pt types.PatchType, data []byte, opts metav1.PatchOptions, subresources ...string) (T, error)
}

// Upsert creates obj and, if the create is answered with 409, strategic-merge
// patches it with the full object body once. The error result is non-nil
// only when the create failed without any API status, e.g. the server was
// unreachable.
func Upsert[T Object](ctx context.Context, kind string, client ResourceClient[T], obj T) (Outcome, error) {
	outcome := Outcome{Kind: kind, Name: obj.GetName()}

	_, err := client.Create(ctx, obj, metav1.CreateOptions{})
	if err == nil {
		outcome.Status = StatusCreated
		return outcome, nil
	}

	code, ok := statusCode(err)
	if code != http.StatusConflict {
		outcome.Status = StatusError
		outcome.Detail = fmt.Sprintf("error creating %s: %v", kind, err)
		if !ok {
			return outcome, fmt.Errorf("create %s %s: %w", kind, outcome.Name, err)
		}
		return outcome, nil
	}

	data, err := json.Marshal(obj)
	if err != nil {
		outcome.Status = StatusError
		outcome.Detail = fmt.Sprintf("error encoding %s patch: %v", kind, err)
		return outcome, nil
	}

	if _, err := client.Patch(ctx, outcome.Name, types.StrategicMergePatchType, data, metav1.PatchOptions{}); err != nil {
		outcome.Status = StatusError
		outcome.Detail = fmt.Sprintf("error patching %s: %v", kind, err)
		return outcome, nil
	}

	outcome.Status = StatusPatched
	return outcome, nil
}

// statusCode reports the HTTP code the API server attached to err. ok is
// false when err carries no API status at all.
func statusCode(err error) (code int32, ok bool) {
	var status apierrors.APIStatus
	if !errors.As(err, &status) {
		return 0, false
	}
	return status.Status().Code, true
}
