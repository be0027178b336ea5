package drone

import "net/http"

// Outcome statuses. These literals are part of the client contract.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type failureKind int

const (
	kindNone failureKind = iota
	kindValidation
	kindLogical
	kindTransport
	kindTimeout
)

// Outcome is the uniform result shape returned for every command. It is
// the only thing clients ever see; raw faults never leave the dispatcher.
type Outcome struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	State   State  `json:"state,omitempty"`

	kind failureKind
}

// Succeeded reports whether the outcome carries a success status.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// HTTPStatus maps the outcome onto the status code used by the HTTP
// surface: validation failures are the client's fault, transport timeouts
// are the drone's, everything else that failed is ours.
func (o Outcome) HTTPStatus() int {
	switch o.kind {
	case kindNone:
		return http.StatusOK
	case kindValidation:
		return http.StatusBadRequest
	case kindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func success(message string) Outcome {
	return Outcome{Status: StatusSuccess, Message: message}
}

func successState(state State) Outcome {
	return Outcome{Status: StatusSuccess, State: state}
}

func failure(kind failureKind, message string) Outcome {
	return Outcome{Status: StatusError, Message: message, kind: kind}
}
