package server

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/livetemplate/studio/internal/builder"
	"github.com/livetemplate/studio/internal/workspace"
)

// MessageEnvelope is a WebSocket message in either direction.
type MessageEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Inbound actions.
const (
	ActionPointerDown    = "pointerdown"
	ActionPointerMove    = "pointermove"
	ActionPointerUp      = "pointerup"
	ActionCanvasDown     = "canvasdown"
	ActionPick           = "pick"
	ActionAdd            = "add"
	ActionUpdate         = "update"
	ActionEdit           = "edit"
	ActionMove           = "move"
	ActionDelete         = "delete"
	ActionDeleteSelected = "deleteSelected"
	ActionSave           = "save"
	ActionBackground     = "background"
)

// Outbound actions.
const (
	ActionState   = "state"
	ActionBuffers = "buffers"
	ActionError   = "error"
)

type pointerDownData struct {
	ID string  `json:"id" validate:"required"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type pointerMoveData struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	CanvasX float64 `json:"canvasX"`
	CanvasY float64 `json:"canvasY"`
}

type idData struct {
	ID string `json:"id" validate:"required"`
}

type addData struct {
	Type    string `json:"type" validate:"required,oneof=text link image"`
	Content string `json:"content" validate:"required"`
	Href    string `json:"href"`
}

type updateData struct {
	ID    string             `json:"id" validate:"required"`
	Patch builder.StylePatch `json:"patch"`
}

type editData struct {
	Patch builder.StylePatch `json:"patch"`
}

type moveData struct {
	ID string `json:"id" validate:"required"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

type backgroundData struct {
	Color string `json:"color" validate:"required,color"`
}

// bufferRequest is the body of PUT /api/buffers/{key}.
type bufferRequest struct {
	Value *string `json:"value" validate:"required"`
}

// statePayload is sent with ActionState.
type statePayload struct {
	Session string `json:"session"`
	builder.Snapshot
}

// buffersPayload is sent with ActionBuffers.
type buffersPayload struct {
	Project string `json:"project"`
	workspace.Snapshot
}

type errorPayload struct {
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return builder.ValidColor(fl.Field().String())
	})
	return v
}

func envelope(action string, payload interface{}) (MessageEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return MessageEnvelope{}, err
	}
	return MessageEnvelope{Action: action, Data: data}, nil
}
