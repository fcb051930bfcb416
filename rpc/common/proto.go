package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dEntity/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	IDs      []string            `json:"ids,omitempty"`      // Used for: Update (deleted ids), Get
	Entities []map[string]string `json:"entities,omitempty"` // Used for: Update (request), Get, Find (response)
	Changed  map[string][]string `json:"changed,omitempty"`  // Used for: Update, ids whose record only carries the changed properties
	TypeName string              `json:"type,omitempty"`     // Used for: Find
	Property string              `json:"property,omitempty"` // Used for: Outsourced strings, Find (property filter)
	Value    string              `json:"value,omitempty"`    // Used for: Outsourced strings, Find (property filter)

	// Response only fields
	Ok          bool   `json:"ok,omitempty"`          // Used for: LoadOutsourced responses
	Description string `json:"description,omitempty"` // Used for: Info responses
	Code        uint64 `json:"code,omitempty"`        // store.RetCode of Err
	Err         string `json:"err,omitempty"`         // Empty if no error, otherwise contains the error message
}

// AsError converts the error fields of a response back into a *store.Error.
// Returns nil if the message carries no error.
func (m *Message) AsError() error {
	if m == nil || (m.Err == "" && m.MsgType != MsgTError) {
		return nil
	}
	code := store.RetCode(m.Code)
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewUpdateRequest creates a new Update request. Saved entities are passed as
// data records, deleted entities by id. changed maps an id to the names of the
// properties its record is limited to.
func NewUpdateRequest(saved []map[string]string, deleted []string, changed map[string][]string) *Message {
	return &Message{
		MsgType:  MsgTUpdate,
		Entities: saved,
		IDs:      deleted,
		Changed:  changed,
	}
}

// NewUpdateResponse creates a new Update response
func NewUpdateResponse(err error) *Message {
	return withError(&Message{MsgType: MsgTUpdate}, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(ids ...string) *Message {
	return &Message{
		MsgType: MsgTGet,
		IDs:     ids,
	}
}

// NewGetResponse creates a new Get response. Unknown ids are omitted.
func NewGetResponse(entities []map[string]string, err error) *Message {
	return withError(&Message{
		MsgType:  MsgTGet,
		Entities: entities,
	}, err)
}

// NewFindRequest creates a new Find request. An empty property matches every
// entity of the type.
func NewFindRequest(typeName, property, value string) *Message {
	return &Message{
		MsgType:  MsgTFind,
		TypeName: typeName,
		Property: property,
		Value:    value,
	}
}

// NewFindResponse creates a new Find response
func NewFindResponse(entities []map[string]string, err error) *Message {
	return withError(&Message{
		MsgType:  MsgTFind,
		Entities: entities,
	}, err)
}

// NewLoadOutsourcedRequest creates a new LoadOutsourced request
func NewLoadOutsourcedRequest(id, property string) *Message {
	return &Message{
		MsgType:  MsgTLoadOutsourced,
		IDs:      []string{id},
		Property: property,
	}
}

// NewLoadOutsourcedResponse creates a new LoadOutsourced response
func NewLoadOutsourcedResponse(value string, ok bool, err error) *Message {
	return withError(&Message{
		MsgType: MsgTLoadOutsourced,
		Value:   value,
		Ok:      ok,
	}, err)
}

// NewSaveOutsourcedRequest creates a new SaveOutsourced request
func NewSaveOutsourcedRequest(id, property, value string) *Message {
	return &Message{
		MsgType:  MsgTSaveOutsourced,
		IDs:      []string{id},
		Property: property,
		Value:    value,
	}
}

// NewSaveOutsourcedResponse creates a new SaveOutsourced response
func NewSaveOutsourcedResponse(err error) *Message {
	return withError(&Message{MsgType: MsgTSaveOutsourced}, err)
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{MsgType: MsgTInfo}
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(description string, err error) *Message {
	return withError(&Message{
		MsgType:     MsgTInfo,
		Description: description,
	}, err)
}

// NewErrorResponse creates a new Error response. The store.RetCode of err is
// kept so the client can restore the typed error.
func NewErrorResponse(err error) *Message {
	if err == nil {
		err = errors.New("unknown error")
	}
	return withError(&Message{MsgType: MsgTError}, err)
}

func withError(msg *Message, err error) *Message {
	if err != nil {
		msg.Err = err.Error()
		msg.Code = uint64(store.CodeOf(err))
		// the client wraps the message into a new store.Error
		if storeErr, ok := err.(*store.Error); ok {
			msg.Err = storeErr.Msg
			if storeErr.Cause != nil {
				msg.Err = fmt.Sprintf("%s: %v", storeErr.Msg, storeErr.Cause)
			}
		}
	}
	return msg
}

// --------------------------------------------------------------------------
// Push Notification
// --------------------------------------------------------------------------

// Notification is sent to every push subscriber of a shard after an update was applied
type Notification struct {
	Shard    uint64              `json:"shard"`
	Entities []map[string]string `json:"entities,omitempty"`
	Deleted  []string            `json:"deleted,omitempty"`
}

// IsEmpty reports whether the notification carries no changes
func (n *Notification) IsEmpty() bool {
	return len(n.Entities) == 0 && len(n.Deleted) == 0
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTSuccess:
		return "success"
	case MsgTError:
		return "error"
	case MsgTUpdate:
		return "update"
	case MsgTGet:
		return "get"
	case MsgTFind:
		return "find"
	case MsgTLoadOutsourced:
		return "loadOutsourced"
	case MsgTSaveOutsourced:
		return "saveOutsourced"
	case MsgTInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseMessageType converts the string representation back to a MessageType
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "success":
		return MsgTSuccess, nil
	case "error":
		return MsgTError, nil
	case "update":
		return MsgTUpdate, nil
	case "get":
		return MsgTGet, nil
	case "find":
		return MsgTFind, nil
	case "loadOutsourced":
		return MsgTLoadOutsourced, nil
	case "saveOutsourced":
		return MsgTSaveOutsourced, nil
	case "info":
		return MsgTInfo, nil
	case "unknown":
		return MsgTUnknown, nil
	default:
		return MsgTUnknown, fmt.Errorf("unknown message type: %s", s)
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMessageType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Backend operations

	MsgTUpdate         // Apply a change set
	MsgTGet            // Get entities by id
	MsgTFind           // Find entities of a type
	MsgTLoadOutsourced // Load an outsourced string
	MsgTSaveOutsourced // Save an outsourced string
	MsgTInfo           // Describe the backend of a shard
)
