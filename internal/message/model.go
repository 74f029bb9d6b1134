package message

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Body      string    `bun:"body,type:text,notnull" json:"body"`
	Username  string    `bun:"username,type:text,notnull" json:"username"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type CreateMessageRequest struct {
	Body     string `json:"body" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// UpdateMessageRequest holds the fields a PATCH may change. A nil field is left
// untouched; Ignored lists the keys of the payload that are not updatable.
type UpdateMessageRequest struct {
	Body     *string  `json:"body,omitempty" validate:"omitnil,min=1"`
	Username *string  `json:"username,omitempty" validate:"omitnil,min=1"`
	Ignored  []string `json:"-"`
}

// DecodeUpdateRequest reads a PATCH payload through an explicit allow-list of keys.
// An explicit null counts as an empty value so validation rejects it.
func DecodeUpdateRequest(data []byte) (UpdateMessageRequest, error) {
	var req UpdateMessageRequest

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return req, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return req, err
	}

	for key, raw := range fields {
		var err error
		switch key {
		case "body":
			req.Body, err = decodeStringField(raw)
		case "username":
			req.Username, err = decodeStringField(raw)
		default:
			req.Ignored = append(req.Ignored, key)
		}
		if err != nil {
			return UpdateMessageRequest{}, err
		}
	}
	sort.Strings(req.Ignored)

	return req, nil
}

func decodeStringField(raw json.RawMessage) (*string, error) {
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	if value == nil {
		empty := ""
		return &empty, nil
	}
	return value, nil
}

// IsEmpty reports whether the payload carried no keys at all.
func (r UpdateMessageRequest) IsEmpty() bool {
	return r.Body == nil && r.Username == nil && len(r.Ignored) == 0
}

// Apply copies the provided fields onto m and returns the columns that changed.
func (r UpdateMessageRequest) Apply(m *Message) []string {
	var columns []string
	if r.Body != nil {
		m.Body = *r.Body
		columns = append(columns, "body")
	}
	if r.Username != nil {
		m.Username = *r.Username
		columns = append(columns, "username")
	}
	return columns
}
