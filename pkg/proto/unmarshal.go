package proto

import (
	"encoding/json"
	"fmt"
)

// UnmarshalReply decodes a vendor reply. A body which is not a JSON object
// results in a parse failure that keeps the raw text.
func UnmarshalReply(data []byte) (*Reply, error) {
	rep := &Reply{}
	if err := json.Unmarshal(data, rep); err != nil {
		return nil, NewParseError(fmt.Sprintf("invalid vendor reply: %s", err.Error()), string(data))
	}
	return rep, nil
}

// Succeeded reports the cloud API's notion of success: result true or code 0.
func (r *Reply) Succeeded() bool {
	if r.Result != nil && *r.Result {
		return true
	}
	return r.Code != nil && *r.Code == 0
}

// SucceededLocally reports the local Game Mode API's notion of success, which
// answers with code 200 instead of 0.
func (r *Reply) SucceededLocally() bool {
	if r.Succeeded() {
		return true
	}
	return r.Code != nil && *r.Code == 200
}

// FailureMessage returns the vendor's message or the given fallback when the
// vendor did not send one.
func (r *Reply) FailureMessage(fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	return fallback
}

// UnmarshalData decodes the data member of the reply into v.
func (r *Reply) UnmarshalData(v interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("reply contains no data")
	}
	return json.Unmarshal(r.Data, v)
}
