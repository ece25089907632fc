package dto

import (
	"bytes"
	"encoding/json"
	"errors"
)

// OTPCode accepts the code either as a JSON string ("123456") or a JSON number (123456).
// The raw text is kept as-is; numeric interpretation happens at verification time.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = OTPCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("otp must be a string or a number")
	}
	*c = OTPCode(n.String())
	return nil
}

func (c OTPCode) String() string {
	return string(c)
}
