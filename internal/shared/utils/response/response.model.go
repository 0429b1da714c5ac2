package response

// Envelope is the wire shape of every festreg API response, success or
// failure. Booking rejections additionally carry their failure kind in
// Errors so clients can distinguish a full slot from a consumed payment
// without parsing the message.
type Envelope struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}
