package domain

import "encoding/json"

// ShippingInfo is the delivery contact captured at checkout. Unknown keys are
// dropped; "name" is accepted for older clients that did not send "fullName"
type ShippingInfo struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Address  string `json:"address" validate:"required,min=10,max=255"`
	City     string `json:"city" validate:"required,min=2,max=100"`
	District string `json:"district" validate:"required,min=2,max=100"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}

func (s *ShippingInfo) UnmarshalJSON(data []byte) error {
	type plain ShippingInfo
	var aux struct {
		plain
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = ShippingInfo(aux.plain)
	if s.FullName == "" {
		s.FullName = aux.Name
	}
	return nil
}
