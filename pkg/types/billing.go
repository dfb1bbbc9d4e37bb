package types

// BillingDetails is the name/email pair observed on a gateway charge.
// Either field may be empty; consumers fall back to the payer profile.
type BillingDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
