package models

// CardData holds card details for a single checkout submission. It lives in
// memory only and is handed to the gateway once; it is never persisted.
type CardData struct {
	Number      string `json:"-"`
	HolderName  string `json:"holder_name"`
	ExpiryMonth string `json:"-"`
	ExpiryYear  string `json:"-"`
	CVC         string `json:"-"`
}

// LastFour returns the trailing digits used for display and logging.
func (c CardData) LastFour() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}
