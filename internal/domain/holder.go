package domain

import "time"

// AccountHolder is the identity attached to an account. It is immutable
// after construction; the registration time is captured when the holder
// record is created.
type AccountHolder struct {
	LastName     string    `json:"last_name"`
	FirstName    string    `json:"first_name"`
	CreditRating int       `json:"credit_rating"`
	RegisteredAt time.Time `json:"registered_at"`
}

func NewAccountHolder(lastName, firstName string, creditRating int) AccountHolder {
	return AccountHolder{
		LastName:     lastName,
		FirstName:    firstName,
		CreditRating: creditRating,
		RegisteredAt: time.Now(),
	}
}
