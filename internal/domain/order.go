package domain

import "time"

// Order describes one purchase transaction.
type Order struct {
	Identity
	Created time.Time `json:"created"`
	Changed time.Time `json:"changed"`
}

func (o *Order) Kind() Kind { return KindOrder }
