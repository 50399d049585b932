package model

import "time"

// The marketplace entities below are owned by collaborator services; the
// payment core only reads the fields it needs for eligibility checks and
// mutates them through narrow repository ports.

type Post struct {
	ID        string
	Owner     PayerRef
	Title     string
	Score     float64
	Views     int64
	Clicks    int64
	Featured  bool
	Active    bool
	CreatedAt time.Time
}

type Escort struct {
	ID         string
	AgencyID   string
	Active     bool
	Verified   bool
	VerifiedAt *time.Time
}

type Agency struct {
	ID            string
	VerifiedCount int
}

// ListingDraft is a staged post the purchaser prepared before paying for an
// extra listing slot. Consumed exactly once by the applier.
type ListingDraft struct {
	ID        string
	Owner     PayerRef
	Title     string
	Body      string
	Consumed  bool
	CreatedAt time.Time
}
