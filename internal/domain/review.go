package domain

import "time"

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

// Review moderation states. Only approved reviews are public and count
// toward a product's rating.
const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Review is a star rating with a comment, attributed by display name.
type Review struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	UserName  string       `json:"userName"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ReviewStats counts reviews per moderation state.
type ReviewStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Products int         `json:"products"`
	Users    int         `json:"users"`
	Reviews  ReviewStats `json:"reviews"`
}
