package constants

// Emission scopes consumed by the dashboards. Other scope tags are allowed on
// sources and count toward the grand total only.
const (
	Scope1 = "Scope 1"
	Scope2 = "Scope 2"
)

// User statuses
const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// Subscription statuses
const (
	SubscriptionStatusActive  = "Active"
	SubscriptionStatusExpired = "Expired"
)

// Subscription plan types
const (
	PlanTypeFree = "free"
	PlanTypePaid = "paid"
)

// Invitation statuses
const (
	InvitationStatusPending   = "Pending"
	InvitationStatusAccepted  = "Accepted"
	InvitationStatusCancelled = "Cancelled"
)

// Goal statuses
const (
	GoalStatusActive    = "Active"
	GoalStatusCompleted = "Completed"
	GoalStatusCancelled = "Cancelled"
)

// Custom emission source request statuses
const (
	RequestStatusPending  = "Pending"
	RequestStatusApproved = "Approved"
	RequestStatusRejected = "Rejected"
)

// Invoice statuses
const (
	InvoiceStatusPending = "Pending"
	InvoiceStatusPaid    = "Paid"
)

// Payment statuses
const (
	PaymentStatusCompleted = "Completed"
)
