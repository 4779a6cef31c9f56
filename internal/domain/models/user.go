package models

type UserRole string

const (
	RoleTenant UserRole = "tenant"
	RoleOwner  UserRole = "property_owner"
	RoleAgent  UserRole = "agent"
	RoleAdmin  UserRole = "admin"
)

// User carries the minimal account data the core flows need.
type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone,omitempty"`
	Role           UserRole `json:"role"`
	SubaccountCode string   `json:"-"`
}

type PropertyStatus string

const (
	PropertyDraft         PropertyStatus = "draft"
	PropertyPendingReview PropertyStatus = "pending_review"
	PropertyActive        PropertyStatus = "active"
	PropertyRented        PropertyStatus = "rented"
	PropertySuspended     PropertyStatus = "suspended"
	PropertyArchived      PropertyStatus = "archived"
)

// Property carries the listing fields bookings and agreements validate
// against. Listing CRUD itself lives outside this service.
type Property struct {
	ID      string         `json:"id"`
	OwnerID string         `json:"ownerId"`
	AgentID string         `json:"agentId,omitempty"`
	Title   string         `json:"title"`
	Status  PropertyStatus `json:"status"`
}
