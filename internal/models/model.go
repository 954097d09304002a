package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket lifecycle. Tickets are never deleted; cancellation is a status
// transition so the validation history stays intact.
const (
	TicketStatusIssued    = "issued"
	TicketStatusCancelled = "cancelled"
)

// Admission decision outcomes recorded per gate scan.
const (
	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// Denial reason codes surfaced to gate devices.
const (
	ReasonTicketCancelled    = "ticket_cancelled"
	ReasonSectorNotPermitted = "sector_not_permitted"
	ReasonManualCheckIn      = "manual_checkin"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null;default:'admin'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is the tenant boundary. Every participant, ticket and validation
// record belongs to exactly one event; the static box-office and gate tokens
// plus the public registration token are independent per-event secrets.
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `json:"date"`

	BoxOfficeToken    string `gorm:"uniqueIndex;not null" json:"-"`
	GateToken         string `gorm:"uniqueIndex;not null" json:"-"`
	RegistrationToken string `gorm:"uniqueIndex;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Sectors     []Sector     `gorm:"foreignKey:EventID" json:"sectors,omitempty"`
	TicketTypes []TicketType `gorm:"foreignKey:EventID" json:"ticket_types,omitempty"`
}

// Sector is a physical access zone ("ilha") inside an event. Ticket types
// reference sectors as permission targets.
type Sector struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	Name      string    `gorm:"not null" json:"name"`
	Capacity  *int      `json:"capacity"` // nil = unlimited
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketType is an admission category (VIP, General, ...). Number is
// sequential per event, assigned at creation and never reused. At most one
// type per event carries the default flag; a partial unique index in the
// store backs that invariant.
type TicketType struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_types_event_number" json:"event_id"`
	Number      int       `gorm:"not null;uniqueIndex:idx_ticket_types_event_number" json:"number"`
	Description string    `gorm:"not null" json:"description"`
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Sectors []Sector `gorm:"many2many:ticket_type_sectors" json:"sectors,omitempty"`
}

// Participant is a natural person registered for one event. NationalID is
// stored digits-only after check-digit validation; the compound unique index
// on (event_id, national_id) is the arbiter of "already registered" for every
// entry point (public form, spreadsheet import, box office).
type Participant struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participants_event_national" json:"event_id"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `json:"email"`
	NationalID  string    `gorm:"type:varchar(14);not null;uniqueIndex:idx_participants_event_national" json:"national_id"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Tickets []Ticket `gorm:"foreignKey:ParticipantID" json:"tickets,omitempty"`
}

// Ticket is an admission right. PayloadHash is the SHA-256 of the signed
// admission payload, unique so a gate scan resolves in one indexed lookup.
type Ticket struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"event_id"`
	TicketTypeID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"ticket_type_id"`
	ParticipantID uuid.UUID  `gorm:"type:uuid;index;not null" json:"participant_id"`
	Status        string     `gorm:"type:varchar(20);not null;default:'issued'" json:"status"`
	PayloadHash   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"payload_hash"`
	IssuedAt      time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"` // nil = valid indefinitely
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relations
	TicketType  TicketType  `gorm:"foreignKey:TicketTypeID" json:"ticket_type,omitempty"`
	Participant Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
}

// ValidationRecord is one append-only entry per admission attempt, granted or
// denied. RecordedAt is assigned by the store so concurrent gate devices get
// a single ordering authority.
type ValidationRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketID   uuid.UUID `gorm:"type:uuid;index;not null" json:"ticket_id"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;index:idx_validation_records_event_time" json:"event_id"`
	SectorID   uuid.UUID `gorm:"type:uuid;index;not null" json:"sector_id"`
	DeviceID   string    `gorm:"not null" json:"device_id"`
	Decision   string    `gorm:"type:varchar(10);not null" json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	RecordedAt time.Time `gorm:"not null;default:now();index:idx_validation_records_event_time" json:"recorded_at"`

	// Relations
	Ticket Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
}
