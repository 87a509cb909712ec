package balance

import (
	"time"

	"github.com/google/uuid"
)

// Leave types shared with the workflow. The balance row carries one integer
// column per type.
const (
	TypeAnnual    = "annual"
	TypeSick      = "sick"
	TypeLong      = "long"
	TypeMaternity = "maternity"
	TypePaternity = "paternity"
	TypeMarriage  = "marriage"
	TypeDeath     = "death"
	TypeHajjUmrah = "hajj_umrah"
)

// Default yearly allotments in days, applied when a balance row is created
// lazily on first reference.
const (
	DefaultAnnual    = 12
	DefaultSick      = 12
	DefaultLong      = 90
	DefaultMaternity = 90
	DefaultPaternity = 2
	DefaultMarriage  = 3
	DefaultDeath     = 2
	DefaultHajjUmrah = 40
)

func ValidType(leaveType string) bool {
	switch leaveType {
	case TypeAnnual, TypeSick, TypeLong, TypeMaternity,
		TypePaternity, TypeMarriage, TypeDeath, TypeHajjUmrah:
		return true
	}
	return false
}

type LeaveBalance struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leave_balance_user_year"`
	Year      int       `gorm:"not null;uniqueIndex:idx_leave_balance_user_year"`
	Annual    int       `gorm:"column:annual;not null;default:12"`
	Sick      int       `gorm:"column:sick;not null;default:12"`
	Long      int       `gorm:"column:long;not null;default:90"`
	Maternity int       `gorm:"column:maternity;not null;default:90"`
	Paternity int       `gorm:"column:paternity;not null;default:2"`
	Marriage  int       `gorm:"column:marriage;not null;default:3"`
	Death     int       `gorm:"column:death;not null;default:2"`
	HajjUmrah int       `gorm:"column:hajj_umrah;not null;default:40"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string { return "leave_balance" }

// bucket returns a pointer to the counter for one leave type.
func (b *LeaveBalance) bucket(leaveType string) *int {
	switch leaveType {
	case TypeAnnual:
		return &b.Annual
	case TypeSick:
		return &b.Sick
	case TypeLong:
		return &b.Long
	case TypeMaternity:
		return &b.Maternity
	case TypePaternity:
		return &b.Paternity
	case TypeMarriage:
		return &b.Marriage
	case TypeDeath:
		return &b.Death
	case TypeHajjUmrah:
		return &b.HajjUmrah
	}
	return nil
}

// Remaining exposes the counter read-only.
func (b *LeaveBalance) Remaining(leaveType string) (int, bool) {
	p := b.bucket(leaveType)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// AuditRecord is append-only: rows are written once and never updated or
// deleted.
type AuditRecord struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LeaveBalanceID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AdjustedBy       uuid.UUID `gorm:"type:uuid;not null"`
	AdjustmentType   string    `gorm:"type:varchar(40);not null"`
	AdjustmentAmount int       `gorm:"not null"`
	PreviousValue    int       `gorm:"not null"`
	NewValue         int       `gorm:"not null"`
	Notes            string    `gorm:"type:text"`
	CreatedAt        time.Time
}

func (AuditRecord) TableName() string { return "leave_balance_audit" }

const (
	AdjustmentDeduction = "leave_approval_deduction"
	AdjustmentManual    = "manual_adjustment"
)
