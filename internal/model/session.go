package model

// SessionRecord is one row of the attendance ledger: a single work session of one employee.
// Optional columns are nil until the session reaches the matching event.
type SessionRecord struct {
	Seq                 int64   `gorm:"primaryKey;autoIncrement:false" json:"-"` // Row position, SQL backend only
	EmployeeName        string  `gorm:"size:256;not null;index" json:"employeeName"`
	CheckInDate         string  `gorm:"size:10;not null" json:"checkInDate"`
	CheckInTime         string  `gorm:"size:8;not null" json:"checkInTime"`
	CheckOutDate        *string `gorm:"size:10" json:"checkOutDate"`
	CheckOutTime        *string `gorm:"size:8" json:"checkOutTime"`
	TotalBreakDuration  string  `gorm:"size:32;not null" json:"totalBreakDuration"`
	TotalWorkedDuration *string `gorm:"size:32" json:"totalWorkedDuration"`
	TotalBreakIns       int     `gorm:"not null" json:"totalBreakIns"`
}

// TableName overrides the default gorm table name.
func (SessionRecord) TableName() string {
	return "session_records"
}

// IsOpen reports whether the session has not been checked out yet.
func (r SessionRecord) IsOpen() bool {
	return r.CheckOutTime == nil
}
