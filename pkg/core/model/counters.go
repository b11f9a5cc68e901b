package model

import "github.com/shopspring/decimal"

// LeaveCounter tracks one user's earned vs. taken balance for a leave type in
// a calendar year. Remaining may go negative: the business choice is to allow
// and log negative balances rather than block a validated absence.
type LeaveCounter struct {
	UserID      string
	LeaveTypeID string
	Year        int
	Earned      decimal.Decimal
	Taken       decimal.Decimal
}

// Remaining returns Earned minus Taken.
func (c *LeaveCounter) Remaining() decimal.Decimal {
	return c.Earned.Sub(c.Taken)
}

// PayrollLeaveCounter mirrors the paid-leave taken total into the payroll
// export. It is only touched for the designated paid-leave code.
type PayrollLeaveCounter struct {
	UserID string
	Year   int
	Taken  decimal.Decimal
}
