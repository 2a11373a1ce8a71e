package domain

// Driver as seen by the scheduler.
// ExtendedDaysThisWeek and ISOYear/ISOWeek are the persisted state of the
// weekly extended-day counter; they seed the ledger when the week matches.
type Driver struct {
	DriverID             string
	Name                 string
	ExtendedDaysThisWeek int
	ISOYear              int
	ISOWeek              int
}
