package domain

import "time"

// BusStatus is the operating status maintained by fleet management.
type BusStatus string

const (
	BusAvailable   BusStatus = "available"
	BusInService   BusStatus = "in_service"
	BusMaintenance BusStatus = "maintenance"
	BusStopped     BusStatus = "stopped"
)

// Bus is a cooperative-owned vehicle. It is read-only to the scheduler.
type Bus struct {
	BusID          string
	CooperativeID  string
	Plate          string
	Capacity       int
	Status         BusStatus
	HomeTerminalID string
	DriverID       string
}

// Schedulable reports whether the bus may be given trips at all.
// Maintenance and stopped buses never are.
func (b Bus) Schedulable() bool {
	return b.Status == BusAvailable || b.Status == BusInService
}

// BusAssignment is a bus pre-paired with its driver for a whole run.
// The pairing is resolved by personnel management, not by the scheduler.
type BusAssignment struct {
	Bus    Bus
	Driver Driver
}

// BusUnavailability excludes a bus from scheduling on a single date.
type BusUnavailability struct {
	BusID  string
	Date   time.Time
	Reason string
}
