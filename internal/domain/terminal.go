package domain

// Terminal is a bus station with a fixed number of stands.
type Terminal struct {
	TerminalID    string
	CooperativeID string
	Name          string
	Stands        int
	Location      Coordinates
}
