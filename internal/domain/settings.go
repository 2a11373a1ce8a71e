package domain

// CooperativeSettings are the per-cooperative scheduling parameters.
// Zero values mean "use the service defaults".
type CooperativeSettings struct {
	CooperativeID              string
	InterprovincialThresholdKm float64
	StandardDayHours           int
	ExtendedDayHours           int
	MaxExtendedDaysPerWeek     int
	RestBaseMinutesIntra       int
	RestBaseMinutesInter       int
	DefaultWindow              *OperatingWindow
}

// Merge fills zero fields of s from defaults.
func (s CooperativeSettings) Merge(defaults CooperativeSettings) CooperativeSettings {
	out := s
	if out.InterprovincialThresholdKm <= 0 {
		out.InterprovincialThresholdKm = defaults.InterprovincialThresholdKm
	}
	if out.StandardDayHours <= 0 {
		out.StandardDayHours = defaults.StandardDayHours
	}
	if out.ExtendedDayHours <= 0 {
		out.ExtendedDayHours = defaults.ExtendedDayHours
	}
	if out.MaxExtendedDaysPerWeek <= 0 {
		out.MaxExtendedDaysPerWeek = defaults.MaxExtendedDaysPerWeek
	}
	if out.RestBaseMinutesIntra <= 0 {
		out.RestBaseMinutesIntra = defaults.RestBaseMinutesIntra
	}
	if out.RestBaseMinutesInter <= 0 {
		out.RestBaseMinutesInter = defaults.RestBaseMinutesInter
	}
	if out.DefaultWindow == nil {
		out.DefaultWindow = defaults.DefaultWindow
	}
	return out
}
