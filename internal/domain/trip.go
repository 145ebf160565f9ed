package domain

// Represents one closed tour from the depot through one or more pickup stops
// and back. Addresses always begin and end with the depot address.
type Trip struct {
	Number                int
	Addresses             []string
	TotalEstimatedMinutes float64
}

// Stops returns the pickup addresses of the trip without the depot endpoints.
func (t Trip) Stops() []string {
	if len(t.Addresses) <= 2 {
		return []string{}
	}
	return t.Addresses[1 : len(t.Addresses)-1]
}

// Represents the ordered output of a planning run.
// Trips are numbered 1..N in creation order.
type TripPlan struct {
	Depot        string
	LimitMinutes float64
	WaitMinutes  float64
	Trips        []Trip
}

func (p *TripPlan) TotalTrips() int { return len(p.Trips) }
