package dto

// Time fields are pointers so a missing value can be told apart from zero.
type PlanRequest struct {
	DepotAddress     string `json:"depot_address"`
	TimeLimitMinutes *int   `json:"time_limit_minutes"`
	WaitTimeMinutes  *int   `json:"wait_time_minutes"`
	AccessToken      string `json:"access_token"`
}

type TripResponse struct {
	TripNumber         int      `json:"trip_number"`
	Addresses          []string `json:"addresses"`
	TotalEstimatedTime float64  `json:"total_estimated_time"`
}

type PlanResponse struct {
	Limit      int            `json:"limit"`
	Wait       int            `json:"wait"`
	TotalTrips int            `json:"total_trips"`
	Trips      []TripResponse `json:"trips"`
}
