// README: Wire representations of plans and chat turns.
package handlers

import (
	"time"

	"github.com/samber/lo"

	"voyage/internal/maps"
	"voyage/internal/modules/conversation"
	"voyage/internal/modules/itinerary"
)

type tripSpecRequest struct {
	Departure   string  `json:"departure"`
	Destination string  `json:"destination"`
	Duration    int     `json:"duration"`
	StartDate   string  `json:"startDate"`
	Budget      float64 `json:"budget"`
	Travelers   int     `json:"travelers"`
	Interests   string  `json:"interests"`
}

func (r tripSpecRequest) toSpec() (itinerary.TripSpec, error) {
	start, err := itinerary.ParseDate(r.StartDate)
	if err != nil {
		return itinerary.TripSpec{}, err
	}
	return itinerary.TripSpec{
		Departure:   r.Departure,
		Destination: r.Destination,
		Duration:    r.Duration,
		StartDate:   start,
		Budget:      r.Budget,
		Travelers:   r.Travelers,
		Interests:   r.Interests,
	}, nil
}

type createPlanRequest struct {
	tripSpecRequest
	GeneratedPlan string `json:"generatedPlan"`
}

// updatePlanRequest is a partial update; absent fields stay unchanged and a
// blank startDate is treated as absent.
type updatePlanRequest struct {
	Departure     *string  `json:"departure"`
	Destination   *string  `json:"destination"`
	Duration      *int     `json:"duration"`
	StartDate     *string  `json:"startDate"`
	Budget        *float64 `json:"budget"`
	Travelers     *int     `json:"travelers"`
	Interests     *string  `json:"interests"`
	GeneratedPlan *string  `json:"generatedPlan"`
	Version       *int     `json:"version"`
}

func (r updatePlanRequest) toPatch() (itinerary.Patch, error) {
	p := itinerary.Patch{
		Departure:     r.Departure,
		Destination:   r.Destination,
		Duration:      r.Duration,
		Budget:        r.Budget,
		Travelers:     r.Travelers,
		Interests:     r.Interests,
		GeneratedPlan: r.GeneratedPlan,
	}
	if r.StartDate != nil {
		d, err := itinerary.ParseDate(*r.StartDate)
		if err != nil {
			return itinerary.Patch{}, err
		}
		p.StartDate = d
	}
	return p, nil
}

type messageRequest struct {
	Message string `json:"message"`
}

type planResponse struct {
	ID            string    `json:"id"`
	Departure     string    `json:"departure"`
	Destination   string    `json:"destination"`
	Duration      int       `json:"duration"`
	StartDate     *string   `json:"startDate"`
	Budget        float64   `json:"budget"`
	Travelers     int       `json:"travelers"`
	Interests     string    `json:"interests"`
	GeneratedPlan string    `json:"generatedPlan"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toPlanResponse(p *itinerary.Plan) *planResponse {
	if p == nil {
		return nil
	}
	out := &planResponse{
		ID:            p.ID.String(),
		Departure:     p.Departure,
		Destination:   p.Destination,
		Duration:      p.Duration,
		Budget:        p.Budget,
		Travelers:     p.Travelers,
		Interests:     p.Interests,
		GeneratedPlan: p.GeneratedPlan,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.StartDate != nil {
		out.StartDate = lo.ToPtr(p.StartDate.Format(itinerary.DateLayout))
	}
	return out
}

type placeResponse struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float32 `json:"rating"`
	PlaceID string  `json:"placeId"`
	Reviews int     `json:"reviews"`
}

func toPlaceResponses(places []maps.Place) []placeResponse {
	return lo.Map(places, func(p maps.Place, _ int) placeResponse {
		return placeResponse{Name: p.Name, Address: p.Address, Rating: p.Rating, PlaceID: p.PlaceID, Reviews: p.UserRatingsTotal}
	})
}

type turnResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func toTurnResponses(turns []conversation.Turn) []turnResponse {
	return lo.Map(turns, func(t conversation.Turn, _ int) turnResponse {
		return turnResponse(t)
	})
}
