package geo

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	geojson "github.com/paulmach/go.geojson"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
)

var clock = clockwork.NewRealClock()

// SetClock swaps the time source used to stamp feedback. Pass nil to reset.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Submitter describes who proposed an area.
type Submitter struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Profession  string    `json:"profession"`
	Company     string    `json:"company"`
	Nationality string    `json:"nationality"`
}

// Feedback is one stakeholder proposal: an area and the intervention they
// want there.
type Feedback struct {
	ID        uuid.UUID              `json:"id"`
	City      string                 `json:"city"`
	Category  heatindex.Intervention `json:"category"`
	Comment   string                 `json:"comment,omitempty"`
	Submitter Submitter              `json:"submitter"`
	Geometry  *geojson.Geometry      `json:"geometry"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewFeedback validates a drawn feature. A missing user id is generated.
func NewFeedback(city string, f *geojson.Feature, who Submitter) (Feedback, error) {
	if strings.TrimSpace(city) == "" {
		return Feedback{}, errors.New("feedback: city is required")
	}
	if f == nil || f.Geometry == nil {
		return Feedback{}, errors.New("feedback: geometry is required")
	}
	if !f.Geometry.IsPoint() && !f.Geometry.IsPolygon() && !f.Geometry.IsMultiPolygon() {
		return Feedback{}, errors.New("feedback: geometry must be a point or polygon")
	}
	kind, err := featureIntervention(f)
	if err != nil {
		return Feedback{}, err
	}
	if who.UserID == uuid.Nil {
		who.UserID = uuid.New()
	}
	comment, _ := f.PropertyString("comment")
	return Feedback{
		ID:        uuid.New(),
		City:      city,
		Category:  kind,
		Comment:   comment,
		Submitter: who,
		Geometry:  f.Geometry,
		CreatedAt: clock.Now().UTC(),
	}, nil
}

// Feature renders the feedback as a GeoJSON feature.
func (fb Feedback) Feature() *geojson.Feature {
	f := geojson.NewFeature(fb.Geometry)
	f.ID = fb.ID.String()
	f.SetProperty("city", fb.City)
	f.SetProperty("category", string(fb.Category))
	if fb.Comment != "" {
		f.SetProperty("comment", fb.Comment)
	}
	f.SetProperty("user_id", fb.Submitter.UserID.String())
	f.SetProperty("name", fb.Submitter.Name)
	f.SetProperty("profession", fb.Submitter.Profession)
	f.SetProperty("company", fb.Submitter.Company)
	f.SetProperty("nationality", fb.Submitter.Nationality)
	f.SetProperty("timestamp", fb.CreatedAt.Format(time.RFC3339))
	return f
}

// FeedbackCollection renders many feedback entries.
func FeedbackCollection(items []Feedback) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, fb := range items {
		fc.AddFeature(fb.Feature())
	}
	return fc
}
