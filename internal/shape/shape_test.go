package shape_test

import (
	"testing"
	"time"

	"github.com/2beens/shapepro/internal/shape"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestProfile(createdAt time.Time) shape.Profile {
	return shape.Profile{
		Name:        gofakeit.Name(),
		Age:         gofakeit.Number(18, 70),
		Sex:         shape.SexFemale,
		Weight:      float64(gofakeit.Number(50, 110)),
		Height:      float64(gofakeit.Number(150, 200)),
		Goal:        shape.GoalLoseWeight,
		Level:       shape.LevelBeginner,
		Location:    shape.LocationHome,
		DaysPerWeek: 3,
		CreatedAt:   createdAt,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 30, 0, 0, time.UTC)
}
