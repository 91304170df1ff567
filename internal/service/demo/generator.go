package demo

import (
	"fmt"
	"math/rand/v2"
	"time"

	"farmguardian/internal/model"

	"github.com/google/uuid"
)

// Profile describes one demo generator configuration.
type Profile struct {
	Name          string
	Period        time.Duration
	Probability   float64 // szansa na detekcję w pojedynczym ticku
	Animals       []string
	MinConfidence float64
	MaxConfidence float64
	MaxOffset     float64 // x, y in [0, MaxOffset)
	MinExtent     float64 // width, height in [MinExtent, MinExtent+ExtentRange)
	ExtentRange   float64
}

var demoAnimals = []string{"deer", "rabbit", "bird", "fox"}

// The live camera feed checks every second with a 5% chance; the camera grid
// variant checks every two seconds with a 2% chance.
var profiles = map[string]Profile{
	"camera-feed": {
		Name:          "camera-feed",
		Period:        time.Second,
		Probability:   0.05,
		Animals:       demoAnimals,
		MinConfidence: 0.85,
		MaxConfidence: 1.0,
		MaxOffset:     200,
		MinExtent:     50,
		ExtentRange:   100,
	},
	"grid": {
		Name:          "grid",
		Period:        2 * time.Second,
		Probability:   0.02,
		Animals:       demoAnimals,
		MinConfidence: 0.85,
		MaxConfidence: 1.0,
		MaxOffset:     200,
		MinExtent:     50,
		ExtentRange:   100,
	},
}

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown demo profile %q", name)
	}
	return p, nil
}

// Generator produces synthetic detections so the dashboard works without a camera or model.
type Generator struct {
	profile  Profile
	cameraID string
	rng      *rand.Rand
	now      func() time.Time
}

// NewGenerator creates a generator. A nil rng uses a randomly seeded source.
func NewGenerator(profile Profile, cameraID string, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		profile:  profile,
		cameraID: cameraID,
		rng:      rng,
		now:      time.Now,
	}
}

// Profile returns the active profile.
func (g *Generator) Profile() Profile {
	return g.profile
}

// Next performs one coin flip and returns a synthetic detection when it lands below the threshold.
func (g *Generator) Next() (model.Detection, bool) {
	if g.rng.Float64() >= g.profile.Probability {
		return model.Detection{}, false
	}

	p := g.profile
	box := model.BoundingBox{
		X:      g.rng.Float64() * p.MaxOffset,
		Y:      g.rng.Float64() * p.MaxOffset,
		Width:  p.MinExtent + g.rng.Float64()*p.ExtentRange,
		Height: p.MinExtent + g.rng.Float64()*p.ExtentRange,
	}

	return model.Detection{
		ID:          uuid.NewString(),
		Timestamp:   g.now(),
		Confidence:  p.MinConfidence + g.rng.Float64()*(p.MaxConfidence-p.MinConfidence),
		AnimalType:  p.Animals[g.rng.IntN(len(p.Animals))],
		BoundingBox: &box,
		CameraID:    g.cameraID,
		Source:      model.SourceDemo,
	}, true
}
