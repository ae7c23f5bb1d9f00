package rtb

import (
	"errors"
	"math"
	"testing"
	"testing/iotest"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// fixedSource always yields the same value.
type fixedSource float64

func (f fixedSource) Float64() (float64, error) { return float64(f), nil }

// failingSource fails after n successful draws.
type failingSource struct{ n int }

func (f *failingSource) Float64() (float64, error) {
	if f.n <= 0 {
		return 0, ErrRandomSource
	}
	f.n--
	return 0.5, nil
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestSimulate tests bidder selection and ordering.
func TestSimulate(t *testing.T) {
	t.Parallel()

	tables := methodology.Default()

	testCases := []struct {
		name        string
		persona     model.Persona
		wantBidders []string
	}{
		{
			name:        "general gets only broad bidders",
			persona:     model.PersonaGeneral,
			wantBidders: []string{"Google DV360", "The Trade Desk"},
		},
		{
			name:        "privacy-conscious",
			persona:     model.PersonaPrivacyConscious,
			wantBidders: []string{"Google DV360", "The Trade Desk", "Privacy Product Affiliates"},
		},
		{
			name:        "tech professional",
			persona:     model.PersonaTechProfessional,
			wantBidders: []string{"LinkedIn Audience Network", "Microsoft Advertising", "Google DV360", "The Trade Desk"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sim := NewSimulator(tables, fixedSource(0.5))
			got, err := sim.Simulate(tc.persona, model.EntropyTierNotVeryUnique)
			if err != nil {
				t.Fatalf("Simulate() error = %v", err)
			}
			if len(got.Bids) != len(tc.wantBidders) {
				t.Fatalf("got %d bids, want %d: %+v", len(got.Bids), len(tc.wantBidders), got.Bids)
			}
			for i, name := range tc.wantBidders {
				if got.Bids[i].Bidder != name {
					t.Errorf("bid %d: bidder = %q, want %q", i, got.Bids[i].Bidder, name)
				}
			}
			if got.Winner != got.Bids[0] {
				t.Errorf("winner %+v is not the first bid %+v", got.Winner, got.Bids[0])
			}
		})
	}
}

// TestSimulateAmounts tests the bid formula with a fixed draw.
func TestSimulateAmounts(t *testing.T) {
	t.Parallel()

	sim := NewSimulator(methodology.Default(), fixedSource(0.5))
	result, err := sim.Simulate(model.PersonaPrivacyConscious, model.EntropyTierNotVeryUnique)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	want := map[string]float64{
		"Google DV360":               2.60,
		"The Trade Desk":             2.25,
		"Privacy Product Affiliates": 1.65,
	}
	for _, b := range result.Bids {
		if !approxEqual(b.Amount, want[b.Bidder]) {
			t.Errorf("%s: amount = %v, want %v", b.Bidder, b.Amount, want[b.Bidder])
		}
	}

	v := Value(model.PersonaPrivacyConscious, result)
	if !approxEqual(v.AverageCPM, 6.5/3) {
		t.Errorf("AverageCPM = %v, want %v", v.AverageCPM, 6.5/3)
	}
	if !approxEqual(v.AnnualValue, 6.5/3/1000*50*365*3) {
		t.Errorf("AnnualValue = %v", v.AnnualValue)
	}
	if v.Persona != model.PersonaPrivacyConscious {
		t.Errorf("Persona = %q", v.Persona)
	}
	if v.Winner.Bidder != "Google DV360" {
		t.Errorf("Winner = %q, want Google DV360", v.Winner.Bidder)
	}
}

// TestSimulateTierMonotonic tests that, for the same draws, a more unique
// tier never lowers any bid.
func TestSimulateTierMonotonic(t *testing.T) {
	t.Parallel()

	tables := methodology.Default()
	for _, persona := range model.Personas {
		t.Run(string(persona), func(t *testing.T) {
			t.Parallel()

			prev := map[string]float64{}
			for i, tier := range model.EntropyTiers {
				sim := NewSimulator(tables, NewSeededSource(42, 7))
				result, err := sim.Simulate(persona, tier)
				if err != nil {
					t.Fatalf("Simulate(%s) error = %v", tier, err)
				}
				for _, b := range result.Bids {
					if i > 0 && b.Amount < prev[b.Bidder] {
						t.Errorf("%s: %s bid dropped from %v to %v", tier, b.Bidder, prev[b.Bidder], b.Amount)
					}
					prev[b.Bidder] = b.Amount
				}
			}
		})
	}
}

// TestSimulatePrivacyConsciousLowEntropy tests that a privacy-conscious
// visitor with a common fingerprint is worth less than the same visitor
// with a unique one.
func TestSimulatePrivacyConsciousLowEntropy(t *testing.T) {
	t.Parallel()

	tables := methodology.Default()

	low, err := NewSimulator(tables, fixedSource(0.5)).Simulate(model.PersonaPrivacyConscious, model.EntropyTierNotVeryUnique)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	high, err := NewSimulator(tables, fixedSource(0.5)).Simulate(model.PersonaPrivacyConscious, model.EntropyTierExtremelyUnique)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if low.Winner.Amount >= high.Winner.Amount {
		t.Errorf("low tier winner %v should be below high tier winner %v", low.Winner.Amount, high.Winner.Amount)
	}
	if !approxEqual(high.Winner.Amount, 2.60*1.70) {
		t.Errorf("high tier winner = %v, want %v", high.Winner.Amount, 2.60*1.70)
	}
}

// TestSimulateBounds tests that every bid stays within its scaled range.
func TestSimulateBounds(t *testing.T) {
	t.Parallel()

	tables := methodology.Default()
	ranges := map[string]methodology.DSPProfile{}
	for _, p := range tables.DSPProfiles {
		ranges[p.Name] = p
	}

	sim := NewSimulator(tables, NewSeededSource(1, 2))
	for i := 0; i < 500; i++ {
		persona := model.Personas[i%len(model.Personas)]
		tier := model.EntropyTiers[i%len(model.EntropyTiers)]
		m := tables.Multiplier(tier)

		result, err := sim.Simulate(persona, tier)
		if err != nil {
			t.Fatalf("Simulate() error = %v", err)
		}
		for j, b := range result.Bids {
			p := ranges[b.Bidder]
			if b.Amount < p.MinCPM*m-1e-9 || b.Amount > p.MaxCPM*m+1e-9 {
				t.Fatalf("%s bid %v outside [%v, %v]", b.Bidder, b.Amount, p.MinCPM*m, p.MaxCPM*m)
			}
			if j > 0 && b.Amount > result.Bids[j-1].Amount {
				t.Fatalf("bids not sorted descending: %+v", result.Bids)
			}
		}
	}
}

// TestSimulateStableTies tests that equal bids keep table order.
func TestSimulateStableTies(t *testing.T) {
	t.Parallel()

	tables := methodology.Default()
	tables.DSPProfiles = []methodology.DSPProfile{
		{Name: "first", Targets: []model.Persona{model.PersonaGeneral}, MinCPM: 1, MaxCPM: 2},
		{Name: "second", Targets: []model.Persona{model.PersonaGeneral}, MinCPM: 1, MaxCPM: 2},
		{Name: "third", Targets: []model.Persona{model.PersonaGeneral}, MinCPM: 1, MaxCPM: 2},
	}

	result, err := NewSimulator(tables, fixedSource(0.25)).Simulate(model.PersonaGamer, model.EntropyTierUnique)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if result.Bids[i].Bidder != want {
			t.Errorf("bid %d = %q, want %q", i, result.Bids[i].Bidder, want)
		}
	}
}

// TestSimulateSeededDeterminism tests that equal seeds reproduce an auction.
func TestSimulateSeededDeterminism(t *testing.T) {
	t.Parallel()

	tables := methodology.Default()
	a, err := NewSimulator(tables, NewSeededSource(9, 9)).Simulate(model.PersonaGamer, model.EntropyTierVeryUnique)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSimulator(tables, NewSeededSource(9, 9)).Simulate(model.PersonaGamer, model.EntropyTierVeryUnique)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Bids {
		if a.Bids[i] != b.Bids[i] {
			t.Errorf("bid %d differs: %+v vs %+v", i, a.Bids[i], b.Bids[i])
		}
	}
}

// TestSimulateErrors tests failure propagation.
func TestSimulateErrors(t *testing.T) {
	t.Parallel()

	t.Run("source fails mid auction", func(t *testing.T) {
		t.Parallel()
		sim := NewSimulator(methodology.Default(), &failingSource{n: 1})
		_, err := sim.Simulate(model.PersonaAffluentShopper, model.EntropyTierUnique)
		if !errors.Is(err, ErrRandomSource) {
			t.Errorf("error = %v, want ErrRandomSource", err)
		}
	})

	t.Run("reader source fails", func(t *testing.T) {
		t.Parallel()
		sim := NewSimulator(methodology.Default(), NewReaderSource(iotest.ErrReader(errors.New("entropy pool closed"))))
		_, err := sim.Simulate(model.PersonaGeneral, model.EntropyTierUnique)
		if !errors.Is(err, ErrRandomSource) {
			t.Errorf("error = %v, want ErrRandomSource", err)
		}
	})

	t.Run("no bidders", func(t *testing.T) {
		t.Parallel()
		tables := methodology.Default()
		tables.DSPProfiles = []methodology.DSPProfile{
			{Name: "gaming only", Targets: []model.Persona{model.PersonaGamer}, MinCPM: 1, MaxCPM: 2},
		}
		_, err := NewSimulator(tables, fixedSource(0)).Simulate(model.PersonaGeneral, model.EntropyTierUnique)
		if !errors.Is(err, ErrNoBidders) {
			t.Errorf("error = %v, want ErrNoBidders", err)
		}
	})
}

// TestCryptoSource tests the production source range.
func TestCryptoSource(t *testing.T) {
	t.Parallel()

	src := NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v, err := src.Float64()
		if err != nil {
			t.Fatalf("Float64() error = %v", err)
		}
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %v, want [0, 1)", v)
		}
	}
}

// TestAverageCPM tests the empty case.
func TestAverageCPM(t *testing.T) {
	t.Parallel()

	if got := AverageCPM(nil); got != 0 {
		t.Errorf("AverageCPM(nil) = %v, want 0", got)
	}
	if got := AnnualValue(2); !approxEqual(got, 109.5) {
		t.Errorf("AnnualValue(2) = %v, want 109.5", got)
	}
}
