// Package generator synthesizes monthly vehicle-registration volumes for a
// date range. Volumes follow fixed seasonal, growth and state-weighting
// tables with bounded random noise, so a seeded run is fully reproducible.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"vahan-dashboard/internal/errors"
	"vahan-dashboard/internal/models"
)

// growthBaseYear anchors the compounded annual growth factor.
const growthBaseYear = 2020

// baseMonthlyVolume is the unadjusted monthly registration volume per category.
var baseMonthlyVolume = map[models.Category]float64{
	models.TwoWheeler:   450000,
	models.ThreeWheeler: 36000,
	models.FourWheeler:  240000,
	models.Commercial:   75000,
	models.Other:        24000,
}

// seasonalFactor amplifies festival months (Oct-Nov) and dampens the monsoon.
var seasonalFactor = map[time.Month]float64{
	time.January: 0.9, time.February: 0.85, time.March: 1.1,
	time.April: 1.15, time.May: 0.95, time.June: 0.8,
	time.July: 0.75, time.August: 0.8, time.September: 1.0,
	time.October: 1.3, time.November: 1.4, time.December: 1.2,
}

// annualGrowthRate is the category growth compounded since growthBaseYear.
var annualGrowthRate = map[models.Category]float64{
	models.TwoWheeler:   0.08,
	models.ThreeWheeler: 0.12,
	models.FourWheeler:  0.15,
	models.Commercial:   0.06,
	models.Other:        0.10,
}

// stateWeight is the state-level economic weighting factor.
var stateWeight = map[string]float64{
	"Maharashtra":    1.2,
	"Karnataka":      1.0,
	"Tamil Nadu":     1.1,
	"Gujarat":        0.9,
	"Uttar Pradesh":  1.3,
	"Rajasthan":      0.8,
	"West Bengal":    0.85,
	"Telangana":      0.75,
	"Haryana":        0.7,
	"Delhi":          0.6,
	"Punjab":         0.65,
	"Madhya Pradesh": 0.8,
}

const (
	noiseStdDev = 0.1
	noiseFloor  = 0.7
	noiseCeil   = 1.3
)

// Params bounds a generation run. An empty States list means the full
// roster. A nil Seed draws a fresh random source per call.
type Params struct {
	Start      time.Time
	End        time.Time
	Categories []models.Category
	States     []string
	Seed       *int64
}

// Fingerprint canonicalizes the parameters into a cache key. Unseeded runs
// are never equal to each other, since their output is not reproducible.
func (p Params) Fingerprint() string {
	cats := make([]string, len(p.Categories))
	for i, c := range p.Categories {
		cats[i] = string(c)
	}
	sort.Strings(cats)

	states := append([]string(nil), p.States...)
	sort.Strings(states)

	seed := "unseeded"
	if p.Seed != nil {
		seed = strconv.FormatInt(*p.Seed, 10)
	}

	return strings.Join([]string{
		monthStart(p.Start).Format("2006-01"),
		monthStart(p.End).Format("2006-01"),
		strings.Join(cats, ";"),
		strings.Join(states, ";"),
		seed,
	}, "|")
}

func (p Params) validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return errors.InvalidRange("start and end dates are required")
	}
	if p.Start.After(p.End) {
		return errors.InvalidRange(fmt.Sprintf("start date %s is after end date %s",
			p.Start.Format("2006-01-02"), p.End.Format("2006-01-02")))
	}
	if len(p.Categories) == 0 {
		return errors.InvalidRange("category list cannot be empty")
	}
	for _, c := range p.Categories {
		if _, err := models.ParseCategory(string(c)); err != nil {
			return errors.InvalidRangeWrap(err, "invalid category")
		}
	}
	for _, s := range p.States {
		if _, ok := stateWeight[s]; !ok {
			return errors.InvalidRange(fmt.Sprintf("unknown state %q", s))
		}
	}
	return nil
}

// Generate produces one RegistrationRecord per (month, category, state)
// combination in range, months outermost. Each (category, state) pair is
// assigned a single manufacturer from its roster so every
// (category, manufacturer, state) key forms a continuous monthly series.
func Generate(p Params) ([]models.RegistrationRecord, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	states := p.States
	if len(states) == 0 {
		states = models.States()
	}

	var rng *rand.Rand
	if p.Seed != nil {
		rng = rand.New(rand.NewSource(*p.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// Fix the manufacturer per (category, state) up front so the series
	// key does not change month to month.
	makers := make(map[string]string, len(p.Categories)*len(states))
	for _, cat := range p.Categories {
		roster := models.Manufacturers(cat)
		for _, state := range states {
			makers[string(cat)+"|"+state] = roster[rng.Intn(len(roster))]
		}
	}

	first := monthStart(p.Start)
	last := monthStart(p.End)
	months := monthsBetween(first, last) + 1

	records := make([]models.RegistrationRecord, 0, months*len(p.Categories)*len(states))

	for date := first; !date.After(last); date = date.AddDate(0, 1, 0) {
		elapsed := yearsSinceBase(date)
		season := seasonalFactor[date.Month()]

		for _, cat := range p.Categories {
			base := baseMonthlyVolume[cat]
			growth := pow1p(annualGrowthRate[cat], elapsed)

			for _, state := range states {
				noise := clamp(1+rng.NormFloat64()*noiseStdDev, noiseFloor, noiseCeil)
				count := int(base * season * growth * stateWeight[state] * noise)
				if count < 0 {
					count = 0
				}

				records = append(records, models.RegistrationRecord{
					Date:         date,
					Category:     cat,
					Manufacturer: makers[string(cat)+"|"+state],
					State:        state,
					Count:        count,
				})
			}
		}
	}

	return records, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func yearsSinceBase(date time.Time) float64 {
	return float64(date.Year()-growthBaseYear) + float64(date.Month()-1)/12
}

func pow1p(rate, years float64) float64 {
	if years <= 0 {
		return 1
	}
	return math.Pow(1+rate, years)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
