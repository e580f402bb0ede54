package generator

import (
	"math"
	"math/rand"
	"time"
)

// alphabet is the full character set for generated string fields. Keeping it
// strictly alphanumeric is what makes the unescaped COPY encoding safe.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InsertDepartments is the closed set of departments assigned to new records.
var InsertDepartments = []string{
	"Engineering", "Sales", "Marketing", "HR", "Finance", "Operations", "Support",
}

// UpdateDepartments is the closed set of departments assigned by update
// payloads. It is a superset of InsertDepartments.
var UpdateDepartments = []string{
	"Engineering", "Sales", "Marketing", "HR", "Finance", "Operations", "Support", "R&D",
}

// Record is a single synthetic row. Field order matches the column order of
// the bulk-copy stream exactly; see CopyColumns.
type Record struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Age        int
	Salary     float64
	IsActive   bool
	CreatedAt  time.Time
	Department string
	Score      float64
}

// UpdatePayload holds independently sampled new values for a single row.
type UpdatePayload struct {
	Salary     float64
	Score      float64
	Department string
	Active     bool
}

// RangePayload holds new values applied uniformly to every row of one id
// range. The salary is expressed as a multiplicative factor rather than an
// absolute value so the set-based statement can scale existing salaries.
type RangePayload struct {
	SalaryFactor float64
	Score        float64
	Department   string
	Active       bool
}

// Generator produces synthetic records from its own pseudo-random source.
// It is not safe for concurrent use; execution here is single-threaded by
// design, one generator per run.
type Generator struct {
	rng *rand.Rand

	// Bounds for generated fields. Exported so callers can narrow them,
	// zero-value construction goes through New which fills in defaults.
	SalaryMin float64
	SalaryMax float64
	StartYear int
	EndYear   int
}

// New creates a generator seeded with the given value. A zero seed derives
// the seed from the wall clock, matching unseeded behavior; any other value
// makes the sequence fully repeatable.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		SalaryMin: 30000,
		SalaryMax: 150000,
		StartYear: 2020,
		EndYear:   2024,
	}
}

// Record generates a single synthetic record.
func (g *Generator) Record() Record {
	return Record{
		Username:   g.randString(12),
		Email:      g.randString(8) + "@" + g.randString(5) + ".com",
		FirstName:  g.randString(8),
		LastName:   g.randString(10),
		Age:        18 + g.rng.Intn(48),
		Salary:     g.randDecimal(g.SalaryMin, g.SalaryMax),
		IsActive:   g.rng.Intn(2) == 0,
		CreatedAt:  g.randDate(),
		Department: InsertDepartments[g.rng.Intn(len(InsertDepartments))],
		Score:      g.randDecimal(0, 100),
	}
}

// Batch generates n records in generation order. Callers impose no ordering
// requirement on the result.
func (g *Generator) Batch(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = g.Record()
	}
	return records
}

// UpdatePayload samples a fresh per-row payload for keyed and staging-join
// updates.
func (g *Generator) UpdatePayload() UpdatePayload {
	return UpdatePayload{
		Salary:     g.randDecimal(35000, 175000),
		Score:      g.randDecimal(0, 100),
		Department: UpdateDepartments[g.rng.Intn(len(UpdateDepartments))],
		Active:     g.rng.Intn(2) == 0,
	}
}

// RangePayload samples one payload for an entire id range.
func (g *Generator) RangePayload() RangePayload {
	return RangePayload{
		SalaryFactor: 0.9 + g.rng.Float64()*0.3,
		Score:        g.randDecimal(0, 100),
		Department:   UpdateDepartments[g.rng.Intn(len(UpdateDepartments))],
		Active:       g.rng.Intn(2) == 0,
	}
}

func (g *Generator) randString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}

// randDecimal returns a uniform value in [min, max] rounded to 2 places.
func (g *Generator) randDecimal(min, max float64) float64 {
	return math.Round((min+g.rng.Float64()*(max-min))*100) / 100
}

// randDate samples a day uniformly across the configured year span.
func (g *Generator) randDate() time.Time {
	start := time.Date(g.StartYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(g.EndYear, 12, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, g.rng.Intn(days+1))
}
