// Package dataset generates, encodes, and stores the synthetic ecommerce
// user tables the analytics engine runs on.
package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/segmetric/segmetric/pkg/types"
)

// UserSchema is the fixed schema of the generated ecommerce user table.
// The pivot engine's built-in strategies and metrics are defined against
// these field names.
func UserSchema() types.Schema {
	return types.Schema{Fields: []types.Field{
		{Name: "user_id", Type: types.FieldString},
		{Name: "age", Type: types.FieldNumeric},
		{Name: "gender", Type: types.FieldString},
		{Name: "country", Type: types.FieldString},
		{Name: "signup_date", Type: types.FieldTime},
		{Name: "days_since_signup", Type: types.FieldNumeric},
		{Name: "last_purchase_date", Type: types.FieldTime},
		{Name: "days_since_last_purchase", Type: types.FieldNumeric},
		{Name: "purchase_frequency", Type: types.FieldNumeric},
		{Name: "seasonal_shopper", Type: types.FieldString},
		{Name: "total_orders", Type: types.FieldNumeric},
		{Name: "total_revenue", Type: types.FieldNumeric},
		{Name: "average_order_value", Type: types.FieldNumeric},
		{Name: "ltv", Type: types.FieldNumeric},
		{Name: "acquisition_channel", Type: types.FieldString},
		{Name: "device_type", Type: types.FieldString},
		{Name: "preferred_os", Type: types.FieldString},
		{Name: "email_opens_l30d", Type: types.FieldNumeric},
		{Name: "email_clicks_l30d", Type: types.FieldNumeric},
		{Name: "website_visits_l30d", Type: types.FieldNumeric},
		{Name: "app_sessions_l30d", Type: types.FieldNumeric},
		{Name: "product_category_preference", Type: types.FieldString},
		{Name: "price_sensitivity", Type: types.FieldString},
		{Name: "loyalty_tier", Type: types.FieldString},
		{Name: "churn_risk_score", Type: types.FieldNumeric},
		{Name: "is_churned", Type: types.FieldBool},
		{Name: "is_retained", Type: types.FieldBool},
		{Name: "email_subscriber", Type: types.FieldBool},
		{Name: "sms_subscriber", Type: types.FieldBool},
		{Name: "push_notifications", Type: types.FieldBool},
		{Name: "support_tickets_l30d", Type: types.FieldNumeric},
		{Name: "nps_score", Type: types.FieldNumeric},
		{Name: "social_media_follower", Type: types.FieldBool},
		{Name: "referrals_made", Type: types.FieldNumeric},
		{Name: "payment_method", Type: types.FieldString},
		{Name: "shipping_preference", Type: types.FieldString},
	}}
}

// Generator produces deterministic synthetic user tables: the same seed
// always yields the same table, so datasets are reproducible across runs.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a generator seeded for reproducibility. The "now"
// anchor fixes the recency fields relative to generation time.
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Generate builds a user table with numUsers rows.
func (g *Generator) Generate(numUsers int) *types.Table {
	tbl := types.NewTable(UserSchema())
	tbl.Rows = make([][]interface{}, 0, numUsers)

	for i := 0; i < numUsers; i++ {
		signupDays := g.rng.Intn(1095) // up to 3 years back
		signupDate := g.now.AddDate(0, 0, -signupDays)

		lastPurchaseOffset := 0
		if signupDays > 0 {
			lastPurchaseOffset = g.rng.Intn(minInt(365, signupDays) + 1)
		}
		lastPurchase := signupDate.AddDate(0, 0, lastPurchaseOffset)
		daysSincePurchase := int(g.now.Sub(lastPurchase).Hours() / 24)

		totalOrders := float64(clampInt(g.poisson(8), 0, 50))
		totalRevenue := clampFloat(g.lognormal(4.5, 1.2), 0, 10000)
		aov := totalRevenue / math.Max(totalOrders, 1)
		ltv := totalRevenue * (1.2 + g.rng.Float64()*1.3)

		churnRisk := g.beta(2, 5)
		isChurned := daysSincePurchase > 90 && churnRisk > 0.6

		tbl.AppendRow([]interface{}{
			fmt.Sprintf("user_%06d", i),
			float64(clampInt(int(g.normal(35, 12)), 18, 80)),
			g.choice([]string{"Male", "Female", "Other"}, []float64{0.45, 0.52, 0.03}),
			g.choice([]string{"US", "UK", "Canada", "Australia", "Germany", "France", "Spain", "Italy"},
				[]float64{0.4, 0.15, 0.12, 0.08, 0.08, 0.07, 0.05, 0.05}),
			signupDate,
			float64(signupDays),
			lastPurchase,
			float64(daysSincePurchase),
			clampFloat(g.exponential(30), 1, 365),
			g.choice([]string{"Yes", "No"}, []float64{0.3, 0.7}),
			totalOrders,
			totalRevenue,
			aov,
			ltv,
			g.choice([]string{"Organic Search", "Paid Search", "Social Media", "Email", "Direct", "Referral"},
				[]float64{0.25, 0.2, 0.15, 0.15, 0.15, 0.1}),
			g.choice([]string{"Desktop", "Mobile", "Tablet"}, []float64{0.4, 0.55, 0.05}),
			g.choice([]string{"iOS", "Android", "Windows", "Mac"}, []float64{0.3, 0.35, 0.2, 0.15}),
			float64(clampInt(g.poisson(3), 0, 20)),
			float64(clampInt(g.poisson(1), 0, 10)),
			float64(clampInt(g.poisson(5), 0, 30)),
			float64(clampInt(g.poisson(2), 0, 15)),
			g.choice([]string{"Electronics", "Fashion", "Home & Garden", "Sports", "Books", "Beauty"},
				[]float64{0.2, 0.25, 0.15, 0.15, 0.1, 0.15}),
			g.choice([]string{"Low", "Medium", "High"}, []float64{0.3, 0.5, 0.2}),
			g.choice([]string{"Bronze", "Silver", "Gold", "Platinum"}, []float64{0.4, 0.3, 0.2, 0.1}),
			churnRisk,
			isChurned,
			!isChurned,
			g.flag(0.8),
			g.flag(0.4),
			g.flag(0.6),
			float64(clampInt(g.poisson(0.5), 0, 5)),
			g.npsScore(),
			g.flag(0.3),
			float64(clampInt(g.poisson(0.8), 0, 10)),
			g.choice([]string{"Credit Card", "PayPal", "Apple Pay", "Google Pay", "Bank Transfer"},
				[]float64{0.5, 0.2, 0.15, 0.1, 0.05}),
			g.choice([]string{"Standard", "Express", "Overnight"}, []float64{0.7, 0.25, 0.05}),
		})
	}
	return tbl
}

// normal samples a Gaussian with the given mean and standard deviation.
func (g *Generator) normal(mean, sd float64) float64 {
	return g.rng.NormFloat64()*sd + mean
}

// lognormal samples exp(N(mu, sigma)).
func (g *Generator) lognormal(mu, sigma float64) float64 {
	return math.Exp(g.normal(mu, sigma))
}

// exponential samples an exponential distribution with the given mean.
func (g *Generator) exponential(mean float64) float64 {
	return g.rng.ExpFloat64() * mean
}

// poisson samples a Poisson(lambda) count via Knuth's method. Adequate
// for the small rates used here.
func (g *Generator) poisson(lambda float64) int {
	limit := math.Exp(-lambda)
	p := 1.0
	k := 0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// beta samples Beta(a, b) via two gamma draws.
func (g *Generator) beta(a, b float64) float64 {
	x := g.gamma(a)
	y := g.gamma(b)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// gamma samples Gamma(shape, 1) via Marsaglia-Tsang.
func (g *Generator) gamma(shape float64) float64 {
	if shape < 1 {
		u := g.rng.Float64()
		return g.gamma(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := g.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := g.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// choice picks one option according to the given weights.
func (g *Generator) choice(options []string, weights []float64) string {
	r := g.rng.Float64()
	var cum float64
	for i, w := range weights {
		cum += w
		if r < cum {
			return options[i]
		}
	}
	return options[len(options)-1]
}

// flag samples a boolean that is true with probability p.
func (g *Generator) flag(p float64) bool {
	return g.rng.Float64() < p
}

// npsScore samples 0-10 skewed toward promoters, matching the observed
// production distribution.
func (g *Generator) npsScore() float64 {
	weights := []float64{0.05, 0.05, 0.05, 0.05, 0.05, 0.1, 0.1, 0.15, 0.15, 0.15, 0.1}
	r := g.rng.Float64()
	var cum float64
	for score, w := range weights {
		cum += w
		if r < cum {
			return float64(score)
		}
	}
	return 10
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
