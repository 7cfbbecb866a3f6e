package audience

// Definition is a named, reusable audience: a label plus the rule set
// that carves the segment out of the full user table.
type Definition struct {
	Name  string `json:"name"`
	Rules []Rule `json:"rules"`
}

// Definitions returns the built-in audience segments for the ecommerce
// user schema. "All Users" has no rules and passes every row.
func Definitions() []Definition {
	return []Definition{
		{Name: "All Users"},
		{Name: "High Value Customers", Rules: []Rule{{Field: "ltv", Op: OpGT, Value: 1000.0}}},
		{Name: "Recent Signups", Rules: []Rule{{Field: "days_since_signup", Op: OpLT, Value: 30.0}}},
		{Name: "Churned Users", Rules: []Rule{{Field: "is_churned", Op: OpEQ, Value: true}}},
		{Name: "Mobile Users", Rules: []Rule{{Field: "device_type", Op: OpEQ, Value: "Mobile"}}},
		{Name: "Email Subscribers", Rules: []Rule{{Field: "email_subscriber", Op: OpEQ, Value: true}}},
		{Name: "High AOV Customers", Rules: []Rule{{Field: "average_order_value", Op: OpGT, Value: 100.0}}},
		{Name: "Frequent Buyers", Rules: []Rule{{Field: "total_orders", Op: OpGT, Value: 10.0}}},
		{Name: "Gold+ Members", Rules: []Rule{{Field: "loyalty_tier", Op: OpIn, Values: []interface{}{"Gold", "Platinum"}}}},
		{Name: "At-Risk Customers", Rules: []Rule{{Field: "churn_risk_score", Op: OpGT, Value: 0.7}}},
		{Name: "Social Followers", Rules: []Rule{{Field: "social_media_follower", Op: OpEQ, Value: true}}},
		{Name: "High Engagement", Rules: []Rule{{Field: "website_visits_l30d", Op: OpGT, Value: 10.0}}},
		{Name: "Recent Purchasers", Rules: []Rule{{Field: "days_since_last_purchase", Op: OpLT, Value: 30.0}}},
		{Name: "High NPS", Rules: []Rule{{Field: "nps_score", Op: OpGT, Value: 8.0}}},
		{Name: "Fashion Lovers", Rules: []Rule{{Field: "product_category_preference", Op: OpEQ, Value: "Fashion"}}},
		{Name: "Price Sensitive", Rules: []Rule{{Field: "price_sensitivity", Op: OpEQ, Value: "High"}}},
		{Name: "Young Adults", Rules: []Rule{{Field: "age", Op: OpBetween, Values: []interface{}{18.0, 35.0}}}},
		{Name: "US Customers", Rules: []Rule{{Field: "country", Op: OpEQ, Value: "US"}}},
		{Name: "New Customers", Rules: []Rule{{Field: "total_orders", Op: OpLTE, Value: 2.0}}},
		{Name: "VIP Customers", Rules: []Rule{{Field: "loyalty_tier", Op: OpEQ, Value: "Platinum"}}},
	}
}

// ByName finds a built-in audience definition.
func ByName(name string) (Definition, bool) {
	for _, d := range Definitions() {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
