package auto

// StateConfig carries the state-specific auto-insurance facts surfaced
// alongside retrieval results for this profile.
type StateConfig struct {
	Code           string
	Name           string
	TortSystem     string // "tort" or "no-fault"
	MinLiability   string // e.g. "15/30/5"
	PIPRequired    bool
	UMUIMRequired  bool
	Notes          string
}

// stateConfigs covers the ten largest auto-insurance markets by premium
// volume, not all 50 states.
var stateConfigs = map[string]StateConfig{
	"CA": {
		Code: "CA", Name: "California", TortSystem: "tort",
		MinLiability: "15/30/5", PIPRequired: false, UMUIMRequired: false,
		Notes: "No-fault repealed in 1969; UM/UIM offered but can be rejected in writing.",
	},
	"TX": {
		Code: "TX", Name: "Texas", TortSystem: "tort",
		MinLiability: "30/60/25", PIPRequired: false, UMUIMRequired: false,
		Notes: "PIP offered but rejectable in writing; UM/UIM offered but rejectable in writing.",
	},
	"FL": {
		Code: "FL", Name: "Florida", TortSystem: "no-fault",
		MinLiability: "10/20/10", PIPRequired: true, UMUIMRequired: false,
		Notes: "PIP mandatory at $10,000; bodily injury liability became mandatory again in 2024.",
	},
	"NY": {
		Code: "NY", Name: "New York", TortSystem: "no-fault",
		MinLiability: "25/50/10", PIPRequired: true, UMUIMRequired: true,
		Notes: "PIP (\"no-fault\") mandatory at $50,000; UM mandatory.",
	},
	"IL": {
		Code: "IL", Name: "Illinois", TortSystem: "tort",
		MinLiability: "25/50/20", PIPRequired: false, UMUIMRequired: true,
		Notes: "UM/UIM mandatory at the same limits as liability.",
	},
	"PA": {
		Code: "PA", Name: "Pennsylvania", TortSystem: "no-fault",
		MinLiability: "15/30/5", PIPRequired: true, UMUIMRequired: false,
		Notes: "Choice no-fault state: drivers elect limited or full tort at enrollment.",
	},
	"OH": {
		Code: "OH", Name: "Ohio", TortSystem: "tort",
		MinLiability: "25/50/25", PIPRequired: false, UMUIMRequired: false,
		Notes: "UM/UIM must be offered but can be declined in writing.",
	},
	"NJ": {
		Code: "NJ", Name: "New Jersey", TortSystem: "no-fault",
		MinLiability: "15/30/5", PIPRequired: true, UMUIMRequired: true,
		Notes: "Offers both a standard and a basic policy tier with different PIP minimums.",
	},
	"MI": {
		Code: "MI", Name: "Michigan", TortSystem: "no-fault",
		MinLiability: "50/100/10", PIPRequired: true, UMUIMRequired: false,
		Notes: "2019 reform introduced PIP medical coverage level choices.",
	},
	"GA": {
		Code: "GA", Name: "Georgia", TortSystem: "tort",
		MinLiability: "25/50/25", PIPRequired: false, UMUIMRequired: false,
		Notes: "UM/UIM offered but can be rejected in writing.",
	},
}

// topMarkets lists the state codes covered by stateConfigs, in
// descending premium-volume order.
var topMarkets = []string{"CA", "TX", "FL", "NY", "IL", "PA", "OH", "NJ", "MI", "GA"}

func stateCodes() []string {
	out := make([]string, len(topMarkets))
	copy(out, topMarkets)
	return out
}
