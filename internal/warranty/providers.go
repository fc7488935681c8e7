package warranty

// Provider holds contact details of a warranty provider.
type Provider struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email,omitempty"`
}

var commonProviders = []Provider{
	{Name: "AppleCare", PhoneNumber: "1-800-275-2273", Website: "https://support.apple.com"},
	{Name: "Samsung Care", PhoneNumber: "1-800-726-7864", Website: "https://www.samsung.com/support"},
	{Name: "Best Buy Geek Squad", PhoneNumber: "1-800-433-5778", Website: "https://www.bestbuy.com/geeksquad"},
	{Name: "SquareTrade", PhoneNumber: "1-877-927-7268", Website: "https://www.squaretrade.com"},
	{Name: "Asurion", PhoneNumber: "1-866-551-5924", Website: "https://www.asurion.com"},
	{Name: "Amazon Protection Plan", PhoneNumber: "1-866-216-1072", Website: "https://www.amazon.com/protectionplans"},
}

// Providers returns the built-in provider catalog.
func Providers() []Provider {
	out := make([]Provider, len(commonProviders))
	copy(out, commonProviders)
	return out
}
