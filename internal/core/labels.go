package core

// Suggested labels offered by entry forms. Records may carry any label.
var (
	NeedsCategories = []string{"Rent/EMI", "Utilities", "Groceries", "Transport", "Bills", "Health"}
	WantsCategories = []string{"Dining Out", "Entertainment", "Shopping", "Travel", "Hobbies"}
	IncomeSources   = []string{"Salary", "Freelance", "Business", "Other"}
	InvestmentTypes = []string{"Mutual Funds", "Stocks", "Fixed Deposit", "Gold"}
)

// Labels groups the suggestion lists for transport.
type Labels struct {
	Needs       []string `json:"needs"`
	Wants       []string `json:"wants"`
	Income      []string `json:"income"`
	Investments []string `json:"investments"`
}

func SuggestedLabels() Labels {
	return Labels{
		Needs:       append([]string(nil), NeedsCategories...),
		Wants:       append([]string(nil), WantsCategories...),
		Income:      append([]string(nil), IncomeSources...),
		Investments: append([]string(nil), InvestmentTypes...),
	}
}
