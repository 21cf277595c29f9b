package ledger

// EventTemplate is a named financial event with the default accounts
// and direction used when posting it. Callers may override any account.
type EventTemplate struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	AccountCode        string    `json:"account_code"`
	Direction          Direction `json:"direction"`
	CounterAccountCode string    `json:"counter_account_code,omitempty"`
}

// Templates is the list of predefined financial events.
var Templates = []EventTemplate{
	{
		Name:               "asset-purchase",
		Description:        "Buy equipment from the operating bank account. Equipment increases (debit), bank decreases (credit).",
		AccountCode:        "1510",
		Direction:          Increase,
		CounterAccountCode: "1120",
	},
	{
		Name:               "asset-purchase-on-credit",
		Description:        "Buy equipment on supplier credit. Equipment increases (debit), payable increases (credit).",
		AccountCode:        "1510",
		Direction:          Increase,
		CounterAccountCode: "2110",
	},
	{
		Name:        "cost-approval",
		Description: "Record an approved project cost. Direct cost increases (debit), the counter account is inferred (bank or payable).",
		AccountCode: "5110",
		Direction:   Increase,
	},
	{
		Name:               "subcontractor-invoice",
		Description:        "Subcontractor invoices work. Subcontractor cost increases (debit), payable increases (credit).",
		AccountCode:        "5120",
		Direction:          Increase,
		CounterAccountCode: "2110",
	},
	{
		Name:               "pay-supplier",
		Description:        "Pay a supplier invoice. Payable decreases (debit), bank decreases (credit).",
		AccountCode:        "2110",
		Direction:          Decrease,
		CounterAccountCode: "1120",
	},
	{
		Name:               "pay-salaries",
		Description:        "Pay employee wages from the payroll account. Salary expense increases (debit), bank decreases (credit).",
		AccountCode:        "6120",
		Direction:          Increase,
		CounterAccountCode: "1121",
	},
	{
		Name:               "capital-injection",
		Description:        "Owners put money into the business. Bank increases (debit), capital increases (credit).",
		AccountCode:        "3110",
		Direction:          Increase,
		CounterAccountCode: "1120",
	},
	{
		Name:               "loan-drawdown",
		Description:        "Draw down a bank loan. Bank increases (debit), loan liability increases (credit).",
		AccountCode:        "2210",
		Direction:          Increase,
		CounterAccountCode: "1120",
	},
}

// LookupTemplate finds a template by name.
func LookupTemplate(name string) *EventTemplate {
	for i := range Templates {
		if Templates[i].Name == name {
			return &Templates[i]
		}
	}
	return nil
}
