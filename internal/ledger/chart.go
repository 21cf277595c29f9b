package ledger

// ChartEntry represents a predefined entry in the chart of accounts.
type ChartEntry struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
}

// DefaultChart is the project-accounting chart seeded into a new ledger.
var DefaultChart = []ChartEntry{
	// Assets (1xxx)
	{Code: "1110", Name: "Cash on Hand", Type: TypeAsset, Category: CategoryCash, Description: "Petty cash and cash in the office safe"},
	{Code: "1120", Name: "Bank - Operating", Type: TypeAsset, Category: CategoryBank, Description: "Main operating bank account"},
	{Code: "1121", Name: "Bank - Payroll", Type: TypeAsset, Category: CategoryBank, Description: "Bank account used for salaries"},
	{Code: "1130", Name: "Accounts Receivable", Type: TypeAsset, Category: CategoryReceivable, Description: "Invoiced billings not yet paid"},
	{Code: "1140", Name: "Work in Progress", Type: TypeAsset, Category: CategoryWorkInProgress, Description: "Unbilled project work"},
	{Code: "1510", Name: "Equipment", Type: TypeAsset, Category: CategoryFixedAsset, Description: "Machinery and project equipment"},
	{Code: "1520", Name: "Vehicles", Type: TypeAsset, Category: CategoryFixedAsset, Description: "Company vehicles"},
	{Code: "1530", Name: "Office Equipment", Type: TypeAsset, Category: CategoryFixedAsset, Description: "Computers and furniture"},

	// Contra assets (15xx)
	{Code: "1590", Name: "Accumulated Depreciation", Type: TypeContraAsset, Category: CategoryAccumulatedDepreciation, Description: "Depreciation charged against fixed assets to date"},

	// Liabilities (2xxx)
	{Code: "2110", Name: "Accounts Payable", Type: TypeLiability, Category: CategoryPayable, Description: "Supplier and subcontractor invoices not yet paid"},
	{Code: "2120", Name: "Accrued Expenses", Type: TypeLiability, Category: "accrual", Description: "Expenses incurred but not yet invoiced"},
	{Code: "2210", Name: "Bank Loans", Type: TypeLiability, Category: "loan", Description: "Long-term borrowings"},

	// Equity (3xxx)
	{Code: "3110", Name: "Owner Capital", Type: TypeEquity, Category: "capital", Description: "Capital contributed by the owners"},
	{Code: "3120", Name: "Retained Earnings", Type: TypeEquity, Category: "retained earnings", Description: "Accumulated profits retained in the business"},

	// Revenue (4xxx)
	{Code: "4110", Name: "Project Revenue", Type: TypeRevenue, Category: "project", Description: "Revenue from billed project work"},
	{Code: "4120", Name: "Other Income", Type: TypeRevenue, Category: "other", Description: "Interest and miscellaneous income"},

	// Expenses (5xxx, 6xxx)
	{Code: "5110", Name: "Project Direct Costs", Type: TypeExpense, Category: "project", Description: "Materials and labour charged to projects"},
	{Code: "5120", Name: "Subcontractor Costs", Type: TypeExpense, Category: "project", Description: "Work performed by subcontractors"},
	{Code: "6110", Name: "Depreciation Expense", Type: TypeExpense, Category: CategoryDepreciation, Description: "Allocation of fixed asset cost over useful life"},
	{Code: "6120", Name: "Salaries and Wages", Type: TypeExpense, Category: "payroll", Description: "Employee compensation"},
	{Code: "6130", Name: "Office Expenses", Type: TypeExpense, Category: "overhead", Description: "Rent, utilities and supplies"},
}

// DefaultCashflow maps the default chart onto cashflow statement sections.
var DefaultCashflow = []CashflowCategory{
	{AccountCode: "1130", Category: CashflowOperating, Subcategory: "receivables"},
	{AccountCode: "1510", Category: CashflowInvesting, Subcategory: "capital expenditure"},
	{AccountCode: "1520", Category: CashflowInvesting, Subcategory: "capital expenditure"},
	{AccountCode: "1530", Category: CashflowInvesting, Subcategory: "capital expenditure"},
	{AccountCode: "2110", Category: CashflowOperating, Subcategory: "payables"},
	{AccountCode: "2210", Category: CashflowFinancing, Subcategory: "borrowings"},
	{AccountCode: "3110", Category: CashflowFinancing, Subcategory: "owner capital"},
	{AccountCode: "4110", Category: CashflowOperating, Subcategory: "project receipts"},
	{AccountCode: "4120", Category: CashflowOperating, Subcategory: "other receipts"},
	{AccountCode: "5110", Category: CashflowOperating, Subcategory: "project payments"},
	{AccountCode: "5120", Category: CashflowOperating, Subcategory: "project payments"},
	{AccountCode: "6120", Category: CashflowOperating, Subcategory: "payroll"},
	{AccountCode: "6130", Category: CashflowOperating, Subcategory: "overhead"},
}

// LookupChartEntry finds a default chart entry by code.
func LookupChartEntry(code string) *ChartEntry {
	for i := range DefaultChart {
		if DefaultChart[i].Code == code {
			return &DefaultChart[i]
		}
	}
	return nil
}

// Account converts a chart entry into an account record.
func (c ChartEntry) Account() Account {
	return Account{Code: c.Code, Name: c.Name, Type: c.Type, Category: c.Category}
}
