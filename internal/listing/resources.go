package listing

import "github.com/tallybook/tallybook/internal/shared"

// Resource describes a listable server resource and its default filters.
type Resource struct {
	Name     string
	Path     string
	Defaults map[string]string
}

// Filter keys shared by list resources.
const (
	KeyStatus   = "status"
	KeyContact  = "idContact"
	KeyAssignee = "idAssignee"
	KeyFrom     = "from"
	KeyTo       = "to"
	KeySearch   = "search"
	KeyType     = "type"
)

// Contacts lists customers.
var Contacts = Resource{
	Name: "contacts",
	Path: "/contacts",
	Defaults: map[string]string{
		KeyStatus: "all",
		KeySearch: "",
	},
}

// Invoices lists invoices with derived statuses.
var Invoices = Resource{
	Name: "invoices",
	Path: "/invoices",
	Defaults: map[string]string{
		KeyStatus:  "all",
		KeyContact: shared.AllSentinel,
		KeyFrom:    "",
		KeyTo:      "",
	},
}

// Expenses lists claimed expenses.
var Expenses = Resource{
	Name: "expenses",
	Path: "/expenses",
	Defaults: map[string]string{
		KeyType:     "all",
		KeyContact:  shared.AllSentinel,
		KeyAssignee: shared.AllSentinel,
		KeyFrom:     "",
		KeyTo:       "",
		KeySearch:   "",
	},
}

// Rates lists charge rates.
var Rates = Resource{
	Name: "rates",
	Path: "/rates",
	Defaults: map[string]string{
		KeyStatus: "all",
		KeySearch: "",
	},
}

// Agreements lists service agreements.
var Agreements = Resource{
	Name: "agreements",
	Path: "/agreements",
	Defaults: map[string]string{
		KeyStatus:  "all",
		KeyContact: shared.AllSentinel,
		KeyFrom:    "",
		KeyTo:      "",
	},
}

// Lookup finds a resource by name.
func Lookup(name string) (Resource, bool) {
	for _, r := range []Resource{Contacts, Invoices, Expenses, Rates, Agreements} {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
