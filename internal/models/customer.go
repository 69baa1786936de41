package models

// Customer is one entry of a batch migration request. The ID is the
// Netplay customer identifier; PackageName is the customer's current
// plan as displayed by the panel.
type Customer struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	PackageName string `json:"package_name"`
}

// CustomerRecord is a search result returned to the frontend, flattened
// from the loosely-shaped Netplay customer listing.
type CustomerRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Server   string `json:"server"`
	Package  string `json:"package"`
	Renewal  string `json:"vencimento"`
	Status   string `json:"status"`
}

// Plan is a service tier offered on a specific Netplay server.
type Plan struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	ServerID   string `json:"server_id"`
	ServerName string `json:"server_name"`
}

// Server is a Netplay streaming server with its nested plans.
type Server struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Packages []Plan `json:"packages"`
}
