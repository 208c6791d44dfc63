package domain

// Route is a storefront page reachable from the dashboard.
type Route struct {
	Key         string
	Title       string
	Description string
}

const HomeRoute = "dashboard"

var StorefrontRoutes = []Route{
	{Key: "dashboard", Title: "Dashboard", Description: "Today's orders, revenue and store status at a glance."},
	{Key: "catalog", Title: "Catalog", Description: "Menu categories, items, modifiers and availability."},
	{Key: "orders", Title: "Orders", Description: "Incoming, in-progress and fulfilled orders."},
	{Key: "branding", Title: "Branding", Description: "Logo, colours and storefront theme."},
	{Key: "settings", Title: "Settings", Description: "Opening hours, delivery zones and payment options."},
}

func RouteKeys(routes []Route) []string {
	keys := make([]string, len(routes))
	for i, r := range routes {
		keys[i] = r.Key
	}
	return keys
}
