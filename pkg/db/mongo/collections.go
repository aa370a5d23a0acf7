package mongo

const (
	UsersCollection      = "Users"
	CategoriesCollection = "Categories"
	LocationsCollection  = "Locations"
	ActivitiesCollection = "Activities"
	BookingsCollection   = "Bookings"
)
