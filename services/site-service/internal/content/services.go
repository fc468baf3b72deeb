package content

// DefaultServices is the catalog offered on the booking form.
var DefaultServices = []string{
	"Legal Services - Immigration",
	"Legal Services - Criminal Law",
	"Legal Services - Business Law",
	"HR Services - Recruitment",
	"HR Services - Employee Relations",
	"Education Consulting - University Applications",
	"Education Consulting - Visa Assistance",
	"Business Consulting - Market Entry",
	"Business Consulting - Executive Mentorship",
	"General Consultation",
}
