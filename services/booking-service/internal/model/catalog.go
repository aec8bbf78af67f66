package model

// ServiceCatalog lists the service labels offered at the front desk. Appointment.Service
// stays free text; the catalog only feeds pickers.
var ServiceCatalog = []string{
	"Consultation",
	"Treatment",
	"Cleaning",
	"Orthodontics",
	"Other",
}
