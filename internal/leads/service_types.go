package leads

// ServiceType codes offered by the contact form's service select.
const (
	ServiceDieselGenerator    = "diesel-generator"
	ServiceEquipmentRefueling = "equipment-refueling"
	ServiceJobSiteDelivery    = "job-site-delivery"
	ServiceShopFueling        = "shop-fueling"
	ServiceDEFRefilling       = "def-refilling"
	ServiceOther              = "other"
)

var serviceLabels = map[string]string{
	ServiceDieselGenerator:    "Diesel Generator Refueling",
	ServiceEquipmentRefueling: "Equipment Refueling",
	ServiceJobSiteDelivery:    "Job Site Fuel Delivery",
	ServiceShopFueling:        "Shop Fueling Services",
	ServiceDEFRefilling:       "DEF Re-filling",
	ServiceOther:              "Other Service",
}

// ServiceLabel maps a service code to its display label. Free-text values
// that are not known codes are returned unchanged.
func ServiceLabel(code string) string {
	if label, ok := serviceLabels[code]; ok {
		return label
	}
	return code
}
