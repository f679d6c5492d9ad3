package crm

// Industry is a fixed classification applied to accounts
type Industry string

// Supported industries
const (
	IndustryTechnology         Industry = "Technology"
	IndustryFinance            Industry = "Finance"
	IndustryHealthcare         Industry = "Healthcare"
	IndustryRetail             Industry = "Retail"
	IndustryManufacturing      Industry = "Manufacturing"
	IndustryEducation          Industry = "Education"
	IndustryRealEstate         Industry = "Real Estate"
	IndustryEnergy             Industry = "Energy"
	IndustryTransportation     Industry = "Transportation"
	IndustryMedia              Industry = "Media"
	IndustryHospitality        Industry = "Hospitality"
	IndustryAgriculture        Industry = "Agriculture"
	IndustryConstruction       Industry = "Construction"
	IndustryTelecommunications Industry = "Telecommunications"
	IndustryConsulting         Industry = "Consulting"
	IndustryOther              Industry = "Other"
)

// AllIndustries returns the full industry list in display order
func AllIndustries() []Industry {
	return []Industry{
		IndustryTechnology,
		IndustryFinance,
		IndustryHealthcare,
		IndustryRetail,
		IndustryManufacturing,
		IndustryEducation,
		IndustryRealEstate,
		IndustryEnergy,
		IndustryTransportation,
		IndustryMedia,
		IndustryHospitality,
		IndustryAgriculture,
		IndustryConstruction,
		IndustryTelecommunications,
		IndustryConsulting,
		IndustryOther,
	}
}

// IsValid reports whether the industry is one of the supported values
func (i Industry) IsValid() bool {
	for _, known := range AllIndustries() {
		if i == known {
			return true
		}
	}
	return false
}
