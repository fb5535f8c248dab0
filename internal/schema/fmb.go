package schema

// FMBTemplateV1 is the built-in dump template for the FMB product,
// seeded on first start when no template exists yet.
var FMBTemplateV1 = Definition{
	Code:        "FMB_DUMP_V1",
	Name:        "FMB Dump Template",
	ProductCode: "FMB",
	Columns: []Column{
		{Key: "surveyId", Label: "Survey ID", Type: TypeString, Required: true, MaxLength: 64},
		{Key: "surveyName", Label: "Survey Name", Type: TypeString, Required: true, MaxLength: 180},
		{Key: "state", Label: "State", Type: TypeString, Required: true, MaxLength: 64},
		{Key: "district", Label: "District", Type: TypeString, Required: true, MaxLength: 64},
		{Key: "block", Label: "Block", Type: TypeString, MaxLength: 64},
		{Key: "village", Label: "Village", Type: TypeString, MaxLength: 120},
		{Key: "recordDate", Label: "Record Date", Type: TypeDate},
		{Key: "submissionCount", Label: "Submission Count", Type: TypeNumber},
		{Key: "isActive", Label: "Is Active", Type: TypeBoolean},
	},
}
