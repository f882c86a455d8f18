package reconcile

// Category selects the coercion and equality rule for a field.
type Category int

const (
	CategoryText Category = iota
	CategoryInteger
	CategoryFloat
	CategoryBoolean
	CategoryYesNo
	CategoryDate
	CategoryID
	CategoryIDList
	CategoryKey
	CategoryKeyList
	CategoryMediaList
	CategorySourcedMediaList
)

// Field is one row of a rule table: the column name, how to coerce and compare
// submitted values, and whether only administrators may change it.
type Field struct {
	Name      string
	Category  Category
	Vocab     string
	AdminOnly bool
}

// adminFields are shared by all three content types. Non-admin submissions
// never see these: they are excluded from the diff, not rejected.
var adminFields = []Field{
	{Name: "featured", Category: CategoryBoolean, AdminOnly: true},
	{Name: "hidden", Category: CategoryBoolean, AdminOnly: true},
	{Name: "original_language", Category: CategoryText, AdminOnly: true},
	{Name: "post_date", Category: CategoryDate, AdminOnly: true},
}

var caseFields = append(adminFields[:len(adminFields):len(adminFields)], []Field{
	// media
	{Name: "links", Category: CategoryMediaList},
	{Name: "videos", Category: CategoryMediaList},
	{Name: "audio", Category: CategoryMediaList},
	{Name: "evaluation_links", Category: CategoryMediaList},
	// photos and files differ from other media in carrying a source url
	{Name: "photos", Category: CategorySourcedMediaList},
	{Name: "files", Category: CategorySourcedMediaList},
	{Name: "evaluation_reports", Category: CategorySourcedMediaList},
	// booleans
	{Name: "ongoing", Category: CategoryBoolean},
	{Name: "staff", Category: CategoryBoolean},
	{Name: "volunteers", Category: CategoryBoolean},
	// yes/no strings, stored as booleans
	{Name: "impact_evidence", Category: CategoryYesNo},
	{Name: "formal_evaluation", Category: CategoryYesNo},
	// numerics
	{Name: "number_of_participants", Category: CategoryInteger},
	{Name: "latitude", Category: CategoryFloat},
	{Name: "longitude", Category: CategoryFloat},
	// plain text
	{Name: "location_name", Category: CategoryText},
	{Name: "address1", Category: CategoryText},
	{Name: "address2", Category: CategoryText},
	{Name: "city", Category: CategoryText},
	{Name: "province", Category: CategoryText},
	{Name: "postal_code", Category: CategoryText},
	{Name: "country", Category: CategoryText},
	{Name: "funder", Category: CategoryText},
	// dates
	{Name: "start_date", Category: CategoryDate},
	{Name: "end_date", Category: CategoryDate},
	// single references
	{Name: "is_component_of", Category: CategoryID},
	{Name: "primary_organizer", Category: CategoryID},
	// reference lists
	{Name: "specific_methods_tools_techniques", Category: CategoryIDList},
	// vocabulary keys
	{Name: "scope_of_influence", Category: CategoryKey, Vocab: "scope_of_influence"},
	{Name: "public_spectrum", Category: CategoryKey, Vocab: "public_spectrum"},
	{Name: "legality", Category: CategoryKey, Vocab: "legality"},
	{Name: "facilitators", Category: CategoryKey, Vocab: "facilitators"},
	{Name: "facilitator_training", Category: CategoryKey, Vocab: "facilitator_training"},
	{Name: "facetoface_online_or_both", Category: CategoryKey, Vocab: "facetoface_online_or_both"},
	{Name: "open_limited", Category: CategoryKey, Vocab: "open_limited"},
	{Name: "recruitment_method", Category: CategoryKey, Vocab: "recruitment_method"},
	{Name: "time_limited", Category: CategoryKey, Vocab: "time_limited"},
	// vocabulary key lists
	{Name: "general_issues", Category: CategoryKeyList, Vocab: "general_issues"},
	{Name: "specific_topics", Category: CategoryKeyList, Vocab: "specific_topics"},
	{Name: "purposes", Category: CategoryKeyList, Vocab: "purposes"},
	{Name: "approaches", Category: CategoryKeyList, Vocab: "approaches"},
	{Name: "targeted_participants", Category: CategoryKeyList, Vocab: "targeted_participants"},
	{Name: "method_types", Category: CategoryKeyList, Vocab: "method_types"},
	{Name: "participants_interactions", Category: CategoryKeyList, Vocab: "participants_interactions"},
	{Name: "learning_resources", Category: CategoryKeyList, Vocab: "learning_resources"},
	{Name: "decision_methods", Category: CategoryKeyList, Vocab: "decision_methods"},
	{Name: "if_voting", Category: CategoryKeyList, Vocab: "if_voting"},
	{Name: "insights_outcomes", Category: CategoryKeyList, Vocab: "insights_outcomes"},
	{Name: "organizer_types", Category: CategoryKeyList, Vocab: "organizer_types"},
	{Name: "funder_types", Category: CategoryKeyList, Vocab: "funder_types"},
	{Name: "change_types", Category: CategoryKeyList, Vocab: "change_types"},
	{Name: "implementers_of_change", Category: CategoryKeyList, Vocab: "implementers_of_change"},
	{Name: "tools_techniques_types", Category: CategoryKeyList, Vocab: "tools_techniques_types"},
	// tags accept any key
	{Name: "tags", Category: CategoryKeyList},
}...)

var methodFields = append(adminFields[:len(adminFields):len(adminFields)], []Field{
	{Name: "links", Category: CategoryMediaList},
	{Name: "videos", Category: CategoryMediaList},
	{Name: "audio", Category: CategoryMediaList},
	{Name: "photos", Category: CategorySourcedMediaList},
	{Name: "files", Category: CategorySourcedMediaList},
	{Name: "facilitated", Category: CategoryYesNo},
	{Name: "open_limited", Category: CategoryKey, Vocab: "open_limited"},
	{Name: "recruitment_method", Category: CategoryKey, Vocab: "recruitment_method"},
	{Name: "facetoface_online_or_both", Category: CategoryKey, Vocab: "facetoface_online_or_both"},
	{Name: "public_spectrum", Category: CategoryKey, Vocab: "public_spectrum"},
	{Name: "scope_of_influence", Category: CategoryKey, Vocab: "scope_of_influence"},
	{Name: "issue_polarization", Category: CategoryKey, Vocab: "intensity"},
	{Name: "issue_technical_complexity", Category: CategoryKey, Vocab: "intensity"},
	{Name: "issue_interdependency", Category: CategoryKey, Vocab: "intensity"},
	{Name: "method_types", Category: CategoryKeyList, Vocab: "method_types"},
	{Name: "participants_interactions", Category: CategoryKeyList, Vocab: "participants_interactions"},
	{Name: "decision_methods", Category: CategoryKeyList, Vocab: "decision_methods"},
	{Name: "if_voting", Category: CategoryKeyList, Vocab: "if_voting"},
	{Name: "tags", Category: CategoryKeyList},
}...)

var organizationFields = append(adminFields[:len(adminFields):len(adminFields)], []Field{
	{Name: "links", Category: CategoryMediaList},
	{Name: "videos", Category: CategoryMediaList},
	{Name: "audio", Category: CategoryMediaList},
	{Name: "photos", Category: CategorySourcedMediaList},
	{Name: "files", Category: CategorySourcedMediaList},
	{Name: "ongoing", Category: CategoryBoolean},
	{Name: "staff", Category: CategoryBoolean},
	{Name: "volunteers", Category: CategoryBoolean},
	{Name: "latitude", Category: CategoryFloat},
	{Name: "longitude", Category: CategoryFloat},
	{Name: "location_name", Category: CategoryText},
	{Name: "address1", Category: CategoryText},
	{Name: "address2", Category: CategoryText},
	{Name: "city", Category: CategoryText},
	{Name: "province", Category: CategoryText},
	{Name: "postal_code", Category: CategoryText},
	{Name: "country", Category: CategoryText},
	{Name: "executive_director", Category: CategoryText},
	{Name: "sector", Category: CategoryKey, Vocab: "sector"},
	{Name: "scope_of_influence", Category: CategoryKey, Vocab: "scope_of_influence"},
	{Name: "specific_methods_tools_techniques", Category: CategoryIDList},
	{Name: "general_issues", Category: CategoryKeyList, Vocab: "general_issues"},
	{Name: "specific_topics", Category: CategoryKeyList, Vocab: "specific_topics"},
	{Name: "type_method", Category: CategoryKeyList, Vocab: "method_types"},
	{Name: "tags", Category: CategoryKeyList},
}...)

var fieldsByType = map[string][]Field{
	"case":         caseFields,
	"method":       methodFields,
	"organization": organizationFields,
}

// SupportedTypes lists the editable content types.
var SupportedTypes = []string{"case", "method", "organization"}

// FieldsFor returns the rule table for a content type, or nil for an unknown type.
func FieldsFor(articleType string) []Field {
	return fieldsByType[articleType]
}
