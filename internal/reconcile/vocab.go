package reconcile

// Controlled vocabularies for key and key-list fields. A field whose rule names
// one of these accepts only the listed keys; tags deliberately have no entry
// here and pass through unvalidated.
var vocabularies = map[string][]string{
	"scope_of_influence": {
		"neighbourhood", "city_town", "metropolitan_area", "regional",
		"national", "multinational",
	},
	"public_spectrum": {"pure_public", "mixed", "pure_private"},
	"legality":        {"yes", "no"},
	"open_limited":    {"open", "limited", "both"},
	"recruitment_method": {
		"appointment", "captive_sample", "election", "random_sample",
		"stratified_random_sample", "self_selection",
	},
	"facetoface_online_or_both": {"facetoface", "online", "both"},
	"time_limited":              {"single_defined_period", "repeated_over_time"},
	"facilitators":              {"yes", "no", "not_applicable"},
	"facilitator_training": {
		"professional_facilitators", "trained_nonprofessional_facilitators",
		"untrained_nonprofessional_facilitators",
	},
	"intensity": {"low", "moderate", "high"},
	"general_issues": {
		"economics", "education", "environment", "governance", "health",
		"human_rights_civil_rights", "identity_politics", "immigration_migration",
		"media_telecommunications", "planning_development",
		"science_technology", "social_welfare",
	},
	"specific_topics": {
		"air_quality", "budget_process", "climate_change",
		"constitutional_reform", "energy_production", "housing",
		"public_participation", "public_safety", "transportation",
	},
	"purposes": {
		"academic_research", "citizenship_building",
		"co_production_public_services", "deliver_goods_services",
		"develop_civic_capacities", "make_influence_public_policy",
		"make_decisions_within_organization", "social_mobilization",
	},
	"approaches": {
		"advocacy", "citizenship_building", "civil_society_building",
		"co_governance", "consultation", "direct_democracy",
		"evaluation_audit_review", "research",
	},
	"targeted_participants": {
		"appointed_public_servants", "elected_public_officials",
		"everyday_people", "experts", "stakeholder_organizations",
		"students", "women", "youth",
	},
	"method_types": {
		"collaborative_approaches", "community_development",
		"deliberative_dialogic", "direct_democracy",
		"evaluation_audit_review", "public_meetings",
	},
	"participants_interactions": {
		"acting_performing", "ask_answer_questions",
		"discussion_dialogue_deliberation", "express_opinions_preferences",
		"formal_testimony", "informal_social_activities",
		"listen_watch_as_spectator", "negotiation_bargaining",
	},
	"learning_resources": {
		"expert_presentations", "participant_presentations", "site_visits",
		"teach_ins", "video_presentations", "written_briefing_materials",
	},
	"decision_methods": {
		"general_agreement_consensus", "idea_generation", "opinion_survey",
		"voting", "dont_know", "not_applicable",
	},
	"if_voting": {
		"majoritarian_voting", "plurality", "preferential_voting",
		"unweighted_averaging", "dont_know", "not_applicable",
	},
	"insights_outcomes": {
		"capacity_building", "changes_in_civic_capacities",
		"changes_in_public_policy", "conflict_transformation",
		"new_public_spaces", "dont_know",
	},
	"organizer_types": {
		"academic_institution", "activist_network",
		"community_based_organization", "faith_based_organization",
		"for_profit_business", "government_owned_corporation", "individual",
		"international_organization", "labor_trade_union", "local_government",
		"national_government", "non_governmental_organization",
		"philanthropic_organization", "regional_government", "social_movement",
	},
	"funder_types": {
		"academic_institution", "for_profit_business", "individual",
		"international_organization", "local_government", "national_government",
		"non_governmental_organization", "philanthropic_organization",
		"regional_government",
	},
	"change_types": {
		"changes_in_civic_capacities", "changes_in_how_institutions_operate",
		"changes_in_peoples_knowledge_attitudes_behavior",
		"changes_in_public_policy",
	},
	"implementers_of_change": {
		"appointed_public_servants", "corporations",
		"elected_public_officials", "experts", "lay_public",
		"stakeholder_organizations",
	},
	"tools_techniques_types": {
		"collect_locate_data", "facilitate_dialogue_discussion",
		"inform_educate", "manage_analyze_data",
		"propose_develop_solutions", "recruit_select_participants",
	},
	"sector": {
		"academic", "business", "civil_society", "government", "labor",
	},
}

// ValidKey reports whether key belongs to the named vocabulary. An empty
// vocabulary name means the field is unvalidated (tags).
func ValidKey(vocab, key string) bool {
	if vocab == "" {
		return true
	}
	for _, k := range vocabularies[vocab] {
		if k == key {
			return true
		}
	}
	return false
}
