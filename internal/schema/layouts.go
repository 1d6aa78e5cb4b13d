package schema

// Attribute lists match the reference report layouts column for column,
// including the repeated TYPE and blank trailing column of the workflow
// tables. Do not reorder.

var blueprintIntegrationObject = []Group{
	{NodeType: "INTEGRATION_OBJECT", Attributes: []string{"NAME", "EXTERNAL_NAME", "XML_TAG"}},
	{NodeType: "INTEGRATION_COMPONENT", Attributes: []string{"NAME", "EXTERNAL_NAME", "XML_TAG", "CARDINALITY"}},
	{NodeType: "INTEGRATION_COMPONENT_FIELD", Attributes: []string{"NAME", "FIELD_TYPE", "EXTERNAL_NAME", "XML_TAG"}},
	{NodeType: "INTEGRATION_COMPONENT_KEY", Attributes: []string{"NAME", "KEY_TYPE"}},
	{NodeType: "INTEGRATION_COMPONENT_KEY_FIELD", Attributes: []string{"NAME", "FIELD_NAME"}},
}

var blueprintWorkflowProcess = []Group{
	{NodeType: "WORKFLOW_PROCESS", Attributes: []string{"NAME", "BUSINESS_OBJECT"}},
	{NodeType: "WF_STEP", Attributes: []string{"TYPE", "BUSINESS_COMPONENT", "TYPE", "OPERATION"}},
	{NodeType: "WF_STEP_I_O_ARGUMENT", Attributes: []string{"NAME", "TYPE", "VALUE_SEARCH_SPECIFICATION", "BUSINESS_COMPONENT", ""}},
	{NodeType: "INTEGRATION_COMPONENT_KEY", Attributes: []string{"NAME", "KEY_TYPE"}},
	{NodeType: "INTEGRATION_COMPONENT_KEY_FIELD", Attributes: []string{"NAME", "FIELD_NAME"}},
}

var layouts = map[Layout]map[Kind][]Group{
	LayoutChanges: {
		Applet: {
			{NodeType: "CONTROL", Attributes: []string{"NAME", "CAPTION", "HTML_TYPE", "UPDATED", "UPDATED_BY", "COMMENTS"}},
			{NodeType: "COLUMN", Attributes: []string{"NAME", "COLUMN_TYPE", "UPDATED", "UPDATED_BY", "COMMENTS"}},
		},
		BusinessComponent: {
			{NodeType: "FIELD", Attributes: []string{"NAME", "CALCULATED", "CALCULATED_VALUE", "COLUMN", "JOIN", "UPDATED", "UPDATED_BY", "COMMENTS"}},
			{NodeType: "JOIN", Attributes: []string{"NAME", "OUTER_JOIN_FLAG", "TABLE", "UPDATED", "UPDATED_BY", "COMMENTS"}},
			{NodeType: "JOIN_SPECIFICATION", Attributes: []string{"NAME", "DESTINATION_COLUMN", "SOURCE_FIELD", "UPDATED", "UPDATED_BY", "COMMENTS"}},
			{NodeType: "BUSINESS_COMPONENT_USER_PROP", Attributes: []string{"NAME", "VALUE", "UPDATED", "UPDATED_BY", "COMMENTS"}},
			{NodeType: "MULTI_VALUE_LINK", Attributes: []string{"NAME", "DESTINATION_BUSINESS_COMPONENT", "DESTINATION_LINK", "UPDATED", "UPDATED_BY"}},
			{NodeType: "BUSCOMP_SERVER_SCRIPT", Attributes: []string{"NAME", "SCRIPT", "UPDATED", "UPDATED_BY"}},
		},
		IntegrationObject: blueprintIntegrationObject,
		WorkflowProcess:   blueprintWorkflowProcess,
	},
	LayoutBlueprint: {
		Applet: {
			{NodeType: "APPLET", Attributes: []string{"NAME", "TABLE"}},
			{NodeType: "CONTROL", Attributes: []string{"NAME", "CAPTION", "HTML_TYPE"}},
			{NodeType: "COLUMN", Attributes: []string{"NAME", "COLUMN_TYPE"}},
			{NodeType: "APPLET_BROWSER_SCRIPT", Attributes: []string{"NAME", "SCRIPT"}},
			{NodeType: "APPLET_USER_PROP", Attributes: []string{"NAME", "VALUE"}},
			{NodeType: "DRILLDOWN_OBJECT", Attributes: []string{"NAME", "BUSINESS_COMPONENT", "DESTINATION_FIELD", "SOURCE_FIELD", "HYPERLINK_FIELD"}},
		},
		BusinessComponent: {
			{NodeType: "BUSINESS_COMPONENT", Attributes: []string{"NAME", "TABLE"}},
			{NodeType: "FIELD", Attributes: []string{"NAME", "CALCULATED", "CALCULATED_VALUE", "COLUMN", "JOIN", "UPDATED", "UPDATED_BY", "COMMENTS"}},
			{NodeType: "BUSINESS_COMPONENT_USER_PROP", Attributes: []string{"NAME", "VALUE", "UPDATED", "UPDATED_BY", "COMMENTS"}},
		},
		IntegrationObject: blueprintIntegrationObject,
		WorkflowProcess:   blueprintWorkflowProcess,
	},
}

var headingSuffix = map[Layout]map[Kind]string{
	LayoutChanges: {
		Applet:            "Controls and Columns",
		BusinessComponent: "Fields",
	},
}
