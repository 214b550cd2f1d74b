package handlers

// ToolSchema describes one function the voice agent may call.
type ToolSchema struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Path        string              `json:"path"`
	Properties  map[string]Property `json:"properties"`
	Required    []string            `json:"required"`
}

// Property is a JSON-schema property of a tool argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// Schemas returns the tool declarations served at GET /api/tools.
func Schemas() []ToolSchema {
	return []ToolSchema{
		{
			Name:        "get_police_station",
			Description: "search the police station using the given area name",
			Path:        "/api/tools/get_police_station",
			Properties: map[string]Property{
				"area_name": {Type: "string", Description: "name of area e.g ozar"},
			},
			Required: []string{"area_name"},
		},
		{
			Name:        "select_location",
			Description: "resolve a spoken location to coordinates and the police station with jurisdiction",
			Path:        "/api/tools/select_location",
			Properties: map[string]Property{
				"text": {Type: "string", Description: "location as said by the caller"},
				"language": {
					Type:        "string",
					Description: "caller's language, used for the error reply",
					Enum:        []string{"english", "marathi", "hindi"},
				},
			},
			Required: []string{"text"},
		},
		{
			Name:        "send_alert_to_officer",
			Description: "send the alert to police officer for help to control room",
			Path:        "/api/tools/send_alert_to_officer",
			Properties: map[string]Property{
				"message": {Type: "string", Description: "details of incident in short"},
			},
			Required: []string{"message"},
		},
	}
}
