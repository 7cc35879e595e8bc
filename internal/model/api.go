package model

// LeadRequest represents the lead capture form
type LeadRequest struct {
	Name        string `json:"name" binding:"required"`
	Contact     string `json:"contact" binding:"required"`
	ContactType string `json:"contact_type" binding:"required"` // email, phone
}

// AppointmentRequest represents an appointment booking (or an explicit skip)
type AppointmentRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD
	TimeSlot    string `json:"time_slot"`
	MeetingType string `json:"meeting_type"`
	Notes       string `json:"notes,omitempty"`
	Skip        bool   `json:"skip,omitempty"`
}

// AppointmentOptions lists what can be booked
type AppointmentOptions struct {
	MeetingTypes []string `json:"meeting_types"`
	TimeSlots    []string `json:"time_slots"`
	EarliestDate string   `json:"earliest_date"`
	LatestDate   string   `json:"latest_date"`
}

// ChatRequest represents one user utterance
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// SessionResponse is the full state of a conversation session
type SessionResponse struct {
	UserID            string        `json:"user_id"`
	State             string        `json:"state"`
	Messages          []ChatMessage `json:"messages"`
	CurrentProperties []Property    `json:"current_properties"`
	PreferenceSummary
}

// PropertiesResponse is the filtered catalog view
type PropertiesResponse struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
	Complete   bool       `json:"complete"`
	Preview    bool       `json:"preview"`
}

// EmbeddingRefreshResponse represents the result of embedding catalog properties
type EmbeddingRefreshResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
