package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

// telegramLoginRequest is the payload produced by the Telegram login widget.
type telegramLoginRequest struct {
	ID        int64  `json:"id"         validate:"required,gt=0"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `json:"auth_date"  validate:"required,gt=0"`
	Hash      string `json:"hash"       validate:"required,len=64,hexadecimal"`
}

type userResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type historyQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type shiftResponse struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	UserName  string  `json:"user_name"`
	Status    string  `json:"status"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time,omitempty"`
	// Duration is H:MM:SS, present once the shift is closed.
	Duration *string `json:"duration,omitempty"`
}

type historyResponse struct {
	Items []shiftResponse `json:"items"`
}

type exportRowResponse struct {
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Hours     string `json:"hours"`
}

type exportRowsResponse struct {
	Rows []exportRowResponse `json:"rows"`
}

type userStatsResponse struct {
	UserID      int64   `json:"user_id"`
	UserName    string  `json:"user_name"`
	ShiftCount  int     `json:"shift_count"`
	ActiveCount int     `json:"active_count"`
	TotalHours  float64 `json:"total_hours"`
}

type statsResponse struct {
	Users []userStatsResponse `json:"users"`
}
