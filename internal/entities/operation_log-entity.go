package entities

import "time"

type OperationLog struct {
	ID              uint64    `json:"id" db:"id"`
	UserID          uint64    `json:"user_id" db:"user_id"`
	Username        string    `json:"username" db:"username"`
	RealName        string    `json:"real_name" db:"real_name"`
	Role            string    `json:"role" db:"role"`
	CommunityName   string    `json:"community" db:"community_name"`
	CommunityNumber int       `json:"community_num" db:"community_number"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	ClientIP        string    `json:"client_ip" db:"client_ip"`
	ClientHostname  string    `json:"client_hostname" db:"client_hostname"`
	UserAgent       string    `json:"user_agent" db:"user_agent"`
	OperationType   string    `json:"operation_type" db:"operation_type"`
	Module          string    `json:"module" db:"module"`
	Details         string    `json:"details" db:"details"`
	TargetID        string    `json:"target_id" db:"target_id"`
	TargetType      string    `json:"target_type" db:"target_type"`
	Result          string    `json:"result" db:"result"`
	RequestMethod   string    `json:"request_method" db:"request_method"`
	RequestURL      string    `json:"request_url" db:"request_url"`
}

type OperationLogFilter struct {
	Username      string
	OperationType string
	StartDate     *time.Time
	EndBefore     *time.Time
}
