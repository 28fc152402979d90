// Package opsdata holds the mock operations dataset for Structured AI, a
// fictional tech company. It simulates a realistic operations environment
// with interconnected data: people, projects, incidents, budgets, customer
// feedback, and deployments.
package opsdata

// TeamMember is an employee record.
type TeamMember struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Level      string `json:"level"`
	ManagerID  string `json:"manager_id,omitempty"`
}

// Project is a project record.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TeamID    string `json:"team_id"`
	LeadID    string `json:"lead_id"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
}

// Incident is an incident report.
type Incident struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Severity   string `json:"severity"`
	Status     string `json:"status"`
	ProjectID  string `json:"project_id"`
	AssignedTo string `json:"assigned_to"`
	CreatedAt  string `json:"created_at"`
	ResolvedAt string `json:"resolved_at,omitempty"`
	Service    string `json:"service"`
}

// Budget is per-department spend in thousands.
type Budget struct {
	Allocated int `json:"allocated"`
	Spent     int `json:"spent"`
	Q1Spent   int `json:"q1_spent"`
	Q2Spent   int `json:"q2_spent"`
	Q3Spent   int `json:"q3_spent"`
	Q4Spent   int `json:"q4_spent"`
}

// FeedbackComment is one customer survey response.
type FeedbackComment struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Feedback is NPS-style customer satisfaction data for one project.
type Feedback struct {
	NPS            int               `json:"nps"`
	Responses      int               `json:"responses"`
	Trend          string            `json:"trend"`
	RecentComments []FeedbackComment `json:"recent_comments"`
}

// Deployment is one deploy record.
type Deployment struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Version     string `json:"version"`
	DeployedBy  string `json:"deployed_by"`
	DeployedAt  string `json:"deployed_at"`
	Status      string `json:"status"`
	Rollback    bool   `json:"rollback"`
	Environment string `json:"environment"`
}
