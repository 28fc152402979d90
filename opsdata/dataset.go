package opsdata

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Departments lists the valid department identifiers.
var Departments = []string{"engineering", "product", "design", "data", "infrastructure"}

var teamMembers = []TeamMember{
	// Engineering
	{ID: "emp_001", Name: "Alice Chen", Email: "alice@structuredai.io", Department: "engineering", Role: "Senior Engineer", Level: "L5", ManagerID: "emp_010"},
	{ID: "emp_002", Name: "Bob Martinez", Email: "bob@structuredai.io", Department: "engineering", Role: "Engineer", Level: "L4", ManagerID: "emp_010"},
	{ID: "emp_003", Name: "Carol Williams", Email: "carol@structuredai.io", Department: "engineering", Role: "Engineer", Level: "L4", ManagerID: "emp_010"},
	{ID: "emp_004", Name: "David Kim", Email: "david@structuredai.io", Department: "engineering", Role: "Junior Engineer", Level: "L3", ManagerID: "emp_001"},
	{ID: "emp_010", Name: "Eva Rodriguez", Email: "eva@structuredai.io", Department: "engineering", Role: "Engineering Manager", Level: "L6"},

	// Product
	{ID: "emp_005", Name: "Frank Liu", Email: "frank@structuredai.io", Department: "product", Role: "Product Manager", Level: "L5", ManagerID: "emp_011"},
	{ID: "emp_006", Name: "Grace Park", Email: "grace@structuredai.io", Department: "product", Role: "Senior PM", Level: "L6", ManagerID: "emp_011"},
	{ID: "emp_011", Name: "Henry Zhao", Email: "henry@structuredai.io", Department: "product", Role: "Director of Product", Level: "L7"},

	// Design
	{ID: "emp_007", Name: "Iris Thompson", Email: "iris@structuredai.io", Department: "design", Role: "Senior Designer", Level: "L5", ManagerID: "emp_012"},
	{ID: "emp_008", Name: "Jake Anderson", Email: "jake@structuredai.io", Department: "design", Role: "Designer", Level: "L4", ManagerID: "emp_012"},
	{ID: "emp_012", Name: "Karen Singh", Email: "karen@structuredai.io", Department: "design", Role: "Design Lead", Level: "L6"},

	// Data
	{ID: "emp_013", Name: "Leo Nakamura", Email: "leo@structuredai.io", Department: "data", Role: "Data Scientist", Level: "L5", ManagerID: "emp_015"},
	{ID: "emp_014", Name: "Maya Patel", Email: "maya@structuredai.io", Department: "data", Role: "Data Engineer", Level: "L4", ManagerID: "emp_015"},
	{ID: "emp_015", Name: "Noah Brown", Email: "noah@structuredai.io", Department: "data", Role: "Data Lead", Level: "L6"},

	// Infrastructure
	{ID: "emp_016", Name: "Olivia Davis", Email: "olivia@structuredai.io", Department: "infrastructure", Role: "SRE", Level: "L5", ManagerID: "emp_018"},
	{ID: "emp_017", Name: "Peter Wilson", Email: "peter@structuredai.io", Department: "infrastructure", Role: "DevOps Engineer", Level: "L4", ManagerID: "emp_018"},
	{ID: "emp_018", Name: "Quinn Foster", Email: "quinn@structuredai.io", Department: "infrastructure", Role: "Infrastructure Lead", Level: "L6"},
}

var projects = []Project{
	{ID: "proj_001", Name: "Phoenix API", TeamID: "engineering", LeadID: "emp_001", Status: "active", StartedAt: "2024-01-15"},
	{ID: "proj_002", Name: "Customer Portal v2", TeamID: "engineering", LeadID: "emp_002", Status: "active", StartedAt: "2024-03-01"},
	{ID: "proj_003", Name: "Mobile App Redesign", TeamID: "design", LeadID: "emp_007", Status: "active", StartedAt: "2024-02-10"},
	{ID: "proj_004", Name: "Data Pipeline Overhaul", TeamID: "data", LeadID: "emp_013", Status: "active", StartedAt: "2024-04-01"},
	{ID: "proj_005", Name: "Cloud Migration", TeamID: "infrastructure", LeadID: "emp_016", Status: "active", StartedAt: "2023-11-01"},
	{ID: "proj_006", Name: "Search Infrastructure", TeamID: "engineering", LeadID: "emp_003", Status: "active", StartedAt: "2024-05-15"},
	{ID: "proj_007", Name: "Analytics Dashboard", TeamID: "data", LeadID: "emp_014", Status: "completed", StartedAt: "2024-01-01"},
	{ID: "proj_008", Name: "Design System", TeamID: "design", LeadID: "emp_008", Status: "active", StartedAt: "2024-06-01"},
}

var budgets = map[string]Budget{
	"engineering":    {Allocated: 2500, Spent: 2340, Q1Spent: 580, Q2Spent: 620, Q3Spent: 590, Q4Spent: 550},
	"product":        {Allocated: 800, Spent: 720, Q1Spent: 180, Q2Spent: 190, Q3Spent: 175, Q4Spent: 175},
	"design":         {Allocated: 600, Spent: 680, Q1Spent: 160, Q2Spent: 170, Q3Spent: 180, Q4Spent: 170}, // over budget
	"data":           {Allocated: 1200, Spent: 1100, Q1Spent: 270, Q2Spent: 280, Q3Spent: 275, Q4Spent: 275},
	"infrastructure": {Allocated: 3000, Spent: 3200, Q1Spent: 780, Q2Spent: 800, Q3Spent: 820, Q4Spent: 800}, // over budget
}

var customerFeedback = map[string]Feedback{
	"proj_001": {NPS: 45, Responses: 234, Trend: "stable", RecentComments: []FeedbackComment{
		{Score: 9, Comment: "API is fast and reliable"},
		{Score: 7, Comment: "Good but documentation could be better"},
		{Score: 8, Comment: "Love the new endpoints"},
	}},
	"proj_002": {NPS: 28, Responses: 567, Trend: "declining", RecentComments: []FeedbackComment{
		{Score: 5, Comment: "Login is slow sometimes"},
		{Score: 6, Comment: "UI is confusing"},
		{Score: 4, Comment: "Can't find basic features"},
	}},
	"proj_003": {NPS: 62, Responses: 189, Trend: "improving", RecentComments: []FeedbackComment{
		{Score: 9, Comment: "Beautiful new design!"},
		{Score: 10, Comment: "So much easier to use"},
		{Score: 8, Comment: "Great improvements"},
	}},
	"proj_004": {NPS: 51, Responses: 45, Trend: "stable", RecentComments: []FeedbackComment{
		{Score: 8, Comment: "Data is more reliable now"},
		{Score: 7, Comment: "Reports are faster"},
	}},
	"proj_005": {NPS: 38, Responses: 123, Trend: "declining", RecentComments: []FeedbackComment{
		{Score: 6, Comment: "Some downtime recently"},
		{Score: 5, Comment: "Performance issues"},
		{Score: 7, Comment: "Generally stable"},
	}},
	"proj_006": {NPS: 72, Responses: 312, Trend: "improving", RecentComments: []FeedbackComment{
		{Score: 10, Comment: "Search is blazing fast now"},
		{Score: 9, Comment: "Finally finds what I need"},
		{Score: 9, Comment: "Huge improvement"},
	}},
	"proj_007": {NPS: 55, Responses: 89, Trend: "stable", RecentComments: []FeedbackComment{
		{Score: 8, Comment: "Dashboards are useful"},
		{Score: 7, Comment: "Good data visualization"},
	}},
	"proj_008": {NPS: 41, Responses: 67, Trend: "stable", RecentComments: []FeedbackComment{
		{Score: 7, Comment: "Components are consistent"},
		{Score: 6, Comment: "Some components missing"},
	}},
}

var (
	incidents   []Incident
	deployments []Deployment
)

func init() {
	// Fixed seed for reproducibility across runs of the same binary.
	rng := rand.New(rand.NewSource(42))
	incidents = generateIncidents(rng, time.Now())
	deployments = generateDeployments(rng, time.Now())
}

type incidentTemplate struct {
	title     string
	service   string
	projectID string
}

var incidentTemplates = []incidentTemplate{
	{title: "API latency spike in %s", service: "Phoenix API", projectID: "proj_001"},
	{title: "Database connection pool exhausted", service: "Core DB", projectID: "proj_001"},
	{title: "Customer Portal login failures", service: "Auth Service", projectID: "proj_002"},
	{title: "Search indexing delay", service: "Search", projectID: "proj_006"},
	{title: "Pipeline job failures", service: "Data Pipeline", projectID: "proj_004"},
	{title: "CDN cache invalidation issues", service: "CDN", projectID: "proj_005"},
	{title: "Memory leak in worker nodes", service: "Workers", projectID: "proj_005"},
	{title: "SSL certificate expiration warning", service: "Infrastructure", projectID: "proj_005"},
}

// weightedChoice picks an index according to the given weights.
func weightedChoice(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

// generateIncidents builds 25 incidents with realistic severity/status
// distributions: P0s mostly resolved quickly, P3s lingering open.
func generateIncidents(rng *rand.Rand, base time.Time) []Incident {
	severities := []string{"P0", "P1", "P2", "P3"}
	statuses := []string{"open", "investigating", "resolved"}

	var engineers []TeamMember
	for _, m := range teamMembers {
		if m.Department == "engineering" || m.Department == "infrastructure" {
			engineers = append(engineers, m)
		}
	}

	out := make([]Incident, 0, 25)
	for i := 0; i < 25; i++ {
		tmpl := incidentTemplates[rng.Intn(len(incidentTemplates))]
		created := base.
			Add(-time.Duration(rng.Intn(31)) * 24 * time.Hour).
			Add(-time.Duration(rng.Intn(24)) * time.Hour)
		severity := severities[weightedChoice(rng, []int{5, 15, 40, 40})]

		var status string
		switch severity {
		case "P0":
			status = statuses[weightedChoice(rng, []int{10, 20, 70})]
		case "P1":
			status = statuses[weightedChoice(rng, []int{15, 25, 60})]
		default:
			status = statuses[weightedChoice(rng, []int{30, 20, 50})]
		}

		resolvedAt := ""
		if status == "resolved" {
			hours := 4 + rng.Intn(165)
			if severity == "P0" || severity == "P1" {
				hours = 1 + rng.Intn(48)
			}
			resolvedAt = created.Add(time.Duration(hours) * time.Hour).Format(time.RFC3339)
		}

		title := tmpl.title
		if strings.Contains(title, "%s") {
			title = fmt.Sprintf(title, tmpl.service)
		}

		out = append(out, Incident{
			ID:         fmt.Sprintf("inc_%03d", i+1),
			Title:      title,
			Severity:   severity,
			Status:     status,
			ProjectID:  tmpl.projectID,
			AssignedTo: engineers[rng.Intn(len(engineers))].ID,
			CreatedAt:  created.Format(time.RFC3339),
			ResolvedAt: resolvedAt,
			Service:    tmpl.service,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// generateDeployments builds 5-15 deployments per project over the last 30
// days with a ~90% success rate.
func generateDeployments(rng *rand.Rand, base time.Time) []Deployment {
	var out []Deployment
	for _, project := range projects {
		var team []TeamMember
		for _, m := range teamMembers {
			if m.Department == project.TeamID {
				team = append(team, m)
			}
		}

		n := 5 + rng.Intn(11)
		for i := 0; i < n; i++ {
			deployedAt := base.
				Add(-time.Duration(rng.Intn(31)) * 24 * time.Hour).
				Add(-time.Duration(9+rng.Intn(10)) * time.Hour)
			success := rng.Float64() > 0.1

			deployedBy := "emp_001"
			if len(team) > 0 {
				deployedBy = team[rng.Intn(len(team))].ID
			}

			status := "success"
			if !success {
				status = "failed"
			}
			environment := "production"
			if rng.Intn(2) == 1 {
				environment = "staging"
			}

			out = append(out, Deployment{
				ID:          fmt.Sprintf("deploy_%s_%03d", project.ID, i+1),
				ProjectID:   project.ID,
				Version:     fmt.Sprintf("v%d.%d.%d", 1+rng.Intn(9), rng.Intn(100), rng.Intn(1000)),
				DeployedBy:  deployedBy,
				DeployedAt:  deployedAt.Format(time.RFC3339),
				Status:      status,
				Rollback:    !success && rng.Float64() > 0.5,
				Environment: environment,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DeployedAt > out[j].DeployedAt })
	return out
}

// TeamMembers returns team members, optionally filtered by department.
func TeamMembers(department string) []TeamMember {
	out := make([]TeamMember, 0, len(teamMembers))
	for _, m := range teamMembers {
		if department == "" || m.Department == strings.ToLower(department) {
			out = append(out, m)
		}
	}
	return out
}

// Projects returns projects, optionally filtered by team.
func Projects(teamID string) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if teamID == "" || p.TeamID == strings.ToLower(teamID) {
			out = append(out, p)
		}
	}
	return out
}

// Incidents returns incidents, optionally filtered by status and/or severity.
func Incidents(status, severity string) []Incident {
	out := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		if status != "" && inc.Status != strings.ToLower(status) {
			continue
		}
		if severity != "" && inc.Severity != strings.ToUpper(severity) {
			continue
		}
		out = append(out, inc)
	}
	return out
}

// Budgets returns budget data, optionally filtered by department.
func Budgets(department string) map[string]Budget {
	if department != "" {
		key := strings.ToLower(department)
		if b, ok := budgets[key]; ok {
			return map[string]Budget{key: b}
		}
		return map[string]Budget{}
	}
	out := make(map[string]Budget, len(budgets))
	for k, v := range budgets {
		out[k] = v
	}
	return out
}

// CustomerFeedback returns satisfaction data, optionally filtered by project.
func CustomerFeedback(projectID string) map[string]Feedback {
	if projectID != "" {
		if f, ok := customerFeedback[projectID]; ok {
			return map[string]Feedback{projectID: f}
		}
		return map[string]Feedback{}
	}
	out := make(map[string]Feedback, len(customerFeedback))
	for k, v := range customerFeedback {
		out[k] = v
	}
	return out
}

// Deployments returns deployments, optionally filtered by project and/or status.
func Deployments(projectID, status string) []Deployment {
	out := make([]Deployment, 0, len(deployments))
	for _, d := range deployments {
		if projectID != "" && d.ProjectID != projectID {
			continue
		}
		if status != "" && d.Status != strings.ToLower(status) {
			continue
		}
		out = append(out, d)
	}
	return out
}
